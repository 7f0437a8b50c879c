/*
 * Copyright 2025 Calverix Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scan

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minPort = 1
	maxPort = 65535
)

// ResolvePorts parses a comma-separated port spec where each token is a
// single port or an inclusive "low-high" range. Duplicates are dropped while
// preserving first-seen order: "80,1-3,2" resolves to [80 1 2 3]. An empty
// spec resolves to the default port set.
func ResolvePorts(spec string) ([]int, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return DefaultPorts(), nil
	}

	seen := make(map[int]struct{})

	var ports []int

	add := func(p int) {
		if _, dup := seen[p]; dup {
			return
		}

		seen[p] = struct{}{}
		ports = append(ports, p)
	}

	for _, token := range strings.Split(trimmed, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("%w: empty token in %q", ErrInvalidPortSpec, spec)
		}

		lowStr, highStr, isRange := strings.Cut(token, "-")
		if !isRange {
			p, err := parsePort(token)
			if err != nil {
				return nil, err
			}

			add(p)

			continue
		}

		low, err := parsePort(lowStr)
		if err != nil {
			return nil, err
		}

		high, err := parsePort(highStr)
		if err != nil {
			return nil, err
		}

		if low > high {
			return nil, fmt.Errorf("%w: inverted range %q", ErrInvalidPortSpec, token)
		}

		for p := low; p <= high; p++ {
			add(p)
		}
	}

	return ports, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a port number", ErrInvalidPortSpec, s)
	}

	if p < minPort || p > maxPort {
		return 0, fmt.Errorf("%w: port %d outside [%d,%d]", ErrInvalidPortSpec, p, minPort, maxPort)
	}

	return p, nil
}
