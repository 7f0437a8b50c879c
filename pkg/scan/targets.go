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
	"encoding/binary"
	"fmt"
	"net"
	"strings"
)

// TargetSpec is a parsed scan target: either a single host (IP literal or
// hostname, resolved at dial time) or an IPv4 CIDR block. Blocks are never
// materialized; addresses are generated on demand so a /8 starts probing
// immediately.
type TargetSpec struct {
	raw    string
	host   string
	base   uint32
	count  uint64
	isCIDR bool
}

// ParseTarget parses a host or CIDR token. Host bits below a block's prefix
// are masked off, so "10.0.0.5/24" scans 10.0.0.0/24.
func ParseTarget(spec string) (*TargetSpec, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty target", ErrInvalidTarget)
	}

	if strings.Contains(trimmed, "/") {
		_, ipnet, err := net.ParseCIDR(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, trimmed)
		}

		v4 := ipnet.IP.To4()
		if v4 == nil {
			return nil, fmt.Errorf("%w: %q: only IPv4 blocks can be expanded", ErrInvalidTarget, trimmed)
		}

		ones, _ := ipnet.Mask.Size()

		return &TargetSpec{
			raw:    trimmed,
			base:   binary.BigEndian.Uint32(v4),
			count:  uint64(1) << (32 - ones),
			isCIDR: true,
		}, nil
	}

	if net.ParseIP(trimmed) == nil && !plausibleHostname(trimmed) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTarget, trimmed)
	}

	return &TargetSpec{raw: trimmed, host: trimmed, count: 1}, nil
}

// plausibleHostname checks DNS label shape only; whether the name resolves is
// discovered at dial time.
func plausibleHostname(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if host == "" || len(host) > 253 {
		return false
	}

	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}

		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}

		for i := 0; i < len(label); i++ {
			c := label[i]

			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			default:
				return false
			}
		}
	}

	return true
}

// Count returns how many hosts the spec expands to. A CIDR block counts all
// of its addresses, network and broadcast included; /32 counts one.
func (s *TargetSpec) Count() uint64 {
	return s.count
}

// IsCIDR reports whether the spec was given as a block rather than a single host.
func (s *TargetSpec) IsCIDR() bool {
	return s.isCIDR
}

func (s *TargetSpec) String() string {
	return s.raw
}

// Hosts returns a fresh iterator over the spec's hosts in ascending address
// order. Iterators are independent and each starts from the first address.
func (s *TargetSpec) Hosts() *HostIterator {
	return &HostIterator{spec: s}
}

// HostIterator walks a TargetSpec lazily.
type HostIterator struct {
	spec *TargetSpec
	next uint64
}

// Next returns the following host, or ok=false once the spec is exhausted.
func (it *HostIterator) Next() (host string, ok bool) {
	if it.next >= it.spec.count {
		return "", false
	}

	idx := it.next
	it.next++

	if !it.spec.isCIDR {
		return it.spec.host, true
	}

	return ipFromUint32(it.spec.base + uint32(idx)), true
}

// Reset rewinds the iterator to the first address.
func (it *HostIterator) Reset() {
	it.next = 0
}

func ipFromUint32(v uint32) string {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, v)

	return ip.String()
}
