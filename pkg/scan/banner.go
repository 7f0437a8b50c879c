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
	"bufio"
	"net"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	bannerReadBytes = 1024
	bannerMaxLen    = 100

	httpProbeRequest = "HEAD / HTTP/1.0\r\n\r\n"
)

// grabBanner reads a service banner from an already-established connection.
// HTTP-family ports get a request written first; other services are expected
// to greet on their own. Any failure leaves the banner empty; the port's
// state is settled before this runs and is never revisited.
func grabBanner(conn net.Conn, port int, deadline time.Time) string {
	if err := conn.SetDeadline(deadline); err != nil {
		return ""
	}

	if httpLikePorts[port] {
		if _, err := conn.Write([]byte(httpProbeRequest)); err != nil {
			return ""
		}
	}

	reader := bufio.NewReaderSize(conn, bannerReadBytes)

	// A partial line cut off by the deadline still counts; some services
	// greet without a trailing newline.
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}

	return sanitizeBanner(line)
}

// sanitizeBanner strips control characters and caps the stored length.
func sanitizeBanner(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}

		return r
	}, raw)

	cleaned = strings.TrimSpace(cleaned)

	if utf8.RuneCountInString(cleaned) > bannerMaxLen {
		cleaned = string([]rune(cleaned)[:bannerMaxLen])
	}

	return cleaned
}
