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

import "sort"

// serviceNames maps well-known TCP ports to conventional service names.
// Lookups that miss simply leave the service blank; this is a courtesy
// label, not fingerprinting.
var serviceNames = map[int]string{
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "domain",
	80:    "http",
	110:   "pop3",
	135:   "msrpc",
	139:   "netbios-ssn",
	143:   "imap",
	443:   "https",
	445:   "microsoft-ds",
	993:   "imaps",
	995:   "pop3s",
	1433:  "ms-sql-s",
	3306:  "mysql",
	3389:  "rdp",
	5432:  "postgresql",
	6379:  "redis",
	8000:  "http-alt",
	8080:  "http-alt",
	8443:  "https-alt",
	27017: "mongodb",
}

// httpLikePorts are probed with an HTTP request during banner grabs; servers
// on these ports speak only when spoken to.
var httpLikePorts = map[int]bool{
	80:   true,
	443:  true,
	8000: true,
	8080: true,
	8443: true,
}

// ServiceName returns the conventional name for a TCP port, or "" when unknown.
func ServiceName(port int) string {
	return serviceNames[port]
}

// DefaultPorts returns the curated common-port set, ascending. This is what
// a scan probes when no port spec is given.
func DefaultPorts() []int {
	ports := make([]int, 0, len(serviceNames))
	for p := range serviceNames {
		ports = append(ports, p)
	}

	sort.Ints(ports)

	return ports
}
