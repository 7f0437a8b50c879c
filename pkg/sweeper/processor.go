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

package sweeper

import (
	"bytes"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/calverix/portscan/pkg/models"
)

// Processor aggregates probe results into the session summary. Results
// arrive in no particular order; presentation order is imposed here.
type Processor struct {
	mu     sync.Mutex
	hosts  map[string]*models.HostResult
	counts map[models.PortState]int
	probed int
}

func NewProcessor() *Processor {
	return &Processor{
		hosts:  make(map[string]*models.HostResult),
		counts: make(map[models.PortState]int),
	}
}

// Process folds one result into the aggregate. Only hosts with at least one
// open port get a HostResult; every state is counted.
func (p *Processor) Process(result *models.ProbeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.probed++
	p.counts[result.State]++

	if result.State != models.StateOpen {
		return
	}

	host, ok := p.hosts[result.Target.Host]
	if !ok {
		host = &models.HostResult{
			Host:      result.Target.Host,
			Available: true,
		}
		p.hosts[result.Target.Host] = host
	}

	host.OpenPorts = append(host.OpenPorts, models.PortDetail{
		Port:     result.Target.Port,
		Service:  result.Service,
		Banner:   result.Banner,
		RespTime: result.RespTime,
	})
}

// Summary assembles the final report. Hosts come out in address order and
// each host's open ports ascend, regardless of probe completion order.
func (p *Processor) Summary(scanID, target string, startedAt time.Time, duration time.Duration) *models.ScanSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	hosts := make([]models.HostResult, 0, len(p.hosts))

	for _, host := range p.hosts {
		sort.Slice(host.OpenPorts, func(i, j int) bool {
			return host.OpenPorts[i].Port < host.OpenPorts[j].Port
		})

		hosts = append(hosts, *host)
	}

	sort.Slice(hosts, func(i, j int) bool {
		return hostLess(hosts[i].Host, hosts[j].Host)
	})

	return &models.ScanSummary{
		ScanID:         scanID,
		Target:         target,
		StartedAt:      startedAt,
		Duration:       duration,
		TotalProbes:    p.probed,
		OpenPorts:      p.counts[models.StateOpen],
		ClosedPorts:    p.counts[models.StateClosed],
		FilteredPorts:  p.counts[models.StateFiltered],
		ErrorPorts:     p.counts[models.StateError],
		AvailableHosts: len(p.hosts),
		Hosts:          hosts,
	}
}

// hostLess orders IP addresses numerically and falls back to lexical order
// for hostnames, with addresses ahead of names.
func hostLess(a, b string) bool {
	ipA := net.ParseIP(a)
	ipB := net.ParseIP(b)

	switch {
	case ipA != nil && ipB != nil:
		return bytes.Compare(ipA.To16(), ipB.To16()) < 0
	case ipA != nil:
		return true
	case ipB != nil:
		return false
	default:
		return a < b
	}
}
