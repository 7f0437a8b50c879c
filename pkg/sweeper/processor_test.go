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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calverix/portscan/pkg/models"
)

func probeResult(host string, port int, state models.PortState) *models.ProbeResult {
	return &models.ProbeResult{
		Target:  models.Target{Host: host, Port: port},
		State:   state,
		Checked: time.Now(),
	}
}

func TestProcessorAggregation(t *testing.T) {
	p := NewProcessor()

	// Completion order is scrambled on purpose; the summary imposes order.
	p.Process(probeResult("10.0.0.2", 443, models.StateOpen))
	p.Process(probeResult("10.0.0.10", 8080, models.StateOpen))
	p.Process(probeResult("10.0.0.2", 22, models.StateOpen))
	p.Process(probeResult("10.0.0.2", 23, models.StateClosed))
	p.Process(probeResult("10.0.0.10", 22, models.StateFiltered))
	p.Process(probeResult("10.0.0.5", 80, models.StateClosed))
	p.Process(probeResult("10.0.0.5", 443, models.StateError))

	summary := p.Summary("scan-1", "10.0.0.0/28", time.Now(), time.Second)

	assert.Equal(t, 7, summary.TotalProbes)
	assert.Equal(t, 3, summary.OpenPorts)
	assert.Equal(t, 2, summary.ClosedPorts)
	assert.Equal(t, 1, summary.FilteredPorts)
	assert.Equal(t, 1, summary.ErrorPorts)

	// 10.0.0.5 answered but has nothing open, so it carries no host entry.
	assert.Equal(t, 2, summary.AvailableHosts)
	require.Len(t, summary.Hosts, 2)

	// Numeric address order: .2 ahead of .10 despite lexical order.
	assert.Equal(t, "10.0.0.2", summary.Hosts[0].Host)
	assert.Equal(t, "10.0.0.10", summary.Hosts[1].Host)

	require.Len(t, summary.Hosts[0].OpenPorts, 2)
	assert.Equal(t, 22, summary.Hosts[0].OpenPorts[0].Port)
	assert.Equal(t, 443, summary.Hosts[0].OpenPorts[1].Port)

	require.Len(t, summary.Hosts[1].OpenPorts, 1)
	assert.Equal(t, 8080, summary.Hosts[1].OpenPorts[0].Port)
}

func TestProcessorCarriesPortDetails(t *testing.T) {
	p := NewProcessor()

	result := probeResult("192.168.1.1", 22, models.StateOpen)
	result.Service = "ssh"
	result.Banner = "SSH-2.0-OpenSSH_9.6"
	result.RespTime = 12 * time.Millisecond

	p.Process(result)

	summary := p.Summary("scan-1", "192.168.1.1", time.Now(), time.Second)

	require.Len(t, summary.Hosts, 1)
	require.Len(t, summary.Hosts[0].OpenPorts, 1)

	detail := summary.Hosts[0].OpenPorts[0]
	assert.Equal(t, "ssh", detail.Service)
	assert.Equal(t, "SSH-2.0-OpenSSH_9.6", detail.Banner)
	assert.Equal(t, 12*time.Millisecond, detail.RespTime)
}

func TestProcessorEmptySummary(t *testing.T) {
	p := NewProcessor()

	summary := p.Summary("scan-1", "10.0.0.1", time.Now(), 0)

	assert.Equal(t, 0, summary.TotalProbes)
	assert.Equal(t, 0, summary.OpenPorts)
	assert.Equal(t, 0, summary.AvailableHosts)
	assert.Empty(t, summary.Hosts)
}

func TestProcessorConcurrentProcess(t *testing.T) {
	p := NewProcessor()

	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)

		go func(base int) {
			defer wg.Done()

			for i := 0; i < 50; i++ {
				p.Process(probeResult("10.0.0.1", base*100+i+1, models.StateOpen))
			}
		}(w)
	}

	wg.Wait()

	summary := p.Summary("scan-1", "10.0.0.1", time.Now(), time.Second)

	assert.Equal(t, 400, summary.TotalProbes)
	assert.Equal(t, 400, summary.OpenPorts)
	require.Len(t, summary.Hosts, 1)
	assert.Len(t, summary.Hosts[0].OpenPorts, 400)
}

func TestHostLess(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{
			name:     "numeric not lexical",
			a:        "10.0.0.2",
			b:        "10.0.0.10",
			expected: true,
		},
		{
			name:     "reverse numeric",
			a:        "10.0.0.10",
			b:        "10.0.0.2",
			expected: false,
		},
		{
			name:     "across octets",
			a:        "10.0.1.255",
			b:        "10.0.2.0",
			expected: true,
		},
		{
			name:     "address ahead of hostname",
			a:        "192.168.1.1",
			b:        "db.example.com",
			expected: true,
		},
		{
			name:     "hostname behind address",
			a:        "db.example.com",
			b:        "192.168.1.1",
			expected: false,
		},
		{
			name:     "hostnames lexical",
			a:        "app.example.com",
			b:        "db.example.com",
			expected: true,
		},
		{
			name:     "equal is not less",
			a:        "10.0.0.1",
			b:        "10.0.0.1",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, hostLess(tt.a, tt.b))
		})
	}
}
