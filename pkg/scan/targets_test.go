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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectHosts(t *testing.T, spec *TargetSpec, limit int) []string {
	t.Helper()

	var hosts []string

	it := spec.Hosts()

	for host, ok := it.Next(); ok; host, ok = it.Next() {
		hosts = append(hosts, host)
		if len(hosts) >= limit {
			break
		}
	}

	return hosts
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantErr   bool
		wantCIDR  bool
		wantCount uint64
		wantHosts []string
	}{
		{
			name:      "single ip",
			spec:      "192.168.1.10",
			wantCount: 1,
			wantHosts: []string{"192.168.1.10"},
		},
		{
			name:      "hostname passes through",
			spec:      "scanme.example.org",
			wantCount: 1,
			wantHosts: []string{"scanme.example.org"},
		},
		{
			name:      "ipv6 literal as single host",
			spec:      "::1",
			wantCount: 1,
			wantHosts: []string{"::1"},
		},
		{
			name:      "slash 32 yields exactly one",
			spec:      "10.0.0.7/32",
			wantCIDR:  true,
			wantCount: 1,
			wantHosts: []string{"10.0.0.7"},
		},
		{
			name:      "slash 30 includes network and broadcast",
			spec:      "192.168.1.0/30",
			wantCIDR:  true,
			wantCount: 4,
			wantHosts: []string{"192.168.1.0", "192.168.1.1", "192.168.1.2", "192.168.1.3"},
		},
		{
			name:      "host bits masked off",
			spec:      "10.0.0.5/30",
			wantCIDR:  true,
			wantCount: 4,
			wantHosts: []string{"10.0.0.4", "10.0.0.5", "10.0.0.6", "10.0.0.7"},
		},
		{
			name:      "block spans octet boundary",
			spec:      "10.0.0.254/23",
			wantCIDR:  true,
			wantCount: 512,
			wantHosts: []string{"10.0.0.0", "10.0.0.1"},
		},
		{
			name:    "empty spec",
			spec:    "   ",
			wantErr: true,
		},
		{
			name:    "prefix out of range",
			spec:    "10.0.0.0/33",
			wantErr: true,
		},
		{
			name:    "garbage before slash",
			spec:    "abc/24",
			wantErr: true,
		},
		{
			name:    "ipv6 block rejected",
			spec:    "2001:db8::/64",
			wantErr: true,
		},
		{
			name:    "whitespace inside host",
			spec:    "10.0.0.1 extra",
			wantErr: true,
		},
		{
			name:    "illegal hostname characters",
			spec:    "bad!host",
			wantErr: true,
		},
		{
			name:    "underscore in hostname",
			spec:    "my_host.example.org",
			wantErr: true,
		},
		{
			name:    "label starts with hyphen",
			spec:    "-leading.example.org",
			wantErr: true,
		},
		{
			name:    "empty label",
			spec:    "a..b",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseTarget(tt.spec)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTarget)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCIDR, spec.IsCIDR())
			assert.Equal(t, tt.wantCount, spec.Count())

			hosts := collectHosts(t, spec, len(tt.wantHosts))
			assert.Equal(t, tt.wantHosts, hosts)
		})
	}
}

func TestTargetSpecCountIsArithmetic(t *testing.T) {
	// A /8 must report its size without walking 16M addresses.
	spec, err := ParseTarget("10.0.0.0/8")
	require.NoError(t, err)

	assert.Equal(t, uint64(1)<<24, spec.Count())

	// The first addresses come out immediately.
	hosts := collectHosts(t, spec, 3)
	assert.Equal(t, []string{"10.0.0.0", "10.0.0.1", "10.0.0.2"}, hosts)
}

func TestHostIteratorsAreIndependent(t *testing.T) {
	spec, err := ParseTarget("172.16.0.0/30")
	require.NoError(t, err)

	first := spec.Hosts()
	second := spec.Hosts()

	a, ok := first.Next()
	require.True(t, ok)

	b, ok := first.Next()
	require.True(t, ok)

	// The second iterator still starts at the block's first address.
	c, ok := second.Next()
	require.True(t, ok)

	assert.Equal(t, "172.16.0.0", a)
	assert.Equal(t, "172.16.0.1", b)
	assert.Equal(t, "172.16.0.0", c)
}

func TestHostIteratorReset(t *testing.T) {
	spec, err := ParseTarget("192.0.2.0/31")
	require.NoError(t, err)

	it := spec.Hosts()

	for _, ok := it.Next(); ok; _, ok = it.Next() {
	}

	_, ok := it.Next()
	assert.False(t, ok)

	it.Reset()

	host, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "192.0.2.0", host)
}

func TestTargetSpecString(t *testing.T) {
	spec, err := ParseTarget("  10.1.0.0/16 ")
	require.NoError(t, err)

	assert.Equal(t, "10.1.0.0/16", spec.String())
	assert.Equal(t, uint64(65536), spec.Count())
}

func TestPlausibleHostname(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"localhost", true},
		{"scanme.example.org", true},
		{"fqdn.example.org.", true},
		{"host-with-hyphens.example.org", true},
		{"0db8.example.org", true},
		{"", false},
		{"a..b", false},
		{"-lead.example.org", false},
		{"trail-.example.org", false},
		{"under_score", false},
		{"spaced host", false},
		{strings.Repeat("a", 64) + ".example.org", false},
		{strings.Repeat("a", 63) + ".example.org", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, plausibleHostname(tt.host), "host %q", tt.host)
	}
}
