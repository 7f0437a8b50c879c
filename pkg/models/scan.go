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

// Package models provides the data model shared by the scan engine and its sinks.
package models

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// PortState classifies the outcome of a single probe.
type PortState string

const (
	StateOpen   PortState = "open"
	StateClosed PortState = "closed"
	// StateFiltered covers the no-response-before-timeout case. A silent
	// firewall drop and a down host look identical from the outside, so the
	// state is deliberately not split any further.
	StateFiltered PortState = "filtered"
	StateError    PortState = "error"
)

// Target represents one (host, port) pair scheduled for a single probe.
type Target struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns the dialable "host:port" form of the target.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ProbeResult is the outcome of probing a single target. It is created
// exactly once per target by the scan engine and never mutated afterwards.
type ProbeResult struct {
	Target   Target        `json:"target"`
	State    PortState     `json:"state"`
	Service  string        `json:"service,omitempty"`
	Banner   string        `json:"banner,omitempty"`
	RespTime time.Duration `json:"resp_time_ns"`
	Error    string        `json:"error,omitempty"`
	Checked  time.Time     `json:"checked"`
}

// Scan session bounds. The thread ceiling matches what a single host can
// sustain with connect() probes before running into descriptor pressure.
const (
	DefaultConcurrency = 100
	MaxConcurrency     = 1000
	DefaultTimeout     = 1 * time.Second
)

// Config defines a single scan session.
type Config struct {
	Target      string        `json:"target"`
	Ports       string        `json:"ports,omitempty"`
	Concurrency int           `json:"concurrency,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	RateLimit   int           `json:"rate_limit,omitempty"` // probes per second, 0 = unlimited
	GrabBanners bool          `json:"grab_banners,omitempty"`
}

// Validate rejects configurations that cannot produce a scan. Zero values for
// concurrency and timeout are allowed here; constructors fill in defaults.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("%w: no target given", ErrInvalidConfig)
	}

	if c.Concurrency < 0 || c.Concurrency > MaxConcurrency {
		return fmt.Errorf("%w: concurrency %d outside [1,%d]", ErrInvalidConfig, c.Concurrency, MaxConcurrency)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %v", ErrInvalidConfig, c.Timeout)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate limit %d", ErrInvalidConfig, c.RateLimit)
	}

	return nil
}

// PortDetail describes one open port on a host.
type PortDetail struct {
	Port     int           `json:"port"`
	Service  string        `json:"service,omitempty"`
	Banner   string        `json:"banner,omitempty"`
	RespTime time.Duration `json:"resp_time_ns"`
}

// HostResult aggregates the per-port outcomes for a single host.
type HostResult struct {
	Host      string       `json:"host"`
	Available bool         `json:"available"`
	OpenPorts []PortDetail `json:"open_ports,omitempty"`
}

// ScanSummary is the aggregate view of one completed (or cancelled) scan
// session, assembled by the sweeper once the result stream drains.
type ScanSummary struct {
	ScanID         string        `json:"scan_id"`
	Target         string        `json:"target"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	TotalProbes    int           `json:"total_probes"`
	OpenPorts      int           `json:"open_ports"`
	ClosedPorts    int           `json:"closed_ports"`
	FilteredPorts  int           `json:"filtered_ports"`
	ErrorPorts     int           `json:"error_ports"`
	AvailableHosts int           `json:"available_hosts"`
	Hosts          []HostResult  `json:"hosts,omitempty"`
}
