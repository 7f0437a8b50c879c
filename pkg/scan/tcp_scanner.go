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
	"context"
	"errors"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/calverix/portscan/pkg/logger"
	"github.com/calverix/portscan/pkg/models"
)

const (
	defaultConcurrencyMultiplier = 2
)

// ProberConfig bounds a TCPProber's behaviour. Zero values fall back to the
// model defaults.
type ProberConfig struct {
	Timeout     time.Duration
	Concurrency int
	GrabBanners bool
	// RatePerSec caps connection attempts per second across all workers.
	// Zero means unlimited.
	RatePerSec int
}

// TCPProber probes targets with full connect() attempts. One result is
// emitted per target; a probe cut short by cancellation emits nothing.
type TCPProber struct {
	timeout     time.Duration
	concurrency int
	grabBanners bool
	limiter     *rate.Limiter
	cancel      context.CancelFunc
	logger      logger.Logger
}

var _ Scanner = (*TCPProber)(nil)

func NewTCPProber(cfg ProberConfig, log logger.Logger) *TCPProber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = models.DefaultTimeout
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = models.DefaultConcurrency
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}

	return &TCPProber{
		timeout:     cfg.Timeout,
		concurrency: cfg.Concurrency,
		grabBanners: cfg.GrabBanners,
		limiter:     limiter,
		logger:      log,
	}
}

// Scan starts the worker pool against the caller-fed target channel. Probing
// begins as soon as the first target arrives; the caller may keep producing
// while results stream out.
func (p *TCPProber) Scan(ctx context.Context, targets <-chan models.Target) (<-chan models.ProbeResult, error) {
	scanCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	resultCh := make(chan models.ProbeResult, p.concurrency*defaultConcurrencyMultiplier)

	var wg sync.WaitGroup

	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			p.worker(scanCtx, targets, resultCh)
		}()
	}

	go func() {
		wg.Wait()

		close(resultCh)
	}()

	return resultCh, nil
}

func (p *TCPProber) worker(ctx context.Context, targets <-chan models.Target, results chan<- models.ProbeResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-targets:
			if !ok {
				return
			}

			result, emit := p.probe(ctx, t)
			if !emit {
				return
			}

			select {
			case <-ctx.Done():
				return
			case results <- result:
			}
		}
	}
}

// probe dials one target and classifies the outcome. emit is false when the
// scan context ended mid-probe; such probes produce no result at all.
func (p *TCPProber) probe(ctx context.Context, t models.Target) (result models.ProbeResult, emit bool) {
	result = models.ProbeResult{
		Target:  t,
		Service: ServiceName(t.Port),
		Checked: time.Now(),
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return models.ProbeResult{}, false
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	var dialer net.Dialer

	conn, err := dialer.DialContext(probeCtx, "tcp", t.Addr())
	result.RespTime = time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return models.ProbeResult{}, false
		}

		result.State, result.Error = classifyDialError(err)

		return result, true
	}

	defer func(conn net.Conn) {
		if cerr := conn.Close(); cerr != nil {
			p.logger.Debug().Err(cerr).Str("target", t.Addr()).Msg("failed to close connection")
		}
	}(conn)

	result.State = models.StateOpen

	if p.grabBanners {
		// The banner read spends whatever remains of the probe budget.
		result.Banner = grabBanner(conn, t.Port, start.Add(p.timeout))
	}

	return result, true
}

// classifyDialError maps a dial failure onto the port-state taxonomy. An
// active refusal means a reachable host with nothing listening; silence until
// the deadline could be a dropping firewall or a dead host, which the wire
// does not let us tell apart.
func classifyDialError(err error) (models.PortState, string) {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return models.StateClosed, ""
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.StateFiltered, "connect timeout"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.StateFiltered, "connect timeout"
	}

	return models.StateError, dialErrorCause(err)
}

// dialErrorCause strips the net.OpError envelope down to the root cause so
// result rows stay short.
func dialErrorCause(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Err != nil {
		return opErr.Err.Error()
	}

	return err.Error()
}

func (p *TCPProber) Stop() error {
	if p.cancel != nil {
		p.cancel()
	}

	return nil
}
