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

// Package sweeper orchestrates one scan session: it expands the target and
// port specs into a lazy work stream, runs the probe engine over it, fans
// results out to sinks, and assembles the final summary.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/calverix/portscan/pkg/logger"
	"github.com/calverix/portscan/pkg/models"
	"github.com/calverix/portscan/pkg/scan"
)

const (
	// A probe holds one descriptor; leave headroom for logs, sinks and std
	// streams when sizing the pool against RLIMIT_NOFILE.
	fdReserve = 64

	workBufferMultiplier = 2
)

// Sink receives every probe result as it arrives. Writes come from a single
// collector goroutine, one result at a time. Write errors are logged and
// ignored; a broken sink never aborts a scan.
type Sink interface {
	Write(result *models.ProbeResult) error
	Close() error
}

// Sweeper owns a single scan session.
type Sweeper struct {
	config      *models.Config
	targetSpec  *scan.TargetSpec
	ports       []int
	concurrency int
	scanner     scan.Scanner
	sinks       []Sink
	logger      logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New validates the session config, resolves the target and port specs, and
// wires up the probe engine. Spec errors surface here, before any probe is
// scheduled; they unwrap to the scan package's sentinel errors.
func New(config *models.Config, sinks []Sink, log logger.Logger) (*Sweeper, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	targetSpec, err := scan.ParseTarget(config.Target)
	if err != nil {
		return nil, err
	}

	ports, err := scan.ResolvePorts(config.Ports)
	if err != nil {
		return nil, err
	}

	concurrency := clampConcurrency(config.Concurrency, maxOpenFiles(), log)

	prober := scan.NewTCPProber(scan.ProberConfig{
		Timeout:     config.Timeout,
		Concurrency: concurrency,
		GrabBanners: config.GrabBanners,
		RatePerSec:  config.RateLimit,
	}, log)

	return &Sweeper{
		config:      config,
		targetSpec:  targetSpec,
		ports:       ports,
		concurrency: concurrency,
		scanner:     prober,
		sinks:       sinks,
		logger:      log,
	}, nil
}

// clampConcurrency bounds the worker pool. fdLimit of zero means the
// platform limit is unknown and only the hard ceiling applies.
func clampConcurrency(requested, fdLimit int, log logger.Logger) int {
	concurrency := requested
	if concurrency <= 0 {
		concurrency = models.DefaultConcurrency
	}

	if concurrency > models.MaxConcurrency {
		log.Info().
			Int("requested", concurrency).
			Int("clamped", models.MaxConcurrency).
			Msg("Clamped concurrency to prevent resource exhaustion")

		concurrency = models.MaxConcurrency
	}

	if fdLimit > 0 {
		budget := fdLimit - fdReserve
		if budget < 1 {
			budget = 1
		}

		if concurrency > budget {
			log.Info().
				Int("requested", concurrency).
				Int("fdLimit", fdLimit).
				Int("clamped", budget).
				Msg("Clamped concurrency to the descriptor limit")

			concurrency = budget
		}
	}

	return concurrency
}

// Run executes the session until every probe completes or ctx ends.
// Cancellation is graceful: whatever finished stays in the summary and no
// error is returned for it.
func (s *Sweeper) Run(ctx context.Context) (*models.ScanSummary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	scanID := uuid.New().String()
	runLog := s.logger.WithFields(map[string]interface{}{"scan_id": scanID})

	totalProbes := s.targetSpec.Count() * uint64(len(s.ports))

	runLog.Info().
		Str("target", s.targetSpec.String()).
		Uint64("hosts", s.targetSpec.Count()).
		Int("ports", len(s.ports)).
		Uint64("probes", totalProbes).
		Msg("Starting scan")

	start := time.Now()
	processor := NewProcessor()

	g, scanCtx := errgroup.WithContext(runCtx)

	targetCh := make(chan models.Target, s.concurrency*workBufferMultiplier)

	results, err := s.scanner.Scan(scanCtx, targetCh)
	if err != nil {
		return nil, err
	}

	g.Go(func() error {
		defer close(targetCh)

		it := s.targetSpec.Hosts()

		for host, ok := it.Next(); ok; host, ok = it.Next() {
			for _, port := range s.ports {
				select {
				case <-scanCtx.Done():
					return nil
				case targetCh <- models.Target{Host: host, Port: port}:
				}
			}
		}

		return nil
	})

	g.Go(func() error {
		count := 0

		for result := range results {
			count++

			processor.Process(&result)
			s.dispatch(&result)

			if result.State == models.StateOpen {
				runLog.Info().
					Str("host", result.Target.Host).
					Int("port", result.Target.Port).
					Str("service", result.Service).
					Dur("resp_time", result.RespTime).
					Msg("Port open")
			}
		}

		runLog.Debug().Int("results", count).Msg("Result stream drained")

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if runCtx.Err() != nil {
		runLog.Warn().Msg("Scan interrupted; reporting completed probes only")
	}

	summary := processor.Summary(scanID, s.targetSpec.String(), start, time.Since(start))

	runLog.Info().
		Int("probed", summary.TotalProbes).
		Int("open", summary.OpenPorts).
		Int("closed", summary.ClosedPorts).
		Int("filtered", summary.FilteredPorts).
		Int("errors", summary.ErrorPorts).
		Dur("duration", summary.Duration).
		Msg("Scan complete")

	return summary, nil
}

// dispatch hands one result to every sink.
func (s *Sweeper) dispatch(result *models.ProbeResult) {
	for _, sink := range s.sinks {
		if err := sink.Write(result); err != nil {
			s.logger.Warn().Err(err).Str("target", result.Target.Addr()).Msg("Sink write failed")
		}
	}
}

// Stop cancels the in-flight scan, if any. Run then drains and returns a
// summary of whatever completed.
func (s *Sweeper) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	return s.scanner.Stop()
}
