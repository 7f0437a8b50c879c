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

// Command portscan probes TCP ports across a host or an IPv4 block and
// reports what answers. Results stream to stdout as they arrive; logs stay
// on stderr so the two can be piped apart.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calverix/portscan/pkg/logger"
	"github.com/calverix/portscan/pkg/models"
	"github.com/calverix/portscan/pkg/output"
	"github.com/calverix/portscan/pkg/scan"
	"github.com/calverix/portscan/pkg/sweeper"
)

type cliConfig struct {
	scan     models.Config
	jsonPath string
	openOnly bool
	logLevel string
	logFile  string
	debug    bool
}

func main() {
	cfg := parseFlags()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "portscan: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func parseFlags() *cliConfig {
	var (
		target    = flag.String("target", "", "IP address, hostname, or IPv4 CIDR block to scan")
		ports     = flag.String("ports", "", "port spec: \"80\", \"1-1024\", \"22,80,8000-8100\" (default: common ports)")
		threads   = flag.Int("threads", models.DefaultConcurrency, "concurrent probe workers")
		timeout   = flag.Duration("timeout", models.DefaultTimeout, "per-probe connect timeout")
		rateLimit = flag.Int("rate", 0, "connection attempts per second across all workers (0 for unlimited)")
		noBanner  = flag.Bool("no-banner", false, "skip banner grabbing on open ports")
		jsonPath  = flag.String("json", "", "write results as JSON lines to this file")
		openOnly  = flag.Bool("open-only", false, "restrict the JSON file to open ports")
		logLevel  = flag.String("log-level", "", "log level (trace, debug, info, warn, error)")
		logFile   = flag.String("log-file", "", "tee structured logs to this file")
		debug     = flag.Bool("debug", false, "shorthand for -log-level debug")
	)

	flag.Parse()

	if *target == "" {
		fmt.Fprintln(os.Stderr, "portscan: -target is required")
		flag.Usage()
		os.Exit(2)
	}

	return &cliConfig{
		scan: models.Config{
			Target:      *target,
			Ports:       *ports,
			Concurrency: *threads,
			Timeout:     *timeout,
			RateLimit:   *rateLimit,
			GrabBanners: !*noBanner,
		},
		jsonPath: *jsonPath,
		openOnly: *openOnly,
		logLevel: *logLevel,
		logFile:  *logFile,
		debug:    *debug,
	}
}

func run(ctx context.Context, cfg *cliConfig) error {
	logCfg := logger.DefaultConfig()
	logCfg.Debug = logCfg.Debug || cfg.debug

	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}

	if cfg.logFile != "" {
		logCfg.File = cfg.logFile
	}

	appLogger, err := logger.NewComponentLogger("portscan", logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	defer func() {
		if closer, ok := appLogger.(io.Closer); ok {
			_ = closer.Close()
		}
	}()

	sinks := []sweeper.Sink{output.NewConsoleSink(os.Stdout)}

	if cfg.jsonPath != "" {
		fileSink, ferr := output.NewFileSink(cfg.jsonPath, cfg.openOnly)
		if ferr != nil {
			return ferr
		}

		sinks = append(sinks, fileSink)
	}

	defer func() {
		for _, sink := range sinks {
			if cerr := sink.Close(); cerr != nil {
				appLogger.Warn().Err(cerr).Msg("Failed to close sink")
			}
		}
	}()

	s, err := sweeper.New(&cfg.scan, sinks, appLogger)
	if err != nil {
		return err
	}

	started := time.Now()

	summary, err := s.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	output.PrintSummary(os.Stdout, summary)

	if cfg.jsonPath != "" {
		appLogger.Info().
			Str("path", cfg.jsonPath).
			Dur("elapsed", time.Since(started)).
			Msg("Results written")
	}

	return nil
}

// exitCode separates bad invocations from scans that failed underway, the
// same split the shell conventions expect: 2 for usage, 1 for failure.
func exitCode(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidConfig),
		errors.Is(err, scan.ErrInvalidTarget),
		errors.Is(err, scan.ErrInvalidPortSpec):
		return 2
	default:
		return 1
	}
}
