// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command kafkaload drives a kafkasampler.Sampler with concurrent virtual
// users and reports the results.
//
// Usage:
//
//	kafkaload -config run.yaml -users 50 -duration 5m -metrics-addr :9100
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xmidt-org/kafkasampler"
)

const (
	shutdownTimeout = 5 * time.Second

	// defaultTeardownTimeout bounds the final flush when neither
	// -teardown-timeout nor cleanup.timeout.ms is set.
	defaultTeardownTimeout = 30 * time.Second
)

// Exit codes.
const (
	exitOK          = 0
	exitSetup       = 1
	exitUsage       = 2
	exitSampleFails = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

type options struct {
	config      string
	users       int
	iterations  int
	duration    time.Duration
	metricsAddr string
	logLevel    string
	console     bool

	teardownTimeout time.Duration
}

func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	var o options

	fs := flag.NewFlagSet("kafkaload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.config, "config", "", "Path to the YAML run file")
	fs.IntVar(&o.users, "users", 1, "Number of concurrent virtual users")
	fs.IntVar(&o.iterations, "iterations", 1, "Samples per user (0 runs until -duration passes)")
	fs.DurationVar(&o.duration, "duration", 0, "Maximum run time (0 means no limit)")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level")
	fs.BoolVar(&o.console, "console", true, "Human readable log output")
	fs.DurationVar(&o.teardownTimeout, "teardown-timeout", 0,
		"Maximum time to flush buffered records at the end (0 uses cleanup.timeout.ms, or 30s)")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return &o, set, nil
}

// teardownTimeout picks the bound of the final flush.
func teardownTimeout(flagValue, cleanup time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if cleanup > 0 {
		return cleanup
	}
	return defaultTeardownTimeout
}

// overrideRunFile applies the flags that were given explicitly.
func overrideRunFile(rf *RunFile, o *options, set map[string]bool) {
	if set["users"] {
		rf.Users = o.users
	}
	if set["iterations"] {
		rf.Iterations = o.iterations
	}
	if set["duration"] {
		rf.Duration = o.duration
	}
}

func run(args []string, stderr io.Writer) int {
	o, set, err := parseFlags(args, stderr)
	if err != nil {
		return exitUsage
	}

	logger, err := newLogger(stderr, o.logLevel, o.console)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()

	rf, err := loadRunFile(o.config)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load run file")
		return exitSetup
	}
	overrideRunFile(rf, o, set)
	rf.applyDefaults()
	if err := rf.validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid run file")
		return exitSetup
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := newMetrics()
	if o.metricsAddr != "" {
		srv := serveMetrics(o.metricsAddr, m, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	s := kafkasampler.NewSampler(rf.parameters(),
		kafkasampler.WithLogger(&kgoLogger{logger: logger}),
		kafkasampler.WithSampleEventListener(m.observe),
	)

	if err := s.Setup(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to set up sampler")
		return exitSetup
	}

	logger.Info().
		Int("users", rf.Users).
		Int("iterations", rf.Iterations).
		Dur("duration", rf.Duration).
		Str("acks", s.Config().Acks.String()).
		Strs("topics", s.Config().Topics).
		Msg("Starting load run")

	r := newRunner(s, rf, s.Config())
	started := time.Now()
	r.start(ctx, m.active.Add)
	elapsed := time.Since(started)

	if ctx.Err() != nil {
		logger.Info().Msg("Load run interrupted")
	}

	// A second signal now terminates the process.
	stop()

	timeout := teardownTimeout(o.teardownTimeout, s.Config().CleanupTimeout)
	teardownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.Teardown(teardownCtx)
	if teardownCtx.Err() != nil {
		logger.Warn().Dur("timeout", timeout).Msg("Teardown did not finish flushing in time")
	}

	sum := r.summary()
	logSummary(logger, sum, elapsed)

	if sum.Failures > 0 {
		return exitSampleFails
	}
	return exitOK
}

func serveMetrics(addr string, m *metrics, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return srv
}

func logSummary(logger zerolog.Logger, sum summary, elapsed time.Duration) {
	rate := 0.0
	if elapsed > 0 {
		rate = float64(sum.Samples) / elapsed.Seconds()
	}

	logger.Info().
		Int("samples", sum.Samples).
		Int("failures", sum.Failures).
		Int("interrupted", sum.Interrupted).
		Str("p50", sum.P50.String()).
		Str("p99", sum.P99.String()).
		Str("max", sum.Max.String()).
		Float64("samples_per_sec", rate).
		Dur("elapsed", elapsed).
		Msg("Load run complete")
}
