// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xmidt-org/kafkasampler"
)

// sampler is the part of *kafkasampler.Sampler the runner drives.
type sampler interface {
	Sample(ctx context.Context, vars kafkasampler.Variables) *kafkasampler.SampleResult
}

var _ sampler = (*kafkasampler.Sampler)(nil)

// runner drives virtual users against one sampler.
type runner struct {
	sampler sampler
	run     *RunFile

	// valueVariable and keyVariable name the variables the sampler reads.
	valueVariable string
	keyVariable   string

	// newKey generates random keys; overridden in tests.
	newKey func() string

	mu          sync.Mutex
	latencies   []time.Duration
	failures    int
	interrupted int
}

func newRunner(s sampler, run *RunFile, cfg kafkasampler.Config) *runner {
	return &runner{
		sampler:       s,
		run:           run,
		valueVariable: cfg.ValueVariable,
		keyVariable:   cfg.KeyVariable,
		newKey:        uuid.NewString,
	}
}

// start runs every virtual user and waits for them.  Users stop after their
// iterations or when ctx ends.
func (r *runner) start(ctx context.Context, active func(delta float64)) {
	if r.run.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.run.Duration)
		defer cancel()
	}

	var wg sync.WaitGroup
	for u := 0; u < r.run.Users; u++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if active != nil {
				active(1)
				defer active(-1)
			}
			r.user(ctx)
		}()
	}
	wg.Wait()
}

func (r *runner) user(ctx context.Context) {
	value := ""
	if r.run.MessageSize > 0 {
		value = strings.Repeat("x", r.run.MessageSize)
	}

	for i := 0; r.run.Iterations == 0 || i < r.run.Iterations; i++ {
		if ctx.Err() != nil {
			return
		}

		res := r.sampler.Sample(ctx, r.variables(value))
		r.record(res)
	}
}

// variables builds one iteration's variables.
func (r *runner) variables(generated string) kafkasampler.Vars {
	vars := make(kafkasampler.Vars, len(r.run.Variables)+2)
	for k, v := range r.run.Variables {
		vars[k] = v
	}
	if _, ok := vars[r.valueVariable]; !ok && generated != "" {
		vars[r.valueVariable] = generated
	}
	if r.run.RandomKey {
		vars[r.keyVariable] = r.newKey()
	}
	return vars
}

func (r *runner) record(res *kafkasampler.SampleResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !res.Success {
		// Samples cut short by the end of the run are not failures.
		if errors.Is(res.Err, kafkasampler.ErrInterrupted) {
			r.interrupted++
		} else {
			r.failures++
		}
		return
	}
	r.latencies = append(r.latencies, res.Elapsed())
}

// summary is the end of run report.  Samples counts every sample,
// including Failures and Interrupted.
type summary struct {
	Samples     int
	Failures    int
	Interrupted int
	P50         time.Duration
	P99         time.Duration
	Max         time.Duration
}

func (r *runner) summary() summary {
	r.mu.Lock()
	latencies := append([]time.Duration(nil), r.latencies...)
	failures, interrupted := r.failures, r.interrupted
	r.mu.Unlock()

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	s := summary{
		Samples:     len(latencies) + failures + interrupted,
		Failures:    failures,
		Interrupted: interrupted,
	}
	if len(latencies) > 0 {
		s.P50 = quantile(latencies, 0.5)
		s.P99 = quantile(latencies, 0.99)
		s.Max = latencies[len(latencies)-1]
	}
	return s
}

// quantile returns the q quantile of sorted, which must not be empty.
func quantile(sorted []time.Duration, q float64) time.Duration {
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
