// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/kafkasampler"
)

// fakeSampler records the variables of every sample and fails every
// failEvery-th one.
type fakeSampler struct {
	mu        sync.Mutex
	vars      []kafkasampler.Vars
	calls     atomic.Int64
	failEvery int64
	delay     time.Duration
}

func (f *fakeSampler) Sample(ctx context.Context, vars kafkasampler.Variables) *kafkasampler.SampleResult {
	n := f.calls.Add(1)

	f.mu.Lock()
	f.vars = append(f.vars, vars.(kafkasampler.Vars))
	f.mu.Unlock()

	res := &kafkasampler.SampleResult{}
	res.Begin()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}

	if f.failEvery > 0 && n%f.failEvery == 0 {
		res.Finish(false, "failed", errors.Join(kafkasampler.ErrSend, errors.New("boom")))
		return res
	}
	res.Finish(true, "ok", nil)
	return res
}

func testConfig() kafkasampler.Config {
	return kafkasampler.Config{ValueVariable: "MESSAGE", KeyVariable: "KEY"}
}

func TestRunner_Iterations(t *testing.T) {
	t.Parallel()

	f := &fakeSampler{failEvery: 5}
	r := newRunner(f, &RunFile{Users: 4, Iterations: 10}, testConfig())

	var active atomic.Int64
	var peak atomic.Int64
	r.start(context.Background(), func(delta float64) {
		n := active.Add(int64(delta))
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
	})

	assert.Equal(t, int64(40), f.calls.Load())
	assert.Equal(t, int64(0), active.Load())
	assert.LessOrEqual(t, peak.Load(), int64(4))

	sum := r.summary()
	assert.Equal(t, 40, sum.Samples)
	assert.Equal(t, 8, sum.Failures)
}

func TestRunner_Duration(t *testing.T) {
	t.Parallel()

	f := &fakeSampler{delay: time.Millisecond}
	r := newRunner(f, &RunFile{Users: 2, Duration: 50 * time.Millisecond}, testConfig())

	done := make(chan struct{})
	go func() {
		r.start(context.Background(), nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after its duration")
	}
	assert.Positive(t, f.calls.Load())
}

func TestRunner_Interrupted(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeSampler{}
	r := newRunner(f, &RunFile{Users: 3, Iterations: 100}, testConfig())
	r.start(ctx, nil)

	assert.Zero(t, f.calls.Load())
	assert.Equal(t, summary{}, r.summary())
}

func TestRunner_Variables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		description string
		run         RunFile
		generated   string
		want        kafkasampler.Vars
	}{
		{
			description: "run file variables copied",
			run:         RunFile{Variables: map[string]string{"MESSAGE": "hello", "OTHER": "x"}},
			want:        kafkasampler.Vars{"MESSAGE": "hello", "OTHER": "x"},
		}, {
			description: "generated value fills a missing value",
			run:         RunFile{Variables: map[string]string{}},
			generated:   "xxxx",
			want:        kafkasampler.Vars{"MESSAGE": "xxxx"},
		}, {
			description: "explicit value wins over generated",
			run:         RunFile{Variables: map[string]string{"MESSAGE": "mine"}},
			generated:   "xxxx",
			want:        kafkasampler.Vars{"MESSAGE": "mine"},
		}, {
			description: "random key",
			run:         RunFile{RandomKey: true},
			want:        kafkasampler.Vars{"KEY": "key-1"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			r := newRunner(&fakeSampler{}, &tc.run, testConfig())
			r.newKey = func() string { return "key-1" }

			assert.Equal(t, tc.want, r.variables(tc.generated))
		})
	}
}

func TestRunner_RandomKeysAndMessageSize(t *testing.T) {
	t.Parallel()

	f := &fakeSampler{}
	r := newRunner(f, &RunFile{Users: 1, Iterations: 3, MessageSize: 16, RandomKey: true}, testConfig())

	var n int
	r.newKey = func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
	r.start(context.Background(), nil)

	require.Len(t, f.vars, 3)
	for i, vars := range f.vars {
		assert.Equal(t, fmt.Sprintf("key-%d", i+1), vars["KEY"])
		assert.Len(t, vars["MESSAGE"], 16)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	r := newRunner(&fakeSampler{}, &RunFile{}, testConfig())
	for i := 100; i >= 1; i-- {
		res := &kafkasampler.SampleResult{Success: true}
		res.Start = time.Unix(0, 0)
		res.End = res.Start.Add(time.Duration(i) * time.Millisecond)
		r.record(res)
	}
	r.record(&kafkasampler.SampleResult{Success: false})
	r.record(&kafkasampler.SampleResult{
		Success: false,
		Err:     errors.Join(kafkasampler.ErrInterrupted, context.Canceled),
	})

	sum := r.summary()
	assert.Equal(t, 102, sum.Samples)
	assert.Equal(t, 1, sum.Failures)
	assert.Equal(t, 1, sum.Interrupted)
	assert.Equal(t, 51*time.Millisecond, sum.P50)
	assert.Equal(t, 100*time.Millisecond, sum.P99)
	assert.Equal(t, 100*time.Millisecond, sum.Max)
}

func TestQuantile(t *testing.T) {
	t.Parallel()

	sorted := []time.Duration{1, 2, 3, 4}

	assert.Equal(t, time.Duration(1), quantile(sorted, 0))
	assert.Equal(t, time.Duration(3), quantile(sorted, 0.5))
	assert.Equal(t, time.Duration(4), quantile(sorted, 0.99))
	assert.Equal(t, time.Duration(4), quantile(sorted, 1))
}
