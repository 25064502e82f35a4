// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/eventor"
)

type samplerState int

const (
	stateOpen samplerState = iota
	stateReady
	stateClosed
)

// Option configures a Sampler built by NewSampler.
type Option func(*Sampler)

// WithLogger sets the logger used by the sampler, the Kafka client and the
// ZooKeeper lookup.
func WithLogger(l kgo.Logger) Option {
	return func(s *Sampler) {
		s.Logger = l
	}
}

// WithSampleEventListener registers fn when Setup is called.  May be given
// more than once.
func WithSampleEventListener(fn func(*SampleEvent)) Option {
	return func(s *Sampler) {
		s.InitialSampleEventListeners = append(s.InitialSampleEventListeners, fn)
	}
}

// NewSampler creates a Sampler for params.  Nothing is validated or
// connected until Setup.
func NewSampler(params Parameters, opts ...Option) *Sampler {
	s := Sampler{
		Parameters: params,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return &s
}

// Sampler sends one Kafka record per Sample call and reports the result.
//
// Thread Safety: Sample is safe for concurrent use by any number of
// goroutines.  Setup and Teardown are serialized; Teardown waits for
// in-flight samples before closing the client.
type Sampler struct {
	// Parameters is the configuration.  It is read once by Setup.
	Parameters Parameters

	// Logger is the logger instance (same interface as franz-go).
	// Optional. If nil, a no-op logger will be used.
	Logger kgo.Logger

	// InitialSampleEventListeners are registered when Setup is called.
	// For dynamic listener management use AddSampleEventListener.
	// Optional.
	InitialSampleEventListeners []func(*SampleEvent)

	// --- INTERNAL FIELDS (not for user configuration) ---

	logger kgo.Logger

	// clientFactory and zkDialer are testing hooks.
	clientFactory clientFactory
	zkDialer      zkDialer

	// mu protects the lifecycle fields below.  inflight is new for every
	// Setup.
	mu       sync.RWMutex
	state    samplerState
	config   Config
	session  *Session
	tracker  *Tracker
	builder  *recordBuilder
	inflight *sync.WaitGroup

	sampleEventListeners         eventor.Eventor[func(*SampleEvent)]
	registerInitialListenersOnce sync.Once
}

// AddSampleEventListener adds a listener called once per Sample with the
// result of that iteration.  Listeners are called from the sampling
// goroutines and must be thread-safe.  The returned function removes the
// listener.
func (s *Sampler) AddSampleEventListener(fn func(*SampleEvent)) func() {
	return s.sampleEventListeners.Add(fn)
}

// Config returns the parsed configuration.  Only meaningful after Setup.
func (s *Sampler) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Setup parses the parameters, resolves the brokers and opens the producer
// session.  A sampler that was torn down may be set up again.
//
// Returns an error if:
//   - Parameters are invalid (ErrConfiguration)
//   - The client rejects the options (ErrConfiguration)
//   - Already set up (ErrAlreadyOpen)
func (s *Sampler) Setup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateReady {
		return ErrAlreadyOpen
	}

	s.logger = orNop(s.Logger)

	s.registerInitialListenersOnce.Do(func() {
		for _, fn := range s.InitialSampleEventListeners {
			if fn != nil {
				s.sampleEventListeners.Add(fn)
			}
		}
	})

	cfg, err := ParseConfig(s.Parameters)
	if err != nil {
		return err
	}

	builder, err := newRecordBuilder(&cfg)
	if err != nil {
		return err
	}

	resolver := Resolver{
		Static:           cfg.Brokers,
		ZooKeeperServers: cfg.ZooKeeperServers,
		Logger:           s.logger,
		dial:             s.zkDialer,
	}

	session := &Session{
		Config:        cfg,
		Brokers:       resolver.Resolve(ctx),
		Logger:        s.logger,
		clientFactory: s.clientFactory,
	}
	if err := session.Open(); err != nil {
		return err
	}

	s.config = cfg
	s.session = session
	s.builder = builder
	s.inflight = &sync.WaitGroup{}
	s.tracker = &Tracker{
		Sender:              session,
		Acks:                cfg.Acks,
		AckTimeout:          cfg.AckTimeout,
		FlushAfterSend:      cfg.FlushAfterSend,
		LegacyHoldOnFailure: cfg.LegacyHoldOnFailure,
		Logger:              s.logger,
	}
	s.state = stateReady

	return nil
}

// Teardown stops accepting samples, waits for in-flight samples (or for ctx
// to end) and closes the session.  Safe to call multiple times.
func (s *Sampler) Teardown(ctx context.Context) {
	s.mu.Lock()
	if s.state != stateReady {
		s.mu.Unlock()
		return
	}
	s.state = stateClosed
	session, inflight := s.session, s.inflight
	s.session, s.tracker, s.builder, s.inflight = nil, nil, nil, nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Log(kgo.LogLevelWarn, "closing with samples still in flight", "error", ctx.Err().Error())
	}

	session.Close(ctx)
}

// Sample runs one iteration: build the record from vars, send it and, unless
// acks is 0, wait for the acknowledgment.  Errors never escape; they are
// reported in the returned result.
func (s *Sampler) Sample(ctx context.Context, vars Variables) (res *SampleResult) {
	res = &SampleResult{}
	res.Begin()

	s.mu.RLock()
	state, builder, tracker, logger, inflight := s.state, s.builder, s.tracker, s.logger, s.inflight
	if state == stateReady {
		inflight.Add(1)
	}
	s.mu.RUnlock()

	if state != stateReady {
		res.Finish(false, ErrNotOpen.Error(), ErrNotOpen)
		s.dispatchEvent(res)
		return res
	}

	defer inflight.Done()
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("panic while sampling: %v", p)
			logger.Log(kgo.LogLevelError, "sample panicked", "error", err.Error())
			res.Finish(false, err.Error(), err)
		}
		s.dispatchEvent(res)
	}()

	msg, err := builder.build(vars)
	if err != nil {
		payload := err.Error()
		if errors.Is(err, errMissingValue) {
			payload = errMissingValue.Error()
			logger.Log(kgo.LogLevelError, "error while getting message", "error", err.Error())
		}
		res.Finish(false, payload, err)
		return res
	}
	res.Topic = msg.record.Topic

	// Only the send and the wait are measured.
	res.Begin()

	out, err := tracker.Deliver(ctx, msg.record)
	res.Outcome = out.Outcome
	if err != nil {
		res.Finish(false, err.Error(), err)
		return res
	}

	res.RecordSize(msg.size)
	res.Finish(true, msg.value, nil)
	return res
}

// dispatchEvent dispatches a SampleEvent to all registered listeners.
func (s *Sampler) dispatchEvent(res *SampleResult) {
	event := newSampleEvent(res)
	s.sampleEventListeners.Visit(func(listener func(*SampleEvent)) {
		listener(event)
	})
}
