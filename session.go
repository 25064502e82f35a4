// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Session owns the one long-lived Kafka client of a run.
//
// Thread Safety: Send, SendWithAck, Flush and BufferedRecords are safe for
// concurrent use.  Open and Close are serialized internally, but Close should
// only be called once every caller has finished sending.
type Session struct {
	// Config is the parsed configuration.  Required.
	Config Config

	// Brokers overrides Config.Brokers, typically with the result of
	// ResolveBrokers.  Optional.
	Brokers []string

	// Logger is the logger instance (same interface as franz-go).
	// Optional. If nil, a no-op logger will be used.
	Logger kgo.Logger

	// logger is the actively used logger instance (never nil after Open).
	logger kgo.Logger

	// clientFactory creates Kafka clients, overridden for mocking in tests.
	clientFactory clientFactory

	// clientMu protects the client field during Open/Close operations.
	clientMu sync.Mutex

	// client is initialized in Open and closed in Close.
	client kafkaClient
}

// Open validates the configuration and creates the Kafka client.
//
// Returns an error if:
//   - Configuration is invalid (ErrConfiguration)
//   - TLS or SASL material cannot be loaded (ErrConfiguration)
//   - The client rejects the options (ErrConfiguration)
//   - Already open (ErrAlreadyOpen)
func (s *Session) Open() error {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if s.client != nil {
		return ErrAlreadyOpen
	}

	if s.clientFactory == nil {
		s.clientFactory = defaultClientFactory
	}
	s.logger = orNop(s.Logger)

	if err := s.Config.validate(); err != nil {
		return err
	}

	opts, err := s.toKgoOpts()
	if err != nil {
		return err
	}

	client, err := s.clientFactory(opts...)
	if err != nil {
		// kgo.NewClient does not dial, so a failure here is a bad option.
		return errors.Join(ErrConfiguration, fmt.Errorf("failed to create Kafka client: %w", err))
	}

	s.client = client
	s.logger.Log(kgo.LogLevelInfo, "producer session opened",
		"brokers", s.brokers(), "acks", s.Config.Acks.String())

	return nil
}

// Close flushes buffered records and closes the client.  Blocks until the
// records are sent or the flush times out.  Safe to call multiple times.
func (s *Session) Close(ctx context.Context) {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()

	if s.client == nil {
		return
	}

	s.logger.Log(kgo.LogLevelInfo, "closing producer session, flushing buffered records")

	// CleanupTimeout only applies when the caller's context has no deadline.
	if s.Config.CleanupTimeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.Config.CleanupTimeout)
			defer cancel()
		}
	}

	if err := s.client.Flush(ctx); err != nil {
		s.logger.Log(kgo.LogLevelWarn, "flush incomplete during shutdown", "error", err.Error())
	}

	s.client.Close()
	s.client = nil

	s.logger.Log(kgo.LogLevelInfo, "producer session closed")
}

// Send hands r to the client without waiting for any outcome.  Delivery
// errors reported later are only logged.
func (s *Session) Send(ctx context.Context, r *kgo.Record) error {
	client := s.currentClient()
	if client == nil {
		return ErrNotOpen
	}

	logger := s.logger
	client.Produce(ctx, r, func(r *kgo.Record, err error) {
		if err != nil {
			logger.Log(kgo.LogLevelDebug, "fire-and-forget record failed",
				"topic", r.Topic, "error", err.Error())
		}
	})
	return nil
}

// SendWithAck hands r to the client.  onComplete is invoked exactly once,
// from a client goroutine, with the delivery outcome.  If the session is not
// open, ErrNotOpen is returned and onComplete is never invoked.
func (s *Session) SendWithAck(ctx context.Context, r *kgo.Record, onComplete func(DeliveryOutcome)) error {
	client := s.currentClient()
	if client == nil {
		return ErrNotOpen
	}

	client.Produce(ctx, r, func(r *kgo.Record, err error) {
		onComplete(newDeliveryOutcome(r, err))
	})
	return nil
}

// Flush waits until every buffered record has been sent or ctx ends.
func (s *Session) Flush(ctx context.Context) error {
	client := s.currentClient()
	if client == nil {
		return ErrNotOpen
	}
	return client.Flush(ctx)
}

// BufferedRecords returns the number of records and bytes currently
// buffered by the client.  Returns zeros if the session is not open.
func (s *Session) BufferedRecords() (records, bytes int64) {
	client := s.currentClient()
	if client == nil {
		return 0, 0
	}
	return client.BufferedProduceRecords(), client.BufferedProduceBytes()
}

func (s *Session) currentClient() kafkaClient {
	s.clientMu.Lock()
	defer s.clientMu.Unlock()
	return s.client
}

func (s *Session) brokers() []string {
	if len(s.Brokers) > 0 {
		return s.Brokers
	}
	return s.Config.Brokers
}

// toKgoOpts converts the session's configuration to franz-go client options.
// Passthrough options come last so they override the typed ones.
func (s *Session) toKgoOpts() ([]kgo.Opt, error) {
	cfg := &s.Config

	brokers := s.brokers()
	if len(brokers) == 0 {
		return nil, errors.Join(ErrConfiguration, fmt.Errorf("no brokers to connect to"))
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.WithLogger(s.logger),
		kgo.RequiredAcks(cfg.Acks.kgoAcks()),
		kgo.ProducerBatchCompression(cfg.CompressionCodec.kgoCodec()),
	}

	// Idempotent writes require acks=all.
	if cfg.Acks != AckAll {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}

	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	if cfg.Linger > 0 {
		opts = append(opts, kgo.ProducerLinger(cfg.Linger))
	}

	opts = append(opts, kgo.ProducerBatchMaxBytes(cfg.BatchMaxBytes))

	if cfg.MaxBufferedBytes > 0 {
		opts = append(opts, kgo.MaxBufferedBytes(cfg.MaxBufferedBytes))
	}

	if cfg.MaxBufferedRecords > 0 {
		opts = append(opts, kgo.MaxBufferedRecords(cfg.MaxBufferedRecords))
	}

	if cfg.RequestTimeout > 0 {
		opts = append(opts, kgo.RequestTimeoutOverhead(cfg.RequestTimeout))
	}

	if cfg.Retries > 0 {
		opts = append(opts, kgo.RecordRetries(cfg.Retries))
	}

	tlsCfg, err := cfg.Security.tlsConfig()
	if err != nil {
		return nil, err
	}

	if !socketBuffersSupported && (cfg.SendBufferBytes > 0 || cfg.ReceiveBufferBytes > 0) {
		s.logger.Log(kgo.LogLevelWarn, "socket buffer sizes are not supported on this platform, using OS defaults")
	}

	if dial := newDialFunc(cfg.SendBufferBytes, cfg.ReceiveBufferBytes, tlsCfg); dial != nil {
		opts = append(opts, kgo.Dialer(dial))
	} else if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}

	mechanism, err := cfg.Security.mechanism()
	if err != nil {
		return nil, err
	}
	if mechanism != nil {
		opts = append(opts, kgo.SASL(mechanism))
	}

	pass, unknown, err := passthroughOpts(cfg.Passthrough)
	if err != nil {
		return nil, err
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		s.logger.Log(kgo.LogLevelWarn, "ignoring unsupported passthrough option", "option", name)
	}
	opts = append(opts, pass...)

	return opts, nil
}
