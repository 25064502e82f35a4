// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Config is the typed form of Parameters.  It is built once by ParseConfig
// and never modified afterwards.
type Config struct {
	// Brokers is the static broker list.  Each address must be in
	// "host:port" format.
	Brokers []string

	// ZooKeeperServers, when set, are asked for the broker list once during
	// Setup.  Brokers is the fallback if the lookup fails.
	ZooKeeperServers []string

	// Topics are the target topics.  More than one requires a TopicShardStrategy.
	Topics []string

	// TopicShardStrategy selects among Topics.
	TopicShardStrategy TopicShardStrategy

	// KeySerializer and ValueSerializer name the serializers for the record
	// key and value.
	KeySerializer   string
	ValueSerializer string

	// CompressionCodec specifies the batch compression algorithm.
	CompressionCodec Compression

	// BatchMaxBytes caps the size of a record batch.
	BatchMaxBytes int32

	// Linger sets the batching delay.  Zero disables lingering.
	Linger time.Duration

	// MaxBufferedBytes and MaxBufferedRecords cap the client buffer.
	// Zero leaves the client default in place.
	MaxBufferedBytes   int
	MaxBufferedRecords int

	// Acks controls broker acknowledgments and whether sends wait.
	Acks AckPolicy

	// AckTimeout bounds the wait for an acknowledgment.  Zero means no bound
	// other than the caller's context.
	AckTimeout time.Duration

	// FlushAfterSend flushes the client right after an ack-required send so
	// that lingering does not add to the measured latency.
	FlushAfterSend bool

	// LegacyHoldOnFailure keeps the waiter blocked when the client reports a
	// delivery failure.  Only the context or AckTimeout release it.
	LegacyHoldOnFailure bool

	// SendBufferBytes and ReceiveBufferBytes set SO_SNDBUF and SO_RCVBUF on
	// broker connections.  Zero or negative keeps the OS default.
	SendBufferBytes    int
	ReceiveBufferBytes int

	// RequestTimeout sets the request timeout overhead.  Zero keeps the
	// client default.
	RequestTimeout time.Duration

	// Retries sets the number of times a record is retried.  Zero keeps the
	// client default.
	Retries int

	// CleanupTimeout sets the maximum time to wait for buffered records to
	// flush on teardown.  Zero means no timeout.
	CleanupTimeout time.Duration

	// ClientID identifies the client to the brokers.
	ClientID string

	// Security holds the TLS and SASL settings.
	Security SecurityConfig

	// Keyed attaches a key to every record.
	Keyed bool

	// KeyVariable and ValueVariable name the per-iteration variables holding
	// the record key and value.
	KeyVariable   string
	ValueVariable string

	// WRPSource is the Source of messages built by the "wrp" serializer.
	WRPSource string

	// Headers maps header names to a literal value or a "var.<name>"
	// variable reference.
	Headers map[string]string

	// Passthrough holds client options given with the passthrough prefix,
	// with the prefix removed.
	Passthrough map[string]string
}

// ParseConfig builds a Config from p, filling in defaults for anything
// missing.  Any invalid value is reported as ErrConfiguration.
func ParseConfig(p Parameters) (Config, error) {
	p = p.withDefaults()
	r := paramReader{params: p}

	cfg := Config{
		Brokers:             splitList(p[ParamBootstrapServers]),
		Topics:              splitList(p[ParamTopic]),
		TopicShardStrategy:  TopicShardStrategy(strings.TrimSpace(p[ParamTopicShardStrategy])),
		KeySerializer:       strings.TrimSpace(p[ParamKeySerializer]),
		ValueSerializer:     strings.TrimSpace(p[ParamValueSerializer]),
		CompressionCodec:    Compression(strings.ToLower(strings.TrimSpace(p[ParamCompressionType]))),
		BatchMaxBytes:       r.int32(ParamBatchSize),
		Linger:              r.millis(ParamLingerMS),
		MaxBufferedBytes:    r.number(ParamBufferMemory),
		MaxBufferedRecords:  r.number(ParamBufferRecords),
		AckTimeout:          r.millis(ParamAckTimeoutMS),
		FlushAfterSend:      isYes(p[ParamFlushAfterSend]),
		LegacyHoldOnFailure: isYes(p[ParamLegacyHold]),
		SendBufferBytes:     r.number(ParamSendBuffer),
		ReceiveBufferBytes:  r.number(ParamReceiveBuffer),
		RequestTimeout:      r.millis(ParamRequestTimeoutMS),
		Retries:             r.number(ParamRetries),
		CleanupTimeout:      r.millis(ParamCleanupTimeoutMS),
		ClientID:            strings.TrimSpace(p[ParamClientID]),
		Security:            parseSecurityConfig(p),
		Keyed:               isYes(p[ParamKeyedMessage]),
		KeyVariable:         strings.TrimSpace(p[ParamMessageKeyPlaceholder]),
		ValueVariable:       strings.TrimSpace(p[ParamMessagePlaceholder]),
		WRPSource:           strings.TrimSpace(p[ParamWRPSource]),
		Headers:             p.prefixed(HeaderPrefix),
		Passthrough:         p.prefixed(PassthroughPrefix),
	}

	zk := strings.TrimSpace(p[ParamZooKeeperServers])
	if zk != "" && !strings.EqualFold(zk, ZooKeeperPlaceholder) {
		cfg.ZooKeeperServers = splitList(zk)
	}

	acks, err := ParseAckPolicy(p[ParamAcks])
	if err != nil {
		r.errs = append(r.errs, err)
	}
	cfg.Acks = acks

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, errors.Join(ErrConfiguration, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate validates the Config's values and their combinations.
func (c *Config) validate() error {
	if len(c.Brokers) == 0 && len(c.ZooKeeperServers) == 0 {
		return errors.Join(ErrConfiguration, fmt.Errorf("%s is required", ParamBootstrapServers))
	}

	for i, broker := range c.Brokers {
		if !strings.Contains(broker, ":") {
			return errors.Join(ErrConfiguration,
				fmt.Errorf("broker %d '%s' must be in host:port format", i, broker))
		}
	}

	if len(c.Topics) == 0 || (len(c.Topics) == 1 && c.Topics[0] == TopicPlaceholder) {
		return errors.Join(ErrConfiguration, fmt.Errorf("%s is required", ParamTopic))
	}

	if err := validateTopicShardStrategy(c.TopicShardStrategy, len(c.Topics)); err != nil {
		return err
	}

	if err := validateCompression(c.CompressionCodec); err != nil {
		return err
	}

	if limit := c.maxWriteBytes(); c.BatchMaxBytes < minBatchBytes || c.BatchMaxBytes > limit {
		return errors.Join(ErrConfiguration,
			fmt.Errorf("%s %d is invalid: must be between %d and %d", ParamBatchSize, c.BatchMaxBytes, minBatchBytes, limit))
	}

	if _, err := lookupSerializer(c.KeySerializer); err != nil {
		return fmt.Errorf("%s: %w", ParamKeySerializer, err)
	}
	if _, err := lookupSerializer(c.ValueSerializer); err != nil {
		return fmt.Errorf("%s: %w", ParamValueSerializer, err)
	}

	if c.ValueVariable == "" {
		return errors.Join(ErrConfiguration, fmt.Errorf("%s is required", ParamMessagePlaceholder))
	}
	if c.Keyed && c.KeyVariable == "" {
		return errors.Join(ErrConfiguration,
			fmt.Errorf("%s is required when %s is %s", ParamMessageKeyPlaceholder, ParamKeyedMessage, FlagYes))
	}

	if _, err := compileHeaders(c.Headers); err != nil {
		return err
	}

	if err := c.Security.validate(); err != nil {
		return err
	}

	if _, _, err := passthroughOpts(c.Passthrough); err != nil {
		return err
	}

	return nil
}

// Batch size bounds enforced by franz-go.  defaultMaxWriteBytes is its
// default broker write limit.
const (
	minBatchBytes        int32 = 1 << 10
	defaultMaxWriteBytes int32 = 100 << 20
)

// paramReader parses numeric parameters, collecting every failure so they
// can be reported together.
type paramReader struct {
	params Parameters
	errs   []error
}

func (r *paramReader) number(name string) int {
	v := strings.TrimSpace(r.params[name])
	if v == "" {
		return 0
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s '%s' is not an integer", name, v))
		return 0
	}
	return n
}

func (r *paramReader) int32(name string) int32 {
	v := strings.TrimSpace(r.params[name])
	if v == "" {
		return 0
	}

	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s '%s' is not a 32-bit integer", name, v))
		return 0
	}
	return int32(n)
}

// maxWriteBytes is the largest request the client will write to a broker:
// the passthrough max.request.size when set, otherwise the client default.
func (c *Config) maxWriteBytes() int32 {
	v := strings.TrimSpace(c.Passthrough["max.request.size"])
	if n, err := strconv.ParseInt(v, 10, 32); err == nil && n > 0 {
		return int32(n)
	}
	return defaultMaxWriteBytes
}

func (r *paramReader) millis(name string) time.Duration {
	n := r.number(name)
	if n < 0 {
		r.errs = append(r.errs, fmt.Errorf("%s must not be negative", name))
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

// passthroughOpts converts passthrough parameters to client options.  Names
// the client has no equivalent for are returned so the caller can log them.
func passthroughOpts(pass map[string]string) ([]kgo.Opt, []string, error) {
	var (
		opts    []kgo.Opt
		unknown []string
		errs    []error
	)

	atoi := func(name, v string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s%s '%s' must be a non-negative integer", PassthroughPrefix, name, v))
			return 0, false
		}
		return n, true
	}
	ms := func(name, v string) (time.Duration, bool) {
		n, ok := atoi(name, v)
		return time.Duration(n) * time.Millisecond, ok
	}
	boolean := func(name, v string) (bool, bool) {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s '%s' must be true or false", PassthroughPrefix, name, v))
			return false, false
		}
		return b, true
	}

	for name, v := range pass {
		switch name {
		case "client.id":
			opts = append(opts, kgo.ClientID(v))
		case "enable.idempotence":
			if b, ok := boolean(name, v); ok && !b {
				opts = append(opts, kgo.DisableIdempotentWrite())
			}
		case "max.in.flight.requests.per.connection":
			if n, ok := atoi(name, v); ok && n > 0 {
				opts = append(opts, kgo.MaxProduceRequestsInflightPerBroker(n))
			}
		case "request.timeout.ms":
			if d, ok := ms(name, v); ok && d > 0 {
				opts = append(opts, kgo.ProduceRequestTimeout(d))
			}
		case "delivery.timeout.ms":
			if d, ok := ms(name, v); ok && d > 0 {
				opts = append(opts, kgo.RecordDeliveryTimeout(d))
			}
		case "retries":
			if n, ok := atoi(name, v); ok {
				opts = append(opts, kgo.RecordRetries(n))
			}
		case "max.request.size":
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
			if err != nil || n < 0 {
				errs = append(errs, fmt.Errorf("%s%s '%s' must be a non-negative 32-bit integer", PassthroughPrefix, name, v))
			} else if n > 0 {
				opts = append(opts, kgo.BrokerMaxWriteBytes(int32(n)))
			}
		case "allow.auto.create.topics":
			if b, ok := boolean(name, v); ok && b {
				opts = append(opts, kgo.AllowAutoTopicCreation())
			}
		case "metadata.max.age.ms":
			if d, ok := ms(name, v); ok && d > 0 {
				opts = append(opts, kgo.MetadataMaxAge(d))
			}
		case "connections.max.idle.ms":
			if d, ok := ms(name, v); ok && d > 0 {
				opts = append(opts, kgo.ConnIdleTimeout(d))
			}
		case "retry.backoff.ms":
			if d, ok := ms(name, v); ok {
				opts = append(opts, kgo.RetryBackoffFn(func(int) time.Duration { return d }))
			}
		case "partitioner":
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "sticky":
				opts = append(opts, kgo.RecordPartitioner(kgo.StickyPartitioner()))
			case "round_robin":
				opts = append(opts, kgo.RecordPartitioner(kgo.RoundRobinPartitioner()))
			case "murmur2", "default":
				opts = append(opts, kgo.RecordPartitioner(kgo.StickyKeyPartitioner(nil)))
			default:
				errs = append(errs, fmt.Errorf("%spartitioner '%s' is invalid: must be 'sticky', 'round_robin' or 'murmur2'", PassthroughPrefix, v))
			}
		default:
			unknown = append(unknown, name)
		}
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(ErrConfiguration, errors.Join(errs...))
	}
	return opts, unknown, nil
}
