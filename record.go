// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Variables is the per-iteration variable store of the calling virtual user.
type Variables interface {
	// Get returns the named variable and whether it was present.
	Get(name string) (any, bool)
}

// Vars is a map backed Variables.
type Vars map[string]any

// Get implements Variables.
func (v Vars) Get(name string) (any, bool) {
	x, ok := v[name]
	return x, ok
}

// errMissingValue is reported as the sample payload when the value variable
// is absent.
var errMissingValue = errors.New("error while getting message value from variables")

// message is one record ready to send together with what the sample reports
// about it.
type message struct {
	record *kgo.Record

	// value is the input value as reported back on success.
	value string

	// size is the number of value bytes counted as sent.
	size int64
}

// recordBuilder turns an iteration's variables into a record.  Safe for
// concurrent use.
type recordBuilder struct {
	keyed         bool
	keyVariable   string
	valueVariable string

	keySerializer   Serializer
	valueSerializer Serializer

	headers []headerTemplate
	topics  *topicSelector
}

func newRecordBuilder(cfg *Config) (*recordBuilder, error) {
	keyFactory, err := lookupSerializer(cfg.KeySerializer)
	if err != nil {
		return nil, err
	}
	valueFactory, err := lookupSerializer(cfg.ValueSerializer)
	if err != nil {
		return nil, err
	}

	headers, err := compileHeaders(cfg.Headers)
	if err != nil {
		return nil, err
	}

	return &recordBuilder{
		keyed:           cfg.Keyed,
		keyVariable:     cfg.KeyVariable,
		valueVariable:   cfg.ValueVariable,
		keySerializer:   keyFactory(cfg),
		valueSerializer: valueFactory(cfg),
		headers:         headers,
		topics:          newTopicSelector(cfg.Topics, cfg.TopicShardStrategy),
	}, nil
}

// build builds the record for one iteration.  The value variable is always
// required; the key variable only in keyed mode.
func (b *recordBuilder) build(vars Variables) (*message, error) {
	if vars == nil {
		return nil, errors.Join(ErrMissingVariable, errMissingValue)
	}

	rawValue, ok := vars.Get(b.valueVariable)
	if !ok || rawValue == nil {
		return nil, errors.Join(ErrMissingVariable,
			fmt.Errorf("%w: '%s'", errMissingValue, b.valueVariable))
	}

	var (
		rawKey  any
		keyText []byte
	)
	if b.keyed {
		rawKey, ok = vars.Get(b.keyVariable)
		if !ok || rawKey == nil {
			return nil, errors.Join(ErrMissingVariable,
				fmt.Errorf("error while getting message key from variable '%s'", b.keyVariable))
		}
		keyText = []byte(valueString(rawKey))
	}

	topic := b.topics.selectTopic(keyText)

	value, err := b.valueSerializer.Serialize(topic, rawValue)
	if err != nil {
		return nil, fmt.Errorf("serializing value: %w", err)
	}

	record := &kgo.Record{
		Topic:   topic,
		Value:   value,
		Headers: buildHeaders(b.headers, vars),
	}

	if b.keyed {
		key, err := b.keySerializer.Serialize(topic, rawKey)
		if err != nil {
			return nil, fmt.Errorf("serializing key: %w", err)
		}
		record.Key = key
	}

	text := valueString(rawValue)
	return &message{
		record: record,
		value:  text,
		size:   int64(len(text)),
	}, nil
}
