// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xmidt-org/wrp-go/v5"
)

// Serializer names accepted by key.serializer and value.serializer.
const (
	SerializerString = "string"
	SerializerBytes  = "bytes"
	SerializerJSON   = "json"
	SerializerWRP    = "wrp"
)

// Serializer turns a variable value into record bytes.
type Serializer interface {
	Serialize(topic string, v any) ([]byte, error)
}

// SerializerFunc adapts a function to the Serializer interface.
type SerializerFunc func(topic string, v any) ([]byte, error)

// Serialize calls f(topic, v).
func (f SerializerFunc) Serialize(topic string, v any) ([]byte, error) {
	return f(topic, v)
}

// serializerFactory builds a Serializer for a parsed config.
type serializerFactory func(cfg *Config) Serializer

var serializers = map[string]serializerFactory{
	SerializerString: func(*Config) Serializer { return SerializerFunc(serializeString) },
	SerializerBytes:  func(*Config) Serializer { return SerializerFunc(serializeBytes) },
	SerializerJSON:   func(*Config) Serializer { return SerializerFunc(serializeJSON) },
	SerializerWRP: func(cfg *Config) Serializer {
		return &wrpSerializer{source: cfg.WRPSource}
	},
}

func lookupSerializer(name string) (serializerFactory, error) {
	if name == "" {
		name = SerializerString
	}

	f, ok := serializers[strings.ToLower(name)]
	if ok {
		return f, nil
	}

	names := make([]string, 0, len(serializers))
	for n := range serializers {
		names = append(names, n)
	}
	sort.Strings(names)

	return nil, errors.Join(ErrConfiguration,
		fmt.Errorf("serializer '%s' is invalid: must be '%s'", name, strings.Join(names, "', '")))
}

// valueString renders a variable value the way it is reported back as the
// response payload.
func valueString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

func serializeString(_ string, v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return append([]byte(nil), b...), nil
	}
	return []byte(valueString(v)), nil
}

func serializeBytes(_ string, v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return append([]byte(nil), t...), nil
	case string:
		return []byte(t), nil
	}
	return nil, errors.Join(ErrSerialization,
		fmt.Errorf("bytes serializer cannot encode %T", v))
}

// serializeJSON marshals structured values.  Strings and byte slices are
// taken to be JSON already and are only checked for validity.
func serializeJSON(_ string, v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		if !json.Valid([]byte(t)) {
			return nil, errors.Join(ErrSerialization, fmt.Errorf("value is not valid JSON"))
		}
		return []byte(t), nil
	case []byte:
		if !json.Valid(t) {
			return nil, errors.Join(ErrSerialization, fmt.Errorf("value is not valid JSON"))
		}
		return append([]byte(nil), t...), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrSerialization, err)
	}
	return b, nil
}

// wrpSerializer wraps the value as the payload of a WRP simple event
// addressed to the record's topic.
type wrpSerializer struct {
	source string
}

// Serialize wraps v as the payload of a simple event addressed to topic.
func (s *wrpSerializer) Serialize(topic string, v any) ([]byte, error) {
	payload, _ := serializeString(topic, v)

	msg := wrp.Message{
		Type:        wrp.SimpleEventMessageType,
		Source:      s.source,
		Destination: "event:" + topic,
		ContentType: "text/plain",
		Payload:     payload,
	}

	var encoded []byte
	err := wrp.NewEncoderBytes(&encoded, wrp.Msgpack).Encode(&msg, wrp.NoStandardValidation())
	if err != nil {
		return nil, errors.Join(ErrSerialization, fmt.Errorf("msgpack encoding failed"), err)
	}
	return encoded, nil
}
