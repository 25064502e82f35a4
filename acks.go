// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

// AckPolicy specifies the broker acknowledgment requirements and, with it,
// whether a send waits for its delivery outcome.
type AckPolicy int

const (
	// AckNone requires no acknowledgment (fire-and-forget).  Sends never block
	// beyond enqueueing the record.
	AckNone AckPolicy = iota

	// AckLeader requires only the leader replica to acknowledge.
	AckLeader

	// AckAll requires all ISR replicas to acknowledge (strongest durability).
	AckAll
)

var ackLevels = map[string]AckPolicy{
	"0":   AckNone,
	"1":   AckLeader,
	"-1":  AckAll,
	"all": AckAll,
}

// ParseAckPolicy converts a Kafka "acks" value ("0", "1", "-1" or "all") into
// an AckPolicy.
func ParseAckPolicy(s string) (AckPolicy, error) {
	p, ok := ackLevels[strings.ToLower(strings.TrimSpace(s))]
	if ok {
		return p, nil
	}

	return AckNone, errors.Join(ErrConfiguration,
		fmt.Errorf("acks '%s' is invalid: must be '-1', '0', '1' or 'all'", s))
}

// AwaitsOutcome reports whether a send under this policy blocks until its
// delivery outcome arrives.
func (p AckPolicy) AwaitsOutcome() bool {
	return p != AckNone
}

// String returns the Kafka "acks" value for the policy.
func (p AckPolicy) String() string {
	switch p {
	case AckNone:
		return "0"
	case AckLeader:
		return "1"
	case AckAll:
		return "all"
	default:
		return "unknown"
	}
}

func (p AckPolicy) kgoAcks() kgo.Acks {
	switch p {
	case AckNone:
		return kgo.NoAck()
	case AckLeader:
		return kgo.LeaderAck()
	default:
		return kgo.AllISRAcks()
	}
}
