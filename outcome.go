// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Outcome represents the kind of result a delivery produced.
type Outcome int

const (
	// NotSent indicates the record was never handed to the client.
	NotSent Outcome = iota

	// Attempted indicates the record was handed to the client with no
	// acknowledgment requested.  Nothing is known about its delivery.
	Attempted

	// Acknowledged indicates the broker confirmed the record.
	Acknowledged

	// Failed indicates the client reported a delivery error.
	Failed
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case NotSent:
		return "NotSent"
	case Attempted:
		return "Attempted"
	case Acknowledged:
		return "Acknowledged"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DeliveryOutcome is the single result of one send.  For ack-required sends
// exactly one DeliveryOutcome is produced; fire-and-forget sends report
// Attempted without waiting.
type DeliveryOutcome struct {
	// Outcome is the kind of result.
	Outcome Outcome

	// Topic, Partition and Offset are the broker-assigned position of the
	// record.  Only set when Outcome is Acknowledged.
	Topic     string
	Partition int32
	Offset    int64

	// Timestamp is the record timestamp as stored by the client.
	Timestamp time.Time

	// Err is the delivery error.  Only set when Outcome is Failed.
	Err error
}

// newDeliveryOutcome builds the outcome for a client promise.
func newDeliveryOutcome(r *kgo.Record, err error) DeliveryOutcome {
	if err != nil {
		return DeliveryOutcome{
			Outcome: Failed,
			Err:     err,
		}
	}

	out := DeliveryOutcome{Outcome: Acknowledged}
	if r != nil {
		out.Topic = r.Topic
		out.Partition = r.Partition
		out.Offset = r.Offset
		out.Timestamp = r.Timestamp
	}
	return out
}
