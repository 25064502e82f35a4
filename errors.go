// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import "errors"

var (
	// ErrConfiguration indicates a missing or invalid option.  It is only
	// returned during Setup and aborts the run.
	ErrConfiguration = &metricError{
		metric:  "configuration_error",
		message: "configuration error",
	}

	// ErrConnectivity indicates the coordinator or the brokers could not be
	// reached.
	ErrConnectivity = &metricError{
		metric:  "connectivity_error",
		message: "connectivity error",
	}

	// ErrSend indicates the broker rejected the record or the client failed
	// to deliver it.
	ErrSend = &metricError{
		metric:  "send_error",
		message: "send failed",
	}

	// ErrSerialization indicates a key or value could not be serialized.
	ErrSerialization = &metricError{
		metric:  "serialization_error",
		message: "serialization failed",
	}

	// ErrMissingVariable indicates the message value (or key, in keyed mode)
	// was not present in the caller's variables.
	ErrMissingVariable = &metricError{
		metric:  "missing_variable",
		message: "missing variable",
	}

	// ErrInterrupted indicates the caller's context ended while waiting for
	// an acknowledgment.  The record may or may not have been delivered.
	ErrInterrupted = &metricError{
		metric:  "interrupted",
		message: "interrupted while waiting for acknowledgment",
	}

	// ErrAckTimeout indicates no acknowledgment arrived within AckTimeout.
	ErrAckTimeout = &metricError{
		metric:  "ack_timeout",
		message: "acknowledgment timeout",
	}

	// ErrNotOpen indicates the session or sampler is not ready for sends.
	ErrNotOpen = &metricError{
		metric:  "not_open",
		message: "sampler not open",
	}

	// ErrAlreadyOpen indicates Setup was called on a sampler that is already set up.
	ErrAlreadyOpen = &metricError{
		metric:  "already_open",
		message: "sampler already open",
	}
)

// metricError is an internal error type that wraps errors with a type classification
// for metrics and observability.
type metricError struct {
	metric  string // Type classification for metrics (e.g., "send_error")
	message string // Human-readable message
}

// Error implements the error interface.
func (e *metricError) Error() string {
	return e.message
}

func (e *metricError) Metric() string {
	return e.metric
}

func (e *metricError) Is(target error) bool {
	if t, ok := target.(*metricError); ok {
		return e.message == t.message
	}
	return false
}

// errorType extracts the error type string for metrics classification.
// Walks the error chain to find metricError types.
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var me *metricError
	if errors.As(err, &me) {
		return me.Metric()
	}

	return "unknown"
}
