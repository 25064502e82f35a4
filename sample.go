// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import "time"

// SampleResult is the host visible result of one iteration.
type SampleResult struct {
	// Start and End bound the measured latency.  Start is reset once the
	// record is built so only the send and the wait are measured.
	Start time.Time
	End   time.Time

	// BytesSent is the byte length of the value text, set on success.
	BytesSent int64

	// Success reports whether the record was sent (AckNone) or acknowledged.
	Success bool

	// ResponseData is the input value on success and the error text on
	// failure.
	ResponseData string

	// Err is the failure cause, nil on success.
	Err error

	// ErrorType is the classification of Err (empty on success).
	ErrorType string

	// Topic is the topic the record was sent to, if one was built.
	Topic string

	// Outcome is the delivery outcome reported by the client.
	Outcome Outcome
}

// Begin starts (or restarts) the timer.
func (r *SampleResult) Begin() {
	r.Start = time.Now()
	r.End = time.Time{}
}

// RecordSize sets the number of bytes counted as sent.
func (r *SampleResult) RecordSize(n int64) {
	r.BytesSent = n
}

// Elapsed returns the measured latency, up to now if the sample has not
// been finished yet.
func (r *SampleResult) Elapsed() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Finish stops the timer, if still running, and records the result.
func (r *SampleResult) Finish(success bool, payload string, err error) {
	if r.End.IsZero() {
		r.End = time.Now()
	}
	r.Success = success
	r.ResponseData = payload
	r.Err = err
	r.ErrorType = errorType(err)
}

// SampleEvent is dispatched to listeners once per iteration.
type SampleEvent struct {
	// Topic is the topic the record was sent to (empty if none was built).
	Topic string

	// Outcome is the delivery outcome.
	Outcome Outcome

	// Success mirrors SampleResult.Success.
	Success bool

	// BytesSent mirrors SampleResult.BytesSent.
	BytesSent int64

	// Error is the failure cause (nil for successful samples).
	Error error

	// ErrorType is the error classification (empty for successful samples).
	// Values: "send_error", "missing_variable", "interrupted", "ack_timeout", etc.
	ErrorType string

	// Duration is the measured latency of the sample.
	Duration time.Duration
}

func newSampleEvent(r *SampleResult) *SampleEvent {
	return &SampleEvent{
		Topic:     r.Topic,
		Outcome:   r.Outcome,
		Success:   r.Success,
		BytesSent: r.BytesSent,
		Error:     r.Err,
		ErrorType: r.ErrorType,
		Duration:  r.Elapsed(),
	}
}
