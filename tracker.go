// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// sender is the part of a Session the Tracker drives.
type sender interface {
	Send(ctx context.Context, r *kgo.Record) error
	SendWithAck(ctx context.Context, r *kgo.Record, onComplete func(DeliveryOutcome)) error
	Flush(ctx context.Context) error
}

var _ sender = (*Session)(nil)

// Tracker sends one record at a time and, depending on Acks, waits for its
// delivery outcome.
//
// Thread Safety: Deliver is safe for concurrent use.  Every call owns its own
// latch, so one caller's acknowledgment never releases another caller.
type Tracker struct {
	// Sender sends the records.  Required.
	Sender sender

	// Acks selects fire-and-forget (AckNone) or wait-for-outcome delivery.
	Acks AckPolicy

	// AckTimeout bounds the wait for an outcome.  Zero means no bound other
	// than the caller's context.
	AckTimeout time.Duration

	// FlushAfterSend flushes right after an ack-required send so client side
	// lingering does not delay the acknowledgment.
	FlushAfterSend bool

	// LegacyHoldOnFailure keeps the waiter blocked when the client reports a
	// failure.  The waiter is then only released by its context or by
	// AckTimeout.
	LegacyHoldOnFailure bool

	// Logger is the logger instance.  Optional.
	Logger kgo.Logger
}

// Deliver sends r.
//
// With AckNone the record is handed to the client and an Attempted outcome
// is returned at once.
//
// Otherwise Deliver blocks until the client reports the outcome, ctx ends
// (ErrInterrupted) or AckTimeout passes (ErrAckTimeout).  A Failed outcome is
// returned together with an error wrapping ErrSend.
func (t *Tracker) Deliver(ctx context.Context, r *kgo.Record) (DeliveryOutcome, error) {
	if !t.Acks.AwaitsOutcome() {
		if err := t.Sender.Send(ctx, r); err != nil {
			return DeliveryOutcome{}, err
		}
		return DeliveryOutcome{Outcome: Attempted, Topic: r.Topic}, nil
	}

	return t.deliverAndWait(ctx, r)
}

func (t *Tracker) deliverAndWait(ctx context.Context, r *kgo.Record) (DeliveryOutcome, error) {
	logger := orNop(t.Logger)

	waitCtx := ctx
	if t.AckTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, t.AckTimeout)
		defer cancel()
	}

	latch := newAckLatch()
	onComplete := func(out DeliveryOutcome) {
		if out.Topic == "" {
			out.Topic = r.Topic
		}
		if out.Outcome == Failed {
			logger.Log(kgo.LogLevelError, "delivery failed", "topic", r.Topic, "error", fmt.Sprint(out.Err))
			if t.LegacyHoldOnFailure {
				return
			}
		}
		if !latch.release(out) {
			logger.Log(kgo.LogLevelWarn, "duplicate delivery outcome ignored", "topic", r.Topic)
		}
	}

	if err := t.Sender.SendWithAck(waitCtx, r, onComplete); err != nil {
		return DeliveryOutcome{}, err
	}

	if t.FlushAfterSend {
		if err := t.Sender.Flush(waitCtx); err != nil && waitCtx.Err() == nil {
			logger.Log(kgo.LogLevelWarn, "flush after send failed", "error", err.Error())
		}
	}

	out, err := latch.wait(waitCtx)
	if err != nil {
		// The record was handed to the client but its outcome is unknown.
		return DeliveryOutcome{Outcome: Attempted, Topic: r.Topic}, t.waitError(ctx, logger, r)
	}

	if out.Outcome == Failed {
		return out, errors.Join(ErrSend, out.Err)
	}
	return out, nil
}

// waitError classifies why the wait ended without an outcome.  The caller's
// own context ending is an interruption; anything else is the ack timeout.
func (t *Tracker) waitError(ctx context.Context, logger kgo.Logger, r *kgo.Record) error {
	if err := ctx.Err(); err != nil {
		logger.Log(kgo.LogLevelWarn, "interrupted while waiting for acknowledgment",
			"topic", r.Topic, "error", err.Error())
		return errors.Join(ErrInterrupted, err)
	}

	logger.Log(kgo.LogLevelWarn, "acknowledgment timed out",
		"topic", r.Topic, "timeout", t.AckTimeout.String())
	return errors.Join(ErrAckTimeout,
		fmt.Errorf("no acknowledgment within %s", t.AckTimeout))
}
