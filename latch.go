// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"sync"
)

// ackLatch is a single-use, single-permit latch carrying one DeliveryOutcome
// from the client goroutine that completes a send to the goroutine waiting
// on it.  The first release wins; later releases are no-ops.
type ackLatch struct {
	done chan DeliveryOutcome
	once sync.Once
}

func newAckLatch() *ackLatch {
	return &ackLatch{
		done: make(chan DeliveryOutcome, 1),
	}
}

// release hands out to the waiter.  It never blocks and reports whether
// this call was the one that released the latch.
func (l *ackLatch) release(out DeliveryOutcome) bool {
	released := false
	l.once.Do(func() {
		l.done <- out
		released = true
	})
	return released
}

// wait blocks until the latch is released or ctx ends.  An outcome that is
// already available wins over a context that ended at the same time.
func (l *ackLatch) wait(ctx context.Context) (DeliveryOutcome, error) {
	select {
	case out := <-l.done:
		return out, nil
	case <-ctx.Done():
	}

	select {
	case out := <-l.done:
		return out, nil
	default:
		return DeliveryOutcome{}, ctx.Err()
	}
}
