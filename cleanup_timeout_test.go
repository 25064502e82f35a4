// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

// TestSessionClose_CleanupTimeoutRespectsCaller checks that the flush on
// Close is bounded by CleanupTimeout only when the caller gave no deadline.
func TestSessionClose_CleanupTimeoutRespectsCaller(t *testing.T) {
	t.Parallel()

	tests := []struct {
		description    string
		cleanupTimeout time.Duration
		callerTimeout  time.Duration

		// flushWithin is the expected remaining time of the flush context.
		// Zero means the flush context has no deadline.
		flushWithin time.Duration
	}{
		{
			description: "no timeouts",
		}, {
			description:    "cleanup timeout applies",
			cleanupTimeout: 5 * time.Second,
			flushWithin:    5 * time.Second,
		}, {
			description:    "shorter caller deadline wins",
			cleanupTimeout: 10 * time.Second,
			callerTimeout:  2 * time.Second,
			flushWithin:    2 * time.Second,
		}, {
			description:    "longer caller deadline still wins",
			cleanupTimeout: 2 * time.Second,
			callerTimeout:  10 * time.Second,
			flushWithin:    10 * time.Second,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig(t, nil)
			cfg.CleanupTimeout = tc.cleanupTimeout

			flushed := make(chan context.Context, 1)
			client := &mockKafkaClient{}
			client.On("Flush", mock.Anything).Run(func(args mock.Arguments) {
				flushed <- args.Get(0).(context.Context)
			}).Return(nil)
			client.On("Close").Return()

			s := &Session{
				Config: cfg,
				clientFactory: func(...kgo.Opt) (kafkaClient, error) {
					return client, nil
				},
			}
			require.NoError(t, s.Open())

			ctx := context.Background()
			if tc.callerTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tc.callerTimeout)
				defer cancel()
			}
			s.Close(ctx)

			flushCtx := <-flushed
			deadline, ok := flushCtx.Deadline()
			if tc.flushWithin == 0 {
				assert.False(t, ok, "flush context should have no deadline")
				return
			}

			require.True(t, ok, "flush context should have a deadline")
			assert.InDelta(t, tc.flushWithin.Seconds(), time.Until(deadline).Seconds(), 0.1)
			client.AssertExpectations(t)
		})
	}
}
