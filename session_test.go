// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

// openSession opens a Session backed by client.
func openSession(t *testing.T, cfg Config, client kafkaClient) *Session {
	t.Helper()

	s := &Session{
		Config: cfg,
		clientFactory: func(...kgo.Opt) (kafkaClient, error) {
			return client, nil
		},
	}
	require.NoError(t, s.Open())
	return s
}

func TestSession_Lifecycle(t *testing.T) {
	t.Parallel()

	client := &mockKafkaClient{}
	client.On("Flush", mock.Anything).Return(nil).Once()
	client.On("Close").Return().Once()

	s := openSession(t, testConfig(t, nil), client)

	assert.ErrorIs(t, s.Open(), ErrAlreadyOpen)

	s.Close(context.Background())
	s.Close(context.Background())

	assert.ErrorIs(t, s.Send(context.Background(), &kgo.Record{}), ErrNotOpen)
	assert.ErrorIs(t, s.Flush(context.Background()), ErrNotOpen)

	called := false
	err := s.SendWithAck(context.Background(), &kgo.Record{}, func(DeliveryOutcome) { called = true })
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.False(t, called, "onComplete must not run when the session is closed")

	records, bytes := s.BufferedRecords()
	assert.Zero(t, records)
	assert.Zero(t, bytes)

	client.AssertExpectations(t)
}

func TestSession_OpenErrors(t *testing.T) {
	t.Parallel()

	t.Run("client factory fails", func(t *testing.T) {
		t.Parallel()

		s := &Session{
			Config: testConfig(t, nil),
			clientFactory: func(...kgo.Opt) (kafkaClient, error) {
				return nil, errors.New("boom")
			},
		}
		err := s.Open()
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.NotErrorIs(t, err, ErrConnectivity)
	})

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, nil)
		cfg.Topics = nil
		s := &Session{Config: cfg}
		assert.ErrorIs(t, s.Open(), ErrConfiguration)
	})

	t.Run("unreadable CA file", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, Parameters{
			ParamSecurityProtocol: string(ProtocolSSL),
			ParamSSLEnabled:       FlagYes,
			ParamSSLCALocation:    "/nonexistent/ca.pem",
		})
		s := &Session{Config: cfg}
		assert.ErrorIs(t, s.Open(), ErrConfiguration)
	})

	t.Run("no brokers after resolution", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, Parameters{
			ParamBootstrapServers: "",
			ParamZooKeeperServers: "zk:2181",
		})
		s := &Session{Config: cfg}
		assert.ErrorIs(t, s.Open(), ErrConfiguration)
	})
}

func TestSession_SendWithAck(t *testing.T) {
	t.Parallel()

	brokerErr := errors.New("MESSAGE_TOO_LARGE")

	tests := []struct {
		name       string
		produceErr error
		expected   Outcome
	}{
		{name: "acknowledged", expected: Acknowledged},
		{name: "failed", produceErr: brokerErr, expected: Failed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := &mockKafkaClient{}
			client.On("Produce", mock.Anything, mock.Anything, mock.Anything).
				Run(completeWith(tt.produceErr)).Once()

			s := openSession(t, testConfig(t, nil), client)

			var got []DeliveryOutcome
			err := s.SendWithAck(context.Background(), &kgo.Record{Topic: "t"}, func(out DeliveryOutcome) {
				got = append(got, out)
			})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.expected, got[0].Outcome)
			if tt.produceErr != nil {
				assert.ErrorIs(t, got[0].Err, brokerErr)
			} else {
				assert.Equal(t, int64(42), got[0].Offset)
			}

			client.AssertExpectations(t)
		})
	}
}

func TestSession_SendLogsFailures(t *testing.T) {
	t.Parallel()

	client := &mockKafkaClient{}
	client.On("Produce", mock.Anything, mock.Anything, mock.Anything).
		Run(completeWith(errors.New("unreachable"))).Once()

	s := openSession(t, testConfig(t, nil), client)
	assert.NoError(t, s.Send(context.Background(), &kgo.Record{Topic: "t"}))

	client.AssertExpectations(t)
}

func TestSession_BufferedRecords(t *testing.T) {
	t.Parallel()

	client := &mockKafkaClient{}
	client.On("BufferedProduceRecords").Return(int64(3))
	client.On("BufferedProduceBytes").Return(int64(300))

	s := openSession(t, testConfig(t, nil), client)

	records, bytes := s.BufferedRecords()
	assert.Equal(t, int64(3), records)
	assert.Equal(t, int64(300), bytes)
}

func TestSession_ToKgoOpts(t *testing.T) {
	t.Parallel()

	base := len(mustOpts(t, testConfig(t, Parameters{
		ParamSendBuffer:    "0",
		ParamReceiveBuffer: "0",
		ParamLingerMS:      "0",
	})))

	t.Run("typed options add to the base set", func(t *testing.T) {
		t.Parallel()

		opts := mustOpts(t, testConfig(t, Parameters{
			ParamSendBuffer:    "0",
			ParamReceiveBuffer: "0",
			ParamLingerMS:      "5",
			ParamRetries:       "3",
		}))
		assert.Len(t, opts, base+2)
	})

	t.Run("passthrough options are appended", func(t *testing.T) {
		t.Parallel()

		opts := mustOpts(t, testConfig(t, Parameters{
			ParamSendBuffer:             "0",
			ParamReceiveBuffer:          "0",
			ParamLingerMS:               "0",
			"_allow.auto.create.topics": "true",
			"_unknown.option":           "ignored",
		}))
		assert.Len(t, opts, base+1)
	})

	t.Run("acks all keeps idempotent writes", func(t *testing.T) {
		t.Parallel()

		opts := mustOpts(t, testConfig(t, Parameters{
			ParamSendBuffer:    "0",
			ParamReceiveBuffer: "0",
			ParamLingerMS:      "0",
			ParamAcks:          "all",
		}))
		assert.Len(t, opts, base-1)
	})

	t.Run("resolved brokers override the static list", func(t *testing.T) {
		t.Parallel()

		s := &Session{
			Config:  testConfig(t, nil),
			Brokers: []string{"zk-found:9092"},
		}
		assert.Equal(t, []string{"zk-found:9092"}, s.brokers())
	})
}

func mustOpts(t *testing.T, cfg Config) []kgo.Opt {
	t.Helper()

	s := &Session{Config: cfg, logger: orNop(nil)}
	opts, err := s.toKgoOpts()
	require.NoError(t, err)
	return opts
}
