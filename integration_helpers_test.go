// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package kafkasampler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/xmidt-org/kafkasampler"
	"github.com/xmidt-org/wrp-go/v5"
)

const (
	kafkaImage      = "confluentinc/confluent-local:7.8.0"
	brokerReadyIn   = 30 * time.Second
	recordsArriveIn = 10 * time.Second
)

// setupKafka starts a single node Kafka cluster for the test and returns its
// broker address.  The container is stopped when the test completes.
func setupKafka(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// The KRaft mode of the module validates the image version, so the tag
	// is pinned.  DOCKER_HOST selects Podman when the Makefile sets it.
	container, err := kafka.Run(ctx, kafkaImage, kafka.WithClusterID("sampler-test"))
	require.NoError(t, err, "Failed to start Kafka container")

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "Failed to get Kafka brokers")
	require.NotEmpty(t, brokers, "No Kafka brokers available")

	require.NoError(t, pingBroker(ctx, brokers[0]), "Kafka never became ready")
	return brokers[0]
}

// pingBroker retries a metadata request until broker answers.
func pingBroker(ctx context.Context, broker string) error {
	ctx, cancel := context.WithTimeout(ctx, brokerReadyIn)
	defer cancel()

	client, err := kgo.NewClient(kgo.SeedBrokers(broker))
	if err != nil {
		return err
	}
	defer client.Close()

	for {
		err := client.Ping(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Second):
		}
	}
}

// createTestSampler creates a Sampler for broker with auto topic creation
// enabled and params applied on top.  Teardown runs when the test completes.
func createTestSampler(t *testing.T, broker string, params kafkasampler.Parameters) *kafkasampler.Sampler {
	t.Helper()

	p := kafkasampler.Parameters{
		kafkasampler.ParamBootstrapServers: broker,
		kafkasampler.ParamAckTimeoutMS:     "10000",
		"_allow.auto.create.topics":        "true",
	}
	for k, v := range params {
		p[k] = v
	}

	s := kafkasampler.NewSampler(p)
	require.NoError(t, s.Setup(context.Background()))
	t.Cleanup(func() {
		s.Teardown(context.Background())
	})
	return s
}

// consumeRecords reads topic from the start until want records arrived or
// the wait runs out, and returns what it read.
func consumeRecords(t *testing.T, broker, topic string, want int) []*kgo.Record {
	t.Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err, "Failed to create Kafka consumer")
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), recordsArriveIn)
	defer cancel()

	var records []*kgo.Record
	for len(records) < want && ctx.Err() == nil {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if ctx.Err() == nil {
				t.Logf("Fetch error on %s[%d]: %v", topic, partition, err)
			}
		})
		records = append(records, fetches.Records()...)
	}

	return records
}

// decodeWRPMessage decodes a msgpack encoded WRP message from a record value.
func decodeWRPMessage(t *testing.T, record *kgo.Record) *wrp.Message {
	t.Helper()

	var msg wrp.Message
	require.NoError(t, wrp.NewDecoderBytes(record.Value, wrp.Msgpack).Decode(&msg),
		"Failed to decode WRP message")
	return &msg
}
