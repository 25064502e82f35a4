// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package kafkasampler generates Kafka producer load from a load-testing
// harness and measures it.
//
// # Overview
//
// A harness creates one Sampler per run, calls Setup once, calls Sample from
// as many virtual users as it likes and calls Teardown once at the end.
// Every Sample call sends one record and reports its latency, the number of
// bytes sent, success or failure and a response payload.
//
// # Quick Start
//
//	sampler := kafkasampler.NewSampler(kafkasampler.Parameters{
//	    kafkasampler.ParamBootstrapServers: "localhost:9092",
//	    kafkasampler.ParamTopic:            "load-test",
//	    kafkasampler.ParamAcks:             "1",
//	})
//
//	if err := sampler.Setup(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer sampler.Teardown(context.Background())
//
//	res := sampler.Sample(ctx, kafkasampler.Vars{"MESSAGE": "hello"})
//	fmt.Println(res.Success, res.ResponseData, res.BytesSent, res.Elapsed())
//
// # Acknowledgments
//
// The acks parameter selects how Sample completes:
//
//   - "0": the record is handed to the client and the sample succeeds at
//     once. Nothing is known about its delivery.
//
//   - "1" or "all": Sample blocks until the broker acknowledges the record
//     or the client reports a failure. The wait ends early when the context
//     ends (ErrInterrupted) or ack.timeout.ms passes (ErrAckTimeout).
//
// Each Sample waits on its own single-use latch, so concurrent virtual users
// never release each other.  A delivery failure releases the waiter with a
// failed sample; set legacy.hold.on.failure=YES to keep the waiter blocked
// until its context or the ack timeout instead.
//
// # Brokers
//
// Brokers come from bootstrap.servers, or from the broker registrations in
// ZooKeeper when zookeeper.servers is set.  Any ZooKeeper failure falls back
// to bootstrap.servers.
//
// # Messages
//
// The record value is read from the variable named by message.placeholder.
// With keyed.message=YES the key is read from message.key.placeholder.
// Values are serialized as plain strings, raw bytes, JSON or WRP simple
// events, and header.<Name> parameters add record headers.
//
// # Client Options
//
// Parameters starting with "_" are client options.  The prefix is removed
// and the rest is mapped onto the franz-go option of the same meaning.
// Supported names:
//
//	_client.id                               _metadata.max.age.ms
//	_enable.idempotence                      _connections.max.idle.ms
//	_max.in.flight.requests.per.connection   _retry.backoff.ms
//	_request.timeout.ms                      _max.request.size
//	_delivery.timeout.ms                     _allow.auto.create.topics
//	_retries                                 _partitioner
//
// Any other name is logged at warn level and ignored.  Settings with a
// parameter of their own, such as linger.ms or acks, must use that
// parameter; "_linger.ms" and "_acks" have no effect.
//
// # Observability
//
// Logging goes through franz-go's kgo.Logger interface, and every sample is
// broadcast to SampleEvent listeners:
//
//	sampler := kafkasampler.NewSampler(params,
//	    kafkasampler.WithLogger(logger),
//	    kafkasampler.WithSampleEventListener(func(e *kafkasampler.SampleEvent) {
//	        samples.WithLabelValues(e.Outcome.String(), e.ErrorType).Inc()
//	        latency.Observe(e.Duration.Seconds())
//	    }),
//	)
//
// # Thread Safety
//
// Sample is safe for concurrent use.  Teardown stops new samples and waits
// for in-flight ones before closing the client.
package kafkasampler
