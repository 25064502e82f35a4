// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/mock"
	"github.com/twmb/franz-go/pkg/kgo"
)

// mockKafkaClient is a mock implementation of kafkaClient for testing.
type mockKafkaClient struct {
	mock.Mock
}

func (m *mockKafkaClient) Produce(ctx context.Context, r *kgo.Record, cb func(*kgo.Record, error)) {
	m.Called(ctx, r, cb)
}

func (m *mockKafkaClient) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockKafkaClient) Close() {
	m.Called()
}

func (m *mockKafkaClient) BufferedProduceRecords() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *mockKafkaClient) BufferedProduceBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// completeWith makes Produce invoke its promise with err, acknowledging the
// record at partition 0, offset 42 when err is nil.
func completeWith(err error) func(mock.Arguments) {
	return func(args mock.Arguments) {
		r := args.Get(1).(*kgo.Record)
		cb := args.Get(2).(func(*kgo.Record, error))
		if err == nil {
			r.Partition = 0
			r.Offset = 42
			r.Timestamp = time.Now()
		}
		cb(r, err)
	}
}

// mockZKConn is a mock implementation of zkConn for testing.
type mockZKConn struct {
	mock.Mock
}

func (m *mockZKConn) Children(path string) ([]string, *zk.Stat, error) {
	args := m.Called(path)
	children, _ := args.Get(0).([]string)
	return children, nil, args.Error(1)
}

func (m *mockZKConn) Get(path string) ([]byte, *zk.Stat, error) {
	args := m.Called(path)
	data, _ := args.Get(0).([]byte)
	return data, nil, args.Error(1)
}

func (m *mockZKConn) Close() {
	m.Called()
}

// dialerFor returns a zkDialer that always hands out conn.
func dialerFor(conn zkConn) zkDialer {
	return func([]string, time.Duration, zk.Logger) (zkConn, error) {
		return conn, nil
	}
}

// fakeSender is a scripted sender for Tracker tests.
type fakeSender struct {
	// complete decides what happens to an ack-required record.  A nil
	// complete never invokes onComplete.
	complete func(r *kgo.Record, onComplete func(DeliveryOutcome))

	sendErr  error
	flushErr error

	sent    chan *kgo.Record
	flushes chan struct{}
}

func newFakeSender(complete func(*kgo.Record, func(DeliveryOutcome))) *fakeSender {
	return &fakeSender{
		complete: complete,
		sent:     make(chan *kgo.Record, 100),
		flushes:  make(chan struct{}, 100),
	}
}

func (f *fakeSender) Send(_ context.Context, r *kgo.Record) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent <- r
	return nil
}

func (f *fakeSender) SendWithAck(_ context.Context, r *kgo.Record, onComplete func(DeliveryOutcome)) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent <- r
	if f.complete != nil {
		f.complete(r, onComplete)
	}
	return nil
}

func (f *fakeSender) Flush(context.Context) error {
	f.flushes <- struct{}{}
	return f.flushErr
}
