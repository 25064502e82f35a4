// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	// BrokerIDsPath is where brokers register themselves in ZooKeeper.
	BrokerIDsPath = "/brokers/ids"

	// zkSessionTimeout is the ZooKeeper session timeout used for the lookup.
	zkSessionTimeout = 10 * time.Second

	// defaultLookupTimeout bounds the whole lookup.
	defaultLookupTimeout = 30 * time.Second
)

// zkConn is the part of *zk.Conn the resolver uses.
type zkConn interface {
	Children(path string) ([]string, *zk.Stat, error)
	Get(path string) ([]byte, *zk.Stat, error)
	Close()
}

var _ zkConn = (*zk.Conn)(nil)

// zkDialer connects to ZooKeeper.  This allows dependency injection for testing.
type zkDialer func(servers []string, sessionTimeout time.Duration, logger zk.Logger) (zkConn, error)

func defaultZKDialer(servers []string, sessionTimeout time.Duration, logger zk.Logger) (zkConn, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout, zk.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Resolver produces the broker list for a session, either the static list
// or the brokers registered in ZooKeeper.
type Resolver struct {
	// Static is the configured broker list and the fallback for any lookup
	// failure.
	Static []string

	// ZooKeeperServers enables the lookup when not empty.
	ZooKeeperServers []string

	// LookupTimeout bounds the lookup.  Zero uses 30 seconds.
	LookupTimeout time.Duration

	// Logger is the logger instance.  Optional.
	Logger kgo.Logger

	// dial is for testing.
	dial zkDialer
}

// Resolve returns the broker addresses.  Coordinator errors are logged and
// the static list is returned, as it is when the lookup finds no brokers.
func (r *Resolver) Resolve(ctx context.Context) []string {
	if len(r.ZooKeeperServers) == 0 {
		return r.Static
	}

	logger := orNop(r.Logger)

	brokers, err := r.lookup(ctx, logger)
	if err != nil {
		logger.Log(kgo.LogLevelError, "failed to get broker information, using static brokers",
			"zookeeper", strings.Join(r.ZooKeeperServers, ","), "error", err.Error())
		return r.Static
	}

	if len(brokers) == 0 {
		logger.Log(kgo.LogLevelWarn, "no brokers registered in zookeeper, using static brokers")
		return r.Static
	}

	logger.Log(kgo.LogLevelInfo, "resolved brokers from zookeeper", "brokers", strings.Join(brokers, ","))
	return brokers
}

func (r *Resolver) lookup(ctx context.Context, logger kgo.Logger) ([]string, error) {
	dial := r.dial
	if dial == nil {
		dial = defaultZKDialer
	}

	conn, err := dial(r.ZooKeeperServers, zkSessionTimeout, zkLogger{logger: logger})
	if err != nil {
		return nil, errors.Join(ErrConnectivity, err)
	}
	// Closing the connection also unblocks a reader abandoned below.
	defer conn.Close()

	timeout := r.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		brokers []string
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		brokers, err := readBrokers(conn, logger)
		ch <- result{brokers: brokers, err: err}
	}()

	select {
	case res := <-ch:
		return res.brokers, res.err
	case <-ctx.Done():
		return nil, errors.Join(ErrConnectivity, ctx.Err())
	}
}

// brokerRegistration is the JSON a broker writes under BrokerIDsPath.
type brokerRegistration struct {
	Host      string   `json:"host"`
	Port      int      `json:"port"`
	Endpoints []string `json:"endpoints"`
}

// address returns host:port, falling back to the first listener endpoint
// when the legacy host field is empty.
func (b brokerRegistration) address() (string, bool) {
	if b.Host != "" && b.Port >= 0 {
		return net.JoinHostPort(b.Host, strconv.Itoa(b.Port)), true
	}

	for _, ep := range b.Endpoints {
		_, hostPort, ok := strings.Cut(ep, "://")
		if !ok {
			continue
		}
		if host, _, err := net.SplitHostPort(hostPort); err == nil && host != "" {
			return hostPort, true
		}
	}
	return "", false
}

func readBrokers(conn zkConn, logger kgo.Logger) ([]string, error) {
	ids, _, err := conn.Children(BrokerIDsPath)
	if err != nil {
		return nil, errors.Join(ErrConnectivity, fmt.Errorf("listing %s: %w", BrokerIDsPath, err))
	}

	brokers := make([]string, 0, len(ids))
	for _, id := range ids {
		data, _, err := conn.Get(path.Join(BrokerIDsPath, id))
		if err != nil {
			return nil, errors.Join(ErrConnectivity, fmt.Errorf("reading broker %s: %w", id, err))
		}

		var reg brokerRegistration
		reg.Port = -1
		if err := json.Unmarshal(data, &reg); err != nil {
			logger.Log(kgo.LogLevelWarn, "skipping malformed broker registration", "id", id, "error", err.Error())
			continue
		}

		if addr, ok := reg.address(); ok {
			brokers = append(brokers, addr)
		}
	}

	return brokers, nil
}
