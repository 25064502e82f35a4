// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// dialTimeout matches the franz-go default dial timeout.
const dialTimeout = 10 * time.Second

// dialFunc is the signature kgo.Dialer expects.
type dialFunc func(ctx context.Context, network, host string) (net.Conn, error)

// newDialFunc returns a dialer applying the socket buffer sizes, wrapping the
// connection in TLS when tlsCfg is set.  Returns nil when no buffer size is
// requested or the platform cannot set them, in which case the client's own
// dialer is used.
func newDialFunc(sendBuffer, receiveBuffer int, tlsCfg *tls.Config) dialFunc {
	control := socketBufferControl(sendBuffer, receiveBuffer)
	if control == nil {
		return nil
	}

	nd := &net.Dialer{
		Timeout: dialTimeout,
		Control: control,
	}

	if tlsCfg == nil {
		return nd.DialContext
	}

	return func(ctx context.Context, network, host string) (net.Conn, error) {
		cfg := tlsCfg.Clone()
		if cfg.ServerName == "" {
			if h, _, err := net.SplitHostPort(host); err == nil {
				cfg.ServerName = h
			}
		}
		d := &tls.Dialer{NetDialer: nd, Config: cfg}
		return d.DialContext(ctx, network, host)
	}
}
