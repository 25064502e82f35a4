// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// nopLogger, the default logger, drops everything.
type nopLogger struct{}

func (*nopLogger) Level() kgo.LogLevel { return kgo.LogLevelNone }
func (*nopLogger) Log(kgo.LogLevel, string, ...any) {
}

// orNop returns l, or a nopLogger if l is nil.
func orNop(l kgo.Logger) kgo.Logger {
	if l == nil {
		return &nopLogger{}
	}
	return l
}

// zkLogger routes the ZooKeeper client's printf style logging into a
// kgo.Logger at debug level.
type zkLogger struct {
	logger kgo.Logger
}

func (z zkLogger) Printf(format string, args ...any) {
	if z.logger.Level() < kgo.LogLevelDebug {
		return
	}
	z.logger.Log(kgo.LogLevelDebug, fmt.Sprintf(format, args...), "component", "zookeeper")
}
