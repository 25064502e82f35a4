// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

// kgoLogger adapts a zerolog.Logger to kgo.Logger so the sampler, the
// Kafka client and the ZooKeeper lookup all log through it.
type kgoLogger struct {
	logger zerolog.Logger
}

var _ kgo.Logger = (*kgoLogger)(nil)

func newLogger(w io.Writer, level string, console bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Level maps the zerolog level to the closest kgo level.
func (l *kgoLogger) Level() kgo.LogLevel {
	switch l.logger.GetLevel() {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		return kgo.LogLevelDebug
	case zerolog.InfoLevel:
		return kgo.LogLevelInfo
	case zerolog.WarnLevel:
		return kgo.LogLevelWarn
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		return kgo.LogLevelError
	default:
		return kgo.LogLevelNone
	}
}

// Log writes msg with keyvals as fields.  An unpaired trailing value is
// logged under EXTRA.
func (l *kgoLogger) Log(level kgo.LogLevel, msg string, keyvals ...any) {
	var e *zerolog.Event
	switch level {
	case kgo.LogLevelError:
		e = l.logger.Error()
	case kgo.LogLevelWarn:
		e = l.logger.Warn()
	case kgo.LogLevelInfo:
		e = l.logger.Info()
	case kgo.LogLevelDebug:
		e = l.logger.Debug()
	default:
		return
	}

	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		e = e.Interface(key, keyvals[i+1])
	}
	if len(keyvals)%2 == 1 {
		e = e.Interface("EXTRA", keyvals[len(keyvals)-1])
	}

	e.Msg(msg)
}
