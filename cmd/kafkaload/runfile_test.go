// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/kafkasampler"
)

func writeRunFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRunFile(t *testing.T) {
	t.Parallel()

	path := writeRunFile(t, `
parameters:
  bootstrap.servers: localhost:9092
  kafka.topic: load
  acks: all
variables:
  MESSAGE: hello
users: 8
iterations: 100
duration: 30s
message_size: 512
random_key: true
`)

	rf, err := loadRunFile(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9092", rf.Parameters["bootstrap.servers"])
	assert.Equal(t, "all", rf.Parameters["acks"])
	assert.Equal(t, map[string]string{"MESSAGE": "hello"}, rf.Variables)
	assert.Equal(t, 8, rf.Users)
	assert.Equal(t, 100, rf.Iterations)
	assert.Equal(t, 30*time.Second, rf.Duration)
	assert.Equal(t, 512, rf.MessageSize)
	assert.True(t, rf.RandomKey)
}

func TestLoadRunFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		description string
		path        func(t *testing.T) string
	}{
		{
			description: "missing file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.yaml")
			},
		}, {
			description: "invalid yaml",
			path: func(t *testing.T) string {
				return writeRunFile(t, "users: [1, 2")
			},
		}, {
			description: "invalid duration",
			path: func(t *testing.T) string {
				return writeRunFile(t, "duration: soon")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			rf, err := loadRunFile(tc.path(t))
			assert.Error(t, err)
			assert.Nil(t, rf)
		})
	}
}

func TestLoadRunFile_EmptyPath(t *testing.T) {
	t.Parallel()

	rf, err := loadRunFile("")
	require.NoError(t, err)
	assert.Equal(t, &RunFile{}, rf)
}

func TestRunFile_ApplyDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		description string
		in          RunFile
		users       int
		iterations  int
	}{
		{
			description: "empty",
			users:       1,
			iterations:  1,
		}, {
			description: "duration only runs until it passes",
			in:          RunFile{Users: 4, Duration: time.Minute},
			users:       4,
			iterations:  0,
		}, {
			description: "negative iterations left for validate",
			in:          RunFile{Iterations: -1},
			users:       1,
			iterations:  -1,
		}, {
			description: "explicit iterations kept",
			in:          RunFile{Users: 2, Iterations: 10},
			users:       2,
			iterations:  10,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()

			rf := tc.in
			rf.applyDefaults()

			assert.Equal(t, tc.users, rf.Users)
			assert.Equal(t, tc.iterations, rf.Iterations)
			assert.NotNil(t, rf.Parameters)
			assert.NotNil(t, rf.Variables)
		})
	}
}

func TestRunFile_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&RunFile{Users: 1, Iterations: 1}).validate())
	assert.Error(t, (&RunFile{Iterations: -1}).validate())
	assert.Error(t, (&RunFile{Duration: -time.Second}).validate())
	assert.Error(t, (&RunFile{MessageSize: -1}).validate())
}

func TestRunFile_Parameters(t *testing.T) {
	t.Parallel()

	t.Run("random key enables keyed messages", func(t *testing.T) {
		t.Parallel()

		rf := &RunFile{
			Parameters: map[string]string{kafkasampler.ParamTopic: "t"},
			RandomKey:  true,
		}
		p := rf.parameters()

		assert.Equal(t, kafkasampler.FlagYes, p[kafkasampler.ParamKeyedMessage])
		assert.Equal(t, "t", p[kafkasampler.ParamTopic])
		assert.NotContains(t, rf.Parameters, kafkasampler.ParamKeyedMessage, "run file must not be modified")
	})

	t.Run("explicit keyed setting wins", func(t *testing.T) {
		t.Parallel()

		rf := &RunFile{
			Parameters: map[string]string{kafkasampler.ParamKeyedMessage: "NO"},
			RandomKey:  true,
		}
		assert.Equal(t, "NO", rf.parameters()[kafkasampler.ParamKeyedMessage])
	})
}

func TestOverrideRunFile(t *testing.T) {
	t.Parallel()

	o, set, err := parseFlags([]string{"-users", "16", "-duration", "1m"}, os.Stderr)
	require.NoError(t, err)

	rf := &RunFile{Users: 2, Iterations: 50, Duration: time.Second}
	overrideRunFile(rf, o, set)

	assert.Equal(t, 16, rf.Users)
	assert.Equal(t, 50, rf.Iterations, "iterations flag was not given")
	assert.Equal(t, time.Minute, rf.Duration)
}
