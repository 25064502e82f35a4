// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/xmidt-org/kafkasampler"
	"gopkg.in/yaml.v3"
)

// RunFile describes one load run.
type RunFile struct {
	// Parameters are handed to the sampler unchanged.
	Parameters map[string]string `yaml:"parameters"`

	// Variables are copied into every iteration's variables.
	Variables map[string]string `yaml:"variables"`

	// Users is the number of concurrent virtual users.
	Users int `yaml:"users"`

	// Iterations is the number of samples per user.  Zero means until
	// Duration passes or the run is interrupted.
	Iterations int `yaml:"iterations"`

	// Duration bounds the whole run.  Zero means no bound.
	Duration time.Duration `yaml:"duration"`

	// MessageSize generates a value of this many bytes when the value
	// variable is not set.
	MessageSize int `yaml:"message_size"`

	// RandomKey sets the key variable to a new UUID every iteration.
	RandomKey bool `yaml:"random_key"`
}

// loadRunFile reads a run file.  An empty path yields an empty RunFile.
func loadRunFile(path string) (*RunFile, error) {
	rf := &RunFile{}
	if path == "" {
		return rf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, rf); err != nil {
		return nil, fmt.Errorf("failed to parse run file %s: %w", path, err)
	}

	return rf, nil
}

// applyDefaults fills in what neither the run file nor the flags set.
func (rf *RunFile) applyDefaults() {
	if rf.Parameters == nil {
		rf.Parameters = map[string]string{}
	}
	if rf.Variables == nil {
		rf.Variables = map[string]string{}
	}
	if rf.Users <= 0 {
		rf.Users = 1
	}
	if rf.Iterations == 0 && rf.Duration == 0 {
		rf.Iterations = 1
	}
}

func (rf *RunFile) validate() error {
	if rf.Iterations < 0 {
		return errors.New("iterations must not be negative")
	}
	if rf.Duration < 0 {
		return errors.New("duration must not be negative")
	}
	if rf.MessageSize < 0 {
		return errors.New("message_size must not be negative")
	}
	return nil
}

// parameters returns the sampler parameters.  random_key turns keyed mode
// on unless the parameters say otherwise.
func (rf *RunFile) parameters() kafkasampler.Parameters {
	p := make(kafkasampler.Parameters, len(rf.Parameters)+1)
	for k, v := range rf.Parameters {
		p[k] = v
	}
	if _, ok := p[kafkasampler.ParamKeyedMessage]; !ok && rf.RandomKey {
		p[kafkasampler.ParamKeyedMessage] = kafkasampler.FlagYes
	}
	return p
}
