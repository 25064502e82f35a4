// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import "sync/atomic"

// topicSelector picks the topic for each record.  Safe for concurrent use.
type topicSelector struct {
	topics   []string
	strategy TopicShardStrategy

	// counter tracks records for round-robin distribution.
	counter atomic.Uint64
}

func newTopicSelector(topics []string, strategy TopicShardStrategy) *topicSelector {
	return &topicSelector{
		topics:   topics,
		strategy: strategy,
	}
}

// selectTopic returns the topic for a record with the given key.  Returns
// the empty string if no topics are configured.
func (s *topicSelector) selectTopic(key []byte) string {
	switch len(s.topics) {
	case 0:
		return ""
	case 1:
		return s.topics[0]
	}

	if s.strategy == TopicShardKey && len(key) > 0 {
		return s.topics[hashKey(key, len(s.topics))]
	}

	return s.selectRoundRobin()
}

// selectRoundRobin selects a topic using round-robin distribution.
func (s *topicSelector) selectRoundRobin() string {
	count := s.counter.Add(1) - 1
	//nolint:gosec // G115: Modulo ensures result fits in int range
	idx := int(count % uint64(len(s.topics)))
	return s.topics[idx]
}
