// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import (
	"errors"
	"fmt"
	"strings"
)

// TopicShardStrategy specifies how records are distributed across multiple topics.
type TopicShardStrategy string

const (
	// TopicShardNone indicates single-topic routing (no sharding).
	TopicShardNone TopicShardStrategy = ""

	// TopicShardRoundRobin distributes records across topics in round-robin fashion.
	TopicShardRoundRobin TopicShardStrategy = "roundrobin"

	// TopicShardKey shards records by a hash of the record key.  Unkeyed
	// records fall back to round-robin.
	TopicShardKey TopicShardStrategy = "key"
)

var topicShardStrategyTypes map[TopicShardStrategy]struct{}
var topicShardStrategyList []string

func init() {
	list := []TopicShardStrategy{
		TopicShardRoundRobin,
		TopicShardKey,
	}

	topicShardStrategyTypes = make(map[TopicShardStrategy]struct{})
	for _, s := range list {
		topicShardStrategyTypes[s] = struct{}{}
		topicShardStrategyList = append(topicShardStrategyList, string(s))
	}
}

// validateTopicShardStrategy validates the strategy against the number of
// configured topics.  A single topic takes no strategy; several topics
// require one.
func validateTopicShardStrategy(strategy TopicShardStrategy, topics int) error {
	if topics <= 1 {
		if strategy != TopicShardNone {
			return errors.Join(ErrConfiguration,
				fmt.Errorf("%s must be empty for a single topic", ParamTopicShardStrategy))
		}
		return nil
	}

	if strategy == TopicShardNone {
		return errors.Join(ErrConfiguration,
			fmt.Errorf("%s is required when %s lists %d topics", ParamTopicShardStrategy, ParamTopic, topics))
	}

	if _, ok := topicShardStrategyTypes[strategy]; ok {
		return nil
	}

	list := strings.Join(topicShardStrategyList, "', '")
	list = "'" + list + "'"
	return errors.Join(ErrConfiguration,
		fmt.Errorf("topic shard strategy '%s' is invalid: must be %s", strategy, list))
}
