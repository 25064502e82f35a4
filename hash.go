// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package kafkasampler

import "hash/fnv"

// hashKey maps a record key onto [0, n) using FNV-1a, so equal keys always
// land on the same topic.  Returns 0 if n <= 0.
func hashKey(key []byte, n int) int {
	if n <= 0 {
		return 0
	}

	h := fnv.New32a()
	_, _ = h.Write(key)

	//nolint:gosec // G115: Modulo ensures result fits in int range
	return int(h.Sum32() % uint32(n))
}
