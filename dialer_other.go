// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package kafkasampler

import "syscall"

const socketBuffersSupported = false

// socketBufferControl is unsupported off unix; the OS defaults apply.
func socketBufferControl(int, int) func(network, address string, c syscall.RawConn) error {
	return nil
}
