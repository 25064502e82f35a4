// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package kafkasampler

import (
	"syscall"

	"golang.org/x/sys/unix"
)

const socketBuffersSupported = true

// socketBufferControl returns a net.Dialer Control func setting SO_SNDBUF
// and SO_RCVBUF.  Sizes <= 0 keep the OS default.  Returns nil if both do.
func socketBufferControl(sendBuffer, receiveBuffer int) func(network, address string, c syscall.RawConn) error {
	if sendBuffer <= 0 && receiveBuffer <= 0 {
		return nil
	}

	return func(_, _ string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			if sendBuffer > 0 {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, sendBuffer)
				if serr != nil {
					return
				}
			}
			if receiveBuffer > 0 {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, receiveBuffer)
			}
		})
		if err != nil {
			return err
		}
		return serr
	}
}
