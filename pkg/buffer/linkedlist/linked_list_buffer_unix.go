// Copyright (c) 2026 The Reactor Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build darwin || dragonfly || freebsd || linux

package linkedlist

import (
	"golang.org/x/sys/unix"

	"github.com/freecs/reactor/internal/io"
)

// maxWritevBytes caps the bytes handed to a single writev call.
const maxWritevBytes = 256 * 1024

// iovMax is the default value of UIO_MAXIOV/IOV_MAX on Linux and most BSD-like OSs,
// writev fails with EINVAL when handed more vectors than that.
const iovMax = 1024

// WriteToSocket flushes as much of the queue into fd as the socket accepts in one vectored write.
// EAGAIN is not an error, it leaves the queue as it is.
func (llb *Buffer) WriteToSocket(fd int) (n int, err error) {
	if llb.IsEmpty() {
		return 0, nil
	}
	iov := llb.Peek(maxWritevBytes)
	if len(iov) > iovMax {
		iov = iov[:iovMax]
	}
	n, err = io.Writev(fd, iov)
	if err != nil {
		if err == unix.EAGAIN {
			err = nil
		}
		return 0, err
	}
	llb.Discard(n)
	return
}
