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

package ring

import "golang.org/x/sys/unix"

// CopyFromSocket performs a single read(2) from fd into the free space of the buffer,
// growing it first when it is full or has never been allocated.
//
// The return values are those of unix.Read: n == 0 with a nil error means EOF.
func (rb *Buffer) CopyFromSocket(fd int) (n int, err error) {
	if rb.size == 0 || rb.IsFull() {
		rb.grow(rb.size + 1)
	}
	end := rb.size
	if !rb.isEmpty && rb.w < rb.r {
		end = rb.r
	}
	n, err = unix.Read(fd, rb.buf[rb.w:end])
	if n > 0 {
		rb.w = (rb.w + n) % rb.size
		rb.isEmpty = false
	}
	return
}
