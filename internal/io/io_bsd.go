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

//go:build darwin || dragonfly || freebsd

// Package io wraps the vectored I/O system calls used to flush outbound queues.
package io

import "golang.org/x/sys/unix"

// Writev falls back to one write() per slice because golang.org/x/sys does not expose writev() on these systems.
// It stops at the first short write and reports the bytes written so far.
func Writev(fd int, iov [][]byte) (int, error) {
	var sum int
	for i := range iov {
		n, err := unix.Write(fd, iov[i])
		if n > 0 {
			sum += n
		}
		if err != nil {
			if sum > 0 {
				return sum, nil
			}
			return -1, err
		}
		if n < len(iov[i]) {
			break
		}
	}
	return sum, nil
}
