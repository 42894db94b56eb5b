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

// Package netpoll wraps the kernel readiness multiplexer (epoll on Linux, kqueue on BSD-like systems)
// behind one small API used by event-loops.
//
// A Poller is owned by exactly one goroutine: Add, Mod, Delete and Wait must only be called
// from it. Wakeup is the only method that is safe to call from any goroutine.
package netpoll

const (
	// InitPollEventsCap represents the initial capacity of poller event-list.
	InitPollEventsCap = 128
	// MaxPollEventsCap is the maximum limitation of events that the poller can process.
	MaxPollEventsCap = 1024
	// MinPollEventsCap is the minimum limitation of events that the poller can process.
	MinPollEventsCap = 32
)

// IOEvent is a set of readiness conditions.
type IOEvent uint8

const (
	// EventRead means the descriptor is readable, or acceptable for a listening socket.
	EventRead IOEvent = 1 << iota
	// EventWrite means the descriptor is writable, or done connecting for a dialing socket.
	EventWrite
	// EventErr is reported alongside EventRead|EventWrite on errors and hang-ups.
	EventErr

	// EventNone registers a descriptor without read or write interest.
	EventNone IOEvent = 0
)

// Callback receives every ready descriptor in a Wait call.
type Callback func(fd int, ev IOEvent)

type sizer struct {
	size int
}

// next picks the event-list capacity for the following Wait from the number of events just returned.
func (s *sizer) next(n int) (resize bool) {
	switch {
	case n == s.size && s.size<<1 <= MaxPollEventsCap:
		s.size <<= 1
		return true
	case n < s.size>>2 && s.size>>1 >= MinPollEventsCap:
		s.size >>= 1
		return true
	}
	return false
}
