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

package reactor

import (
	"strings"

	"github.com/freecs/reactor/internal/netpoll"
)

// Interest is the set of events a handler wants to be notified of.
type Interest uint8

const (
	// Accept fires when a listening socket has pending connections.
	Accept Interest = 1 << iota
	// Connect fires when a non-blocking connect has completed or failed.
	Connect
	// Read fires when the socket has data to read or the peer hung up.
	Read
	// Write fires when the socket can take more outbound data.
	Write
)

func (i Interest) String() string {
	if i == 0 {
		return "none"
	}
	var names []string
	for _, v := range []struct {
		bit  Interest
		name string
	}{{Accept, "accept"}, {Connect, "connect"}, {Read, "read"}, {Write, "write"}} {
		if i&v.bit != 0 {
			names = append(names, v.name)
		}
	}
	return strings.Join(names, "|")
}

func (i Interest) events() (ev netpoll.IOEvent) {
	if i&(Accept|Read) != 0 {
		ev |= netpoll.EventRead
	}
	if i&(Connect|Write) != 0 {
		ev |= netpoll.EventWrite
	}
	return
}

// ListenHandler owns a listening socket.
type ListenHandler interface {
	// FD returns the listening socket.
	FD() int
	// Bind hands over the registration key once the loop has registered the socket.
	Bind(key *Key)
	// OnAccept is called when connections are pending, it should accept until EAGAIN.
	OnAccept() error
	// OnClose is called exactly once after the socket has been closed.
	OnClose(err error)
}

// ConnHandler owns one connected or connecting socket.
type ConnHandler interface {
	// FD returns the socket.
	FD() int
	// Interest returns the interest the socket is registered with.
	Interest() Interest
	// Bind hands over the registration key once the loop has registered the socket.
	Bind(key *Key)
	// OnConnect is called when a pending connect completes.
	OnConnect() error
	// OnRead is called when the socket is readable.
	OnRead() error
	// OnWrite is called when the socket is writable.
	OnWrite() error
	// OnClose is called exactly once after the socket has been closed.
	OnClose(err error)
}

// Poller hosts handlers, both EventLoop and Group implement it.
type Poller interface {
	// Start launches the event-loop goroutines.
	Start() error
	// AddListener registers a listening socket.
	AddListener(h ListenHandler) error
	// AddHandler registers a connection.
	AddHandler(h ConnHandler) error
	// Shutdown asks every event-loop to stop and close its sockets.
	Shutdown()
}
