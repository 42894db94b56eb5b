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

package messaging

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/internal/socket"
	"github.com/freecs/reactor/pkg/pool/goroutine"
)

var (
	resolverPool     *goroutine.Pool
	resolverPoolOnce sync.Once
)

func workerPool() *goroutine.Pool {
	resolverPoolOnce.Do(func() {
		resolverPool = goroutine.Default()
	})
	return resolverPool
}

// DialResult is the outcome of Dial.
type DialResult struct {
	Handler *Handler
	Err     error
}

// Dial resolves addr on a worker goroutine, starts a non-blocking connect and registers
// the connection with poller. The handler joins hub once the connect completes.
// The returned channel yields exactly one result.
func Dial(poller reactor.Poller, hub *Hub, addr string, onMessage MessageFunc) <-chan DialResult {
	res := make(chan DialResult, 1)
	err := workerPool().Submit(func() {
		h, err := dial(poller, hub, addr, onMessage)
		res <- DialResult{Handler: h, Err: err}
	})
	if err != nil {
		res <- DialResult{Err: errors.Wrap(err, "messaging: schedule dial")}
	}
	return res
}

func dial(poller reactor.Poller, hub *Hub, addr string, onMessage MessageFunc) (*Handler, error) {
	fd, tcpAddr, _, err := socket.TCPDial("tcp", addr, socket.Option{SetSockopt: socket.SetNoDelay, Opt: 1})
	if err != nil {
		return nil, errors.Wrapf(err, "messaging: dial %s", addr)
	}
	// The event-loop calls OnConnect right away if the connect already completed.
	h := NewHandler(fd, tcpAddr, reactor.Connect, hub, onMessage)
	if err = poller.AddHandler(h); err != nil {
		_ = unix.Close(fd)
		return nil, errors.Wrapf(err, "messaging: register %s", addr)
	}
	return h, nil
}
