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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/freecs/reactor/internal/socket"
)

// echoHandler writes back whatever it reads, switching write interest on and off.
type echoHandler struct {
	fd       int
	interest Interest
	key      *Key
	out      []byte

	binds     atomic.Int32
	connects  atomic.Int32
	closed    chan error
	onRead    func(h *echoHandler, p []byte) error
	loopCheck func(*Key)
}

func newEchoHandler(fd int, interest Interest) *echoHandler {
	return &echoHandler{fd: fd, interest: interest, closed: make(chan error, 1)}
}

func (h *echoHandler) FD() int            { return h.fd }
func (h *echoHandler) Interest() Interest { return h.interest }

func (h *echoHandler) Bind(key *Key) {
	h.binds.Add(1)
	h.key = key
}

func (h *echoHandler) OnConnect() error {
	h.connects.Add(1)
	if err := socket.FinishConnect(h.fd); err != nil {
		return err
	}
	return h.key.SetInterest(Read)
}

func (h *echoHandler) OnRead() error {
	if h.loopCheck != nil {
		h.loopCheck(h.key)
	}
	buf := make([]byte, 4096)
	n, err := unix.Read(h.fd, buf)
	switch {
	case err == unix.EAGAIN:
		return nil
	case err != nil:
		return err
	case n == 0:
		return unix.ECONNRESET
	}
	if h.onRead != nil {
		return h.onRead(h, buf[:n])
	}
	h.out = append(h.out, buf[:n]...)
	return h.key.AddInterest(Write)
}

func (h *echoHandler) OnWrite() error {
	n, err := unix.Write(h.fd, h.out)
	if err != nil {
		if err == unix.EAGAIN {
			return nil
		}
		return err
	}
	if h.out = h.out[n:]; len(h.out) == 0 {
		return h.key.RemoveInterest(Write)
	}
	return nil
}

func (h *echoHandler) OnClose(err error) {
	h.closed <- err
}

// acceptor hands every accepted socket to a Poller wrapped in an echoHandler.
type acceptor struct {
	fd     int
	poller Poller
	key    *Key

	mu       sync.Mutex
	accepted []*echoHandler
	closed   chan error
}

func (a *acceptor) FD() int       { return a.fd }
func (a *acceptor) Bind(key *Key) { a.key = key }

func (a *acceptor) OnAccept() error {
	for {
		nfd, _, err := socket.Accept(a.fd)
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return err
		}
		h := newEchoHandler(nfd, Read)
		a.mu.Lock()
		a.accepted = append(a.accepted, h)
		a.mu.Unlock()
		if err = a.poller.AddHandler(h); err != nil {
			_ = unix.Close(nfd)
		}
	}
}

func (a *acceptor) OnClose(err error) {
	if a.closed != nil {
		a.closed <- err
	}
}

func (a *acceptor) handlers() []*echoHandler {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*echoHandler(nil), a.accepted...)
}

func socketPair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))
	return fds[0], fds[1]
}
