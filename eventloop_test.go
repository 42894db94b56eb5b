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
	"errors"
	"net"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/freecs/reactor/internal/socket"
	errorx "github.com/freecs/reactor/pkg/errors"
)

func startLoop(t *testing.T) *EventLoop {
	t.Helper()
	el, err := NewEventLoop(WithPollTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, el.Start())
	return el
}

func stopLoop(el *EventLoop) {
	el.Shutdown()
	<-el.Done()
}

func readFull(t *testing.T, fd int, n int) string {
	t.Helper()
	var got []byte
	buf := make([]byte, n)
	deadline := time.Now().Add(5 * time.Second)
	for len(got) < n && time.Now().Before(deadline) {
		m, err := unix.Read(fd, buf[:n-len(got)])
		if err == unix.EAGAIN || err == unix.EINTR {
			time.Sleep(time.Millisecond)
			continue
		}
		require.NoError(t, err)
		if m == 0 {
			break
		}
		got = append(got, buf[:m]...)
	}
	return string(got)
}

func waitClosed(t *testing.T, h *echoHandler) error {
	t.Helper()
	select {
	case err := <-h.closed:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not closed in time")
	}
	return nil
}

func TestEventLoopEcho(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	a, b := socketPair(t)
	defer unix.Close(b) //nolint:errcheck
	h := newEchoHandler(a, Read)
	require.NoError(t, el.AddHandler(h))

	_, err := unix.Write(b, []byte("hello reactor"))
	require.NoError(t, err)
	assert.Equal(t, "hello reactor", readFull(t, b, len("hello reactor")))
	assert.EqualValues(t, 1, h.binds.Load(), "a registration must be applied exactly once")
	assert.Equal(t, el, h.key.Loop())

	// the write interest is withdrawn once the outbound data is flushed
	done := make(chan Interest, 1)
	require.NoError(t, el.Execute(func() { done <- h.key.Interest() }))
	assert.Equal(t, Read, <-done)
}

func TestEventLoopClosesOnHandlerError(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	a, b := socketPair(t)
	defer unix.Close(b) //nolint:errcheck
	boom := errors.New("boom")
	h := newEchoHandler(a, Read)
	h.onRead = func(*echoHandler, []byte) error { return boom }
	require.NoError(t, el.AddHandler(h))

	_, err := unix.Write(b, []byte("x"))
	require.NoError(t, err)
	assert.ErrorIs(t, waitClosed(t, h), boom)
	assert.False(t, h.key.Valid())
	assert.Equal(t, "", readFull(t, b, 1), "expect EOF once the loop closed the socket")
}

func TestEventLoopPeerHangUp(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	a, b := socketPair(t)
	h := newEchoHandler(a, Read)
	require.NoError(t, el.AddHandler(h))
	require.NoError(t, unix.Close(b))
	assert.ErrorIs(t, waitClosed(t, h), unix.ECONNRESET)
}

func TestEventLoopShutdownClosesSockets(t *testing.T) {
	defer leaktest.Check(t)()
	el, err := NewEventLoop()
	require.NoError(t, err)
	require.NoError(t, el.Start())
	assert.ErrorIs(t, el.Start(), errorx.ErrLoopInShutdown)

	a, b := socketPair(t)
	defer unix.Close(b) //nolint:errcheck
	h := newEchoHandler(a, Read)
	require.NoError(t, el.AddHandler(h))
	require.Eventually(t, func() bool { return h.binds.Load() == 1 }, 5*time.Second, time.Millisecond)

	el.Shutdown()
	el.Shutdown()
	<-el.Done()
	assert.ErrorIs(t, waitClosed(t, h), errorx.ErrLoopShutdown)
	assert.ErrorIs(t, el.AddHandler(newEchoHandler(-1, Read)), errorx.ErrLoopShutdown)
	assert.ErrorIs(t, el.Execute(func() {}), errorx.ErrLoopShutdown)
}

func TestEventLoopShutdownBeforeStart(t *testing.T) {
	el, err := NewEventLoop()
	require.NoError(t, err)

	a, b := socketPair(t)
	defer unix.Close(b) //nolint:errcheck
	h := newEchoHandler(a, Read)
	require.NoError(t, el.AddHandler(h))

	el.Shutdown()
	<-el.Done()
	assert.ErrorIs(t, waitClosed(t, h), errorx.ErrLoopShutdown, "queued registrations are released too")
	assert.NoError(t, el.Run(), "a loop shut down before it ran exits cleanly")
	assert.ErrorIs(t, el.Start(), errorx.ErrLoopInShutdown)
}

func TestEventLoopExecute(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	assert.ErrorIs(t, el.Execute(nil), errorx.ErrNilRunnable)

	a, b := socketPair(t)
	defer unix.Close(b) //nolint:errcheck
	h := newEchoHandler(a, Read)
	require.NoError(t, el.AddHandler(h))
	require.Eventually(t, func() bool { return h.binds.Load() == 1 }, 5*time.Second, time.Millisecond)

	// Cancel from a foreign goroutine runs the close on the loop.
	require.NoError(t, h.key.Cancel(errorx.ErrIdleTimeout))
	assert.ErrorIs(t, waitClosed(t, h), errorx.ErrIdleTimeout)
	assert.NoError(t, h.key.Cancel(errorx.ErrIdleTimeout), "cancelling twice is a no-op")
}

func TestEventLoopDuplicateRegistration(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	a, b := socketPair(t)
	defer unix.Close(b) //nolint:errcheck
	first := newEchoHandler(a, Read)
	second := newEchoHandler(a, Read)
	require.NoError(t, el.AddHandler(first))
	require.NoError(t, el.AddHandler(second))

	assert.ErrorIs(t, waitClosed(t, second), errorx.ErrDuplicateRegistration)
	assert.EqualValues(t, 1, first.binds.Load())
	assert.Zero(t, second.binds.Load())

	// the first registration is untouched
	_, err := unix.Write(b, []byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", readFull(t, b, 2))
}

func TestEventLoopConnect(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close() //nolint:errcheck

	fd, _, _, err := socket.TCPDial("tcp", ln.Addr().String())
	require.NoError(t, err)
	h := newEchoHandler(fd, Connect)
	require.NoError(t, el.AddHandler(h))

	c, err := ln.Accept()
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck

	require.Eventually(t, func() bool { return h.connects.Load() == 1 }, 5*time.Second, time.Millisecond)
	_, err = c.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))
	assert.EqualValues(t, 1, h.connects.Load())
}

func TestEventLoopConnectRefused(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	fd, _, _, err := socket.TCPDial("tcp", addr)
	if err != nil {
		t.Skipf("connect failed synchronously: %v", err)
	}
	h := newEchoHandler(fd, Connect)
	require.NoError(t, el.AddHandler(h))
	assert.ErrorIs(t, waitClosed(t, h), unix.ECONNREFUSED)
}

func TestEventLoopListener(t *testing.T) {
	defer leaktest.Check(t)()
	el := startLoop(t)
	defer stopLoop(el)

	lfd, addr, err := socket.TCPListen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	acc := &acceptor{fd: lfd, poller: el, closed: make(chan error, 1)}
	require.NoError(t, el.AddListener(acc))

	c, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer c.Close() //nolint:errcheck
	_, err = c.Write([]byte("echo"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "echo", string(buf[:n]))
	assert.Len(t, acc.handlers(), 1)
}

func TestInterestString(t *testing.T) {
	assert.Equal(t, "none", Interest(0).String())
	assert.Equal(t, "read|write", (Read | Write).String())
	assert.Equal(t, "accept", Accept.String())
}
