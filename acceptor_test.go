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
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	errorx "github.com/freecs/reactor/pkg/errors"
)

func TestAcceptorServesConnections(t *testing.T) {
	defer leaktest.Check(t)()
	g := NewGroup(WithNumEventLoop(2), WithPollTimeout(10*time.Millisecond))
	require.NoError(t, g.Start())

	var (
		mu      sync.Mutex
		remotes []net.Addr
	)
	a, err := Listen("tcp", "127.0.0.1:0", g, func(fd int, remote net.Addr) ConnHandler {
		mu.Lock()
		remotes = append(remotes, remote)
		mu.Unlock()
		return newEchoHandler(fd, Read)
	})
	require.NoError(t, err)

	c, err := net.Dial("tcp", a.Addr().String())
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = c.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))

	mu.Lock()
	require.Len(t, remotes, 1)
	assert.Equal(t, c.LocalAddr().String(), remotes[0].String())
	mu.Unlock()

	g.Shutdown()
	require.NoError(t, g.Wait())
	select {
	case <-a.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("listening socket was not closed")
	}
	assert.ErrorIs(t, a.Err(), errorx.ErrLoopShutdown)
}

func TestAcceptorTCPKeepAlive(t *testing.T) {
	defer leaktest.Check(t)()
	g := NewGroup(WithNumEventLoop(1), WithPollTimeout(10*time.Millisecond))
	require.NoError(t, g.Start())

	type sockopts struct{ keepAlive, interval int }
	accepted := make(chan sockopts, 1)
	a, err := Listen("tcp", "127.0.0.1:0", g, func(fd int, _ net.Addr) ConnHandler {
		var opts sockopts
		opts.keepAlive, _ = unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE)
		opts.interval, _ = unix.GetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL)
		accepted <- opts
		return newEchoHandler(fd, Read)
	}, WithTCPKeepAlive(1500*time.Millisecond))
	require.NoError(t, err)

	c, err := net.Dial("tcp", a.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	select {
	case opts := <-accepted:
		assert.NotZero(t, opts.keepAlive)
		assert.Equal(t, 1, opts.interval)
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not accepted")
	}

	g.Shutdown()
	require.NoError(t, g.Wait())
}

func TestListenFailsOnBadAddress(t *testing.T) {
	g := NewGroup(WithNumEventLoop(1))
	require.NoError(t, g.Start())
	defer func() {
		g.Shutdown()
		_ = g.Wait()
	}()
	_, err := Listen("tcp", "not an address", g, nil)
	assert.Error(t, err)
	_, err = Listen("udp", "127.0.0.1:0", g, nil)
	assert.Error(t, err)
}
