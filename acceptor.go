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
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/freecs/reactor/internal/socket"
	errorx "github.com/freecs/reactor/pkg/errors"
	"github.com/freecs/reactor/pkg/logging"
)

// HandlerFactory wraps a freshly accepted socket in the handler that will own it.
type HandlerFactory func(fd int, remote net.Addr) ConnHandler

// Acceptor is a ListenHandler that accepts every pending connection and hands it
// to a Poller, typically a Group that spreads them over its workers.
type Acceptor struct {
	fd      int
	addr    net.Addr
	poller  Poller
	factory HandlerFactory
	logger  logging.Logger

	keepAlive time.Duration

	key       *Key
	closeOnce sync.Once
	done      chan struct{}
	err       error
}

// AcceptorOption configures an Acceptor.
type AcceptorOption func(a *Acceptor)

// WithTCPKeepAlive enables SO_KEEPALIVE on every accepted socket, with keep-alive messages after period of silence.
// Periods under one second are rounded up to one second.
func WithTCPKeepAlive(period time.Duration) AcceptorOption {
	return func(a *Acceptor) {
		a.keepAlive = period
	}
}

// Listen binds a TCP listening socket to addr and registers an Acceptor for it with poller.
func Listen(network, addr string, poller Poller, factory HandlerFactory, opts ...AcceptorOption) (*Acceptor, error) {
	fd, la, err := socket.TCPListen(network, addr)
	if err != nil {
		return nil, err
	}
	a := NewAcceptor(fd, la, poller, factory, opts...)
	if err = poller.AddListener(a); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return a, nil
}

// NewAcceptor wraps the listening socket fd bound to addr.
func NewAcceptor(fd int, addr net.Addr, poller Poller, factory HandlerFactory, opts ...AcceptorOption) *Acceptor {
	a := &Acceptor{
		fd:      fd,
		addr:    addr,
		poller:  poller,
		factory: factory,
		logger:  logging.GetDefaultLogger(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Addr returns the address the socket is bound to.
func (a *Acceptor) Addr() net.Addr {
	return a.addr
}

// FD implements ListenHandler.
func (a *Acceptor) FD() int {
	return a.fd
}

// Bind implements ListenHandler.
func (a *Acceptor) Bind(key *Key) {
	a.key = key
}

// OnAccept implements ListenHandler.
func (a *Acceptor) OnAccept() error {
	for {
		nfd, remote, err := socket.Accept(a.fd)
		switch err {
		case nil:
		case unix.EAGAIN:
			return nil
		case unix.EINTR, unix.ECONNABORTED:
			continue
		default:
			a.logger.Errorf("accept on %s failed due to error: %v", a.addr, err)
			return errorx.ErrAcceptSocket
		}

		logging.Error(socket.SetNoDelay(nfd, 1))
		if a.keepAlive > 0 {
			secs := int(a.keepAlive / time.Second)
			if secs == 0 {
				secs = 1
			}
			logging.Error(socket.SetKeepAlivePeriod(nfd, secs))
		}
		if err = a.poller.AddHandler(a.factory(nfd, remote)); err != nil {
			a.logger.Warnf("dropping connection from %s: %v", remote, err)
			_ = unix.Close(nfd)
		}
	}
}

// OnClose implements ListenHandler.
func (a *Acceptor) OnClose(err error) {
	a.closeOnce.Do(func() {
		a.err = err
		close(a.done)
	})
}

// Done is closed once the listening socket has been closed, Err tells why.
func (a *Acceptor) Done() <-chan struct{} {
	return a.done
}

// Err returns the reason the socket was closed, it is only meaningful after Done.
func (a *Acceptor) Err() error {
	return a.err
}
