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
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/internal/socket"
)

// Server accepts messaging peers on one dedicated listener loop per address,
// dials other servers and broadcasts to every connected peer.
type Server struct {
	opts  *Options
	group *reactor.Group
	hub   *Hub

	mu        sync.Mutex
	acceptors []*reactor.Acceptor
}

// NewServer returns a stopped server.
func NewServer(opts ...Option) *Server {
	options := loadOptions(opts...)
	ropts := append([]reactor.Option{
		reactor.WithNumEventLoop(options.NumEventLoop),
		reactor.WithLogger(options.Logger),
	}, options.Reactor...)
	return &Server{
		opts:  options,
		group: reactor.NewGroup(ropts...),
		hub:   NewHub(),
	}
}

// Start binds every address and starts serving, a bind failure stops whatever was started.
func (s *Server) Start() (err error) {
	addrs := s.opts.Addrs
	if len(addrs) == 0 {
		if addrs, err = socket.InterfaceAddrs(s.opts.Port); err != nil {
			return errors.Wrap(err, "messaging: enumerate interface addresses")
		}
	}
	if err = s.group.Start(); err != nil {
		return errors.Wrap(err, "messaging: start event-loops")
	}
	for _, addr := range addrs {
		a, err := Listen(addr, s.group, s.hub, s.opts.OnMessage)
		if err != nil {
			_ = s.Stop()
			return err
		}
		s.opts.Logger.Infof("messaging listening on %s", a.Addr())
		s.mu.Lock()
		s.acceptors = append(s.acceptors, a)
		s.mu.Unlock()
	}
	return nil
}

// Connect dials another server, see Dial.
func (s *Server) Connect(addr string) <-chan DialResult {
	return Dial(s.group, s.hub, addr, s.opts.OnMessage)
}

// Broadcast queues msg on every connected peer and returns how many accepted it.
func (s *Server) Broadcast(msg string) int {
	return s.hub.Broadcast(msg)
}

// Hub returns the set of connected peers.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addrs returns the bound addresses.
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]net.Addr, 0, len(s.acceptors))
	for _, a := range s.acceptors {
		addrs = append(addrs, a.Addr())
	}
	return addrs
}

// Stop closes every listener and connection and waits for the event-loops to exit.
func (s *Server) Stop() error {
	s.group.Shutdown()
	return s.group.Wait()
}
