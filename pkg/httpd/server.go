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

package httpd

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/internal/socket"
)

// Server serves HTTP on one dedicated listener loop per address and a pool of worker loops.
type Server struct {
	opts    *Options
	group   *reactor.Group
	tracker *Tracker

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
		opts:    options,
		group:   reactor.NewGroup(ropts...),
		tracker: NewTracker(options.IdleTimeout, options.Logger),
	}
}

// Start binds every address and starts serving, a bind failure stops whatever was started.
func (s *Server) Start(ctx context.Context) (err error) {
	addrs := s.opts.Addrs
	if len(addrs) == 0 {
		if addrs, err = socket.InterfaceAddrs(s.opts.Port); err != nil {
			return errors.Wrap(err, "httpd: enumerate interface addresses")
		}
	}
	if err = s.group.Start(); err != nil {
		return errors.Wrap(err, "httpd: start event-loops")
	}
	if err = s.tracker.Start(ctx); err != nil {
		s.group.Shutdown()
		_ = s.group.Wait()
		return err
	}
	var aopts []reactor.AcceptorOption
	if s.opts.TCPKeepAlive > 0 {
		aopts = append(aopts, reactor.WithTCPKeepAlive(s.opts.TCPKeepAlive))
	}
	for _, addr := range addrs {
		a, err := Listen(addr, s.group, s.tracker, s.opts.Responder, aopts...)
		if err != nil {
			_ = s.Stop()
			return err
		}
		s.opts.Logger.Infof("httpd listening on %s", a.Addr())
		s.mu.Lock()
		s.acceptors = append(s.acceptors, a)
		s.mu.Unlock()
	}
	return nil
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

// Tracker returns the idle-connection tracker.
func (s *Server) Tracker() *Tracker {
	return s.tracker
}

// Stop closes every listener and connection and waits for the event-loops to exit.
func (s *Server) Stop() error {
	s.tracker.Stop()
	s.group.Shutdown()
	return s.group.Wait()
}
