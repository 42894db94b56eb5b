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

package messaging

import (
	"github.com/freecs/reactor"
	"github.com/freecs/reactor/pkg/logging"
)

// DefaultPort is the port bound on every interface when no address is configured.
const DefaultPort = 1976

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	if opts.Port <= 0 {
		opts.Port = DefaultPort
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetDefaultLogger()
	}
	return opts
}

// Options are configurations for the messaging server.
type Options struct {
	// Addrs lists the host:port pairs to listen on, every interface address on Port if empty.
	Addrs []string

	// Port is used with interface enumeration when Addrs is empty, 1976 by default.
	Port int

	// NumEventLoop is the number of worker event-loops, runtime.NumCPU() by default.
	NumEventLoop int

	// OnMessage receives every message from every connection.
	OnMessage MessageFunc

	// Logger is the customized logger, the default logger from pkg/logging if unset.
	Logger logging.Logger

	// Reactor holds extra options for the underlying group of event-loops.
	Reactor []reactor.Option
}

// WithAddrs sets the addresses to listen on.
func WithAddrs(addrs ...string) Option {
	return func(opts *Options) {
		opts.Addrs = addrs
	}
}

// WithPort sets the port bound on every interface.
func WithPort(port int) Option {
	return func(opts *Options) {
		opts.Port = port
	}
}

// WithNumEventLoop sets the number of worker event-loops.
func WithNumEventLoop(n int) Option {
	return func(opts *Options) {
		opts.NumEventLoop = n
	}
}

// WithOnMessage sets the message callback.
func WithOnMessage(fn MessageFunc) Option {
	return func(opts *Options) {
		opts.OnMessage = fn
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithReactorOptions passes options through to the group of event-loops.
func WithReactorOptions(options ...reactor.Option) Option {
	return func(opts *Options) {
		opts.Reactor = append(opts.Reactor, options...)
	}
}
