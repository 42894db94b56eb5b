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

// Package errors defines common errors for reactor.
package errors

import "errors"

var (
	// ErrLoopShutdown occurs when an event-loop is closing.
	ErrLoopShutdown = errors.New("reactor: event-loop is going to be shutdown")
	// ErrLoopInShutdown occurs when attempting to shut an event-loop down more than once.
	ErrLoopInShutdown = errors.New("reactor: event-loop is already in shutdown")
	// ErrLoopNotRunning occurs when submitting work to an event-loop that has not been started or has exited.
	ErrLoopNotRunning = errors.New("reactor: event-loop is not running")
	// ErrUnsupportedHandler occurs when registering a handler that is neither a listener nor a connection handler.
	ErrUnsupportedHandler = errors.New("reactor: handler must be a ListenHandler or a ConnHandler")
	// ErrInvalidKey occurs when operating on a registration token that has been cancelled.
	ErrInvalidKey = errors.New("reactor: registration key is no longer valid")
	// ErrDuplicateRegistration occurs when a file descriptor is registered twice with one event-loop.
	ErrDuplicateRegistration = errors.New("reactor: file descriptor is already registered")
	// ErrAcceptSocket occurs when acceptor does not accept the new connection properly.
	ErrAcceptSocket = errors.New("reactor: accept a new connection error")
	// ErrTooManyEventLoopThreads occurs when attempting to set up more than 10,000 event-loop goroutines under LockOSThread mode.
	ErrTooManyEventLoopThreads = errors.New("reactor: too many event-loops under LockOSThread mode")
	// ErrUnsupportedTCPProtocol occurs when trying to use an unsupported TCP protocol.
	ErrUnsupportedTCPProtocol = errors.New("reactor: only tcp/tcp4/tcp6 are supported")
	// ErrUnsupportedOp occurs when calling some methods that are either not supported or have not been implemented yet.
	ErrUnsupportedOp = errors.New("reactor: unsupported operation")
	// ErrNegativeSize occurs when trying to pass a negative size to a buffer.
	ErrNegativeSize = errors.New("reactor: negative size is not allowed")
	// ErrInvalidNetworkAddress occurs when the network address is invalid.
	ErrInvalidNetworkAddress = errors.New("reactor: invalid network address")
	// ErrInvalidKeepAlivePeriod occurs when enabling TCP keep-alive with a period below one second.
	ErrInvalidKeepAlivePeriod = errors.New("reactor: invalid tcp keep-alive period")
	// ErrConnectionClosed occurs when the peer closes its end of the connection.
	ErrConnectionClosed = errors.New("reactor: connection closed by peer")
	// ErrIdleTimeout occurs when a keep-alive connection stays idle past its deadline.
	ErrIdleTimeout = errors.New("reactor: connection idle timeout")
	// ErrOutboundOverflow occurs when a connection accumulates more unsent bytes than allowed.
	ErrOutboundOverflow = errors.New("reactor: outbound queue exceeds its limit")
	// ErrFrameTooLarge occurs when a length prefix announces a frame above the configured maximum.
	ErrFrameTooLarge = errors.New("reactor: frame exceeds the maximum size")
	// ErrTrackerStarted occurs when starting an idle tracker more than once.
	ErrTrackerStarted = errors.New("reactor: idle tracker is already started")
	// ErrNilRunnable occurs when trying to execute a nil runnable.
	ErrNilRunnable = errors.New("reactor: nil runnable is not allowed")
)
