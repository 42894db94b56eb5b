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

/*
Package reactor is a small non-blocking network I/O framework built on the reactor pattern.

An EventLoop owns one kernel multiplexer (epoll or kqueue) and runs on its own goroutine.
Handlers are registered through a queue that the loop drains at the top of every iteration,
the loop then waits for readiness and calls back into the handler owning each ready socket.

A Group distributes work over several loops: every listening socket gets a dedicated loop
and accepted or dialed connections are spread over a pool of worker loops in round-robin order.

Two roles exist, expressed as two interfaces:

	ListenHandler  owns a listening socket and is told when connections are pending
	ConnHandler    owns a connected (or connecting) socket and is told when it can make progress

Callbacks run on the loop goroutine and must never block. The loop closes a socket when one
of its callbacks returns an error. Other goroutines act on a connection only through Execute,
which runs a function on the owning loop.

	g := reactor.NewGroup(reactor.WithNumEventLoop(4))
	if err := g.Start(); err != nil {
		log.Fatal(err)
	}
	defer g.Shutdown()
	_ = g.AddListener(myListener)

The pkg/httpd and pkg/messaging packages are two protocol stacks built on top of it.
*/
package reactor
