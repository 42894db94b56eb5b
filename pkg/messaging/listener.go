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

	"github.com/pkg/errors"

	"github.com/freecs/reactor"
)

// Listen binds addr and registers every accepted connection with poller,
// each connection joins hub as soon as it is registered.
func Listen(addr string, poller reactor.Poller, hub *Hub, onMessage MessageFunc) (*reactor.Acceptor, error) {
	a, err := reactor.Listen("tcp", addr, poller, func(fd int, remote net.Addr) reactor.ConnHandler {
		return NewHandler(fd, remote, reactor.Read, hub, onMessage)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "messaging: listen on %s", addr)
	}
	return a, nil
}
