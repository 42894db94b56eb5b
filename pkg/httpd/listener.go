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
	"net"

	"github.com/pkg/errors"

	"github.com/freecs/reactor"
)

// Listen binds addr and serves HTTP on every connection it accepts, the connections are
// registered with poller and tracked by tracker once they turn out to be keep-alive.
func Listen(addr string, poller reactor.Poller, tracker *Tracker, responder Responder,
	opts ...reactor.AcceptorOption,
) (*reactor.Acceptor, error) {
	a, err := reactor.Listen("tcp", addr, poller, func(fd int, remote net.Addr) reactor.ConnHandler {
		return NewConnHandler(fd, remote, tracker, responder)
	}, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "httpd: listen on %s", addr)
	}
	return a, nil
}
