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

package socket

import (
	"net"
	"strconv"

	errorx "github.com/freecs/reactor/pkg/errors"
)

// InterfaceAddrs returns host:port for every unicast address of every local interface.
// IPv6 link-local addresses are skipped since they cannot be bound without a zone.
func InterfaceAddrs(port int) ([]string, error) {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	p := strconv.Itoa(port)
	var addrs []string
	for _, a := range ifAddrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLinkLocalUnicast() || ipNet.IP.IsMulticast() {
			continue
		}
		addrs = append(addrs, net.JoinHostPort(ipNet.IP.String(), p))
	}
	if len(addrs) == 0 {
		return nil, errorx.ErrInvalidNetworkAddress
	}
	return addrs, nil
}
