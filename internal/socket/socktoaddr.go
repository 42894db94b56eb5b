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

	"golang.org/x/sys/unix"

	errorx "github.com/freecs/reactor/pkg/errors"
)

// tcpSockaddr resolves addr into a unix.Sockaddr, "tcp" picks the family from the resolved IP.
func tcpSockaddr(proto, addr string) (sa unix.Sockaddr, family int, ipv6only bool, err error) {
	switch proto {
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, 0, false, errorx.ErrUnsupportedTCPProtocol
	}
	tcpAddr, err := net.ResolveTCPAddr(proto, addr)
	if err != nil {
		return nil, 0, false, err
	}
	sa, family, err = TCPAddrToSockaddr(proto, tcpAddr)
	return sa, family, proto == "tcp6", err
}

// TCPAddrToSockaddr converts a resolved TCP address into the matching unix.Sockaddr.
func TCPAddrToSockaddr(proto string, tcpAddr *net.TCPAddr) (unix.Sockaddr, int, error) {
	if ip4 := tcpAddr.IP.To4(); ip4 != nil && proto != "tcp6" {
		sa := &unix.SockaddrInet4{Port: tcpAddr.Port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET, nil
	}
	if len(tcpAddr.IP) == 0 && proto == "tcp4" {
		return &unix.SockaddrInet4{Port: tcpAddr.Port}, unix.AF_INET, nil
	}
	if proto == "tcp4" {
		return nil, 0, &net.AddrError{Err: "non-IPv4 address", Addr: tcpAddr.IP.String()}
	}
	sa := &unix.SockaddrInet6{Port: tcpAddr.Port}
	copy(sa.Addr[:], tcpAddr.IP.To16())
	if tcpAddr.Zone != "" {
		iface, err := net.InterfaceByName(tcpAddr.Zone)
		if err != nil {
			return nil, 0, err
		}
		sa.ZoneId = uint32(iface.Index)
	}
	return sa, unix.AF_INET6, nil
}

// SockaddrToTCPAddr converts a Sockaddr to a net.TCPAddr, it returns nil if conversion fails.
func SockaddrToTCPAddr(sa unix.Sockaddr) net.Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		return &net.TCPAddr{IP: ip, Port: sa.Port, Zone: ip6ZoneToString(int(sa.ZoneId))}
	}
	return nil
}

// ip6ZoneToString converts an IP6 Zone unix int to a net string, it returns "" if zone is 0.
func ip6ZoneToString(zone int) string {
	if zone == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(zone); err == nil {
		return ifi.Name
	}
	return strconv.Itoa(zone)
}
