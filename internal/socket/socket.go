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

// Package socket creates the non-blocking TCP sockets handed over to event-loops.
package socket

import (
	"net"
	"os"

	"golang.org/x/sys/unix"

	errorx "github.com/freecs/reactor/pkg/errors"
)

// Option is used for setting an option on socket.
type Option struct {
	SetSockopt func(int, int) error
	Opt        int
}

var listenerBacklogMaxSize = maxListenerBacklog()

// TCPListen binds a non-blocking listening socket to addr and returns its descriptor
// together with the address it is actually bound to.
func TCPListen(proto, addr string, sockopts ...Option) (fd int, netAddr net.Addr, err error) {
	sa, family, ipv6only, err := tcpSockaddr(proto, addr)
	if err != nil {
		return -1, nil, err
	}

	if fd, err = sysSocket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP); err != nil {
		return -1, nil, os.NewSyscallError("socket", err)
	}
	defer func() {
		if err != nil {
			_ = unix.Close(fd)
			fd = -1
		}
	}()

	if family == unix.AF_INET6 && ipv6only {
		if err = SetIPv6Only(fd, 1); err != nil {
			return
		}
	}
	if err = SetReuseAddr(fd, 1); err != nil {
		return
	}
	for _, sockopt := range sockopts {
		if err = sockopt.SetSockopt(fd, sockopt.Opt); err != nil {
			return
		}
	}

	if err = os.NewSyscallError("bind", unix.Bind(fd, sa)); err != nil {
		return
	}
	if err = os.NewSyscallError("listen", unix.Listen(fd, listenerBacklogMaxSize)); err != nil {
		return
	}
	netAddr, err = LocalAddr(fd)
	return
}

// TCPDial resolves addr and starts a non-blocking connect to it. connected reports whether
// the connection completed immediately, otherwise the caller must wait for the socket
// to become writable and call FinishConnect.
func TCPDial(proto, addr string, sockopts ...Option) (fd int, remote *net.TCPAddr, connected bool, err error) {
	switch proto {
	case "tcp", "tcp4", "tcp6":
	default:
		return -1, nil, false, errorx.ErrUnsupportedTCPProtocol
	}
	if remote, err = net.ResolveTCPAddr(proto, addr); err != nil {
		return -1, nil, false, err
	}
	sa, family, err := TCPAddrToSockaddr(proto, remote)
	if err != nil {
		return -1, nil, false, err
	}
	fd, connected, err = DialSockaddr(family, sa, sockopts...)
	return
}

// DialSockaddr is like TCPDial for an already resolved address.
func DialSockaddr(family int, sa unix.Sockaddr, sockopts ...Option) (fd int, connected bool, err error) {
	if fd, err = sysSocket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP); err != nil {
		return -1, false, os.NewSyscallError("socket", err)
	}
	for _, sockopt := range sockopts {
		if err = sockopt.SetSockopt(fd, sockopt.Opt); err != nil {
			_ = unix.Close(fd)
			return -1, false, err
		}
	}
	switch err = unix.Connect(fd, sa); err {
	case nil:
		return fd, true, nil
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		return fd, false, nil
	default:
		_ = unix.Close(fd)
		return -1, false, os.NewSyscallError("connect", err)
	}
}

// FinishConnect reports the outcome of a non-blocking connect once the socket turned writable.
func FinishConnect(fd int) error {
	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return os.NewSyscallError("getsockopt", err)
	}
	if soErr != 0 {
		return os.NewSyscallError("connect", unix.Errno(soErr))
	}
	return nil
}

// IsConnected reports whether the socket already has a peer.
func IsConnected(fd int) bool {
	_, err := unix.Getpeername(fd)
	return err == nil
}

// Accept takes one pending connection off a listening socket, the new socket is non-blocking.
// It returns unix.EAGAIN when the backlog is empty.
func Accept(fd int) (int, net.Addr, error) {
	nfd, sa, err := sysAccept(fd)
	if err != nil {
		return -1, nil, err
	}
	return nfd, SockaddrToTCPAddr(sa), nil
}

// LocalAddr returns the address fd is bound to.
func LocalAddr(fd int) (net.Addr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil, os.NewSyscallError("getsockname", err)
	}
	if addr := SockaddrToTCPAddr(sa); addr != nil {
		return addr, nil
	}
	return nil, errorx.ErrInvalidNetworkAddress
}
