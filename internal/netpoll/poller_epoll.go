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

//go:build linux

package netpoll

import (
	"encoding/binary"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const (
	readEvents  = unix.EPOLLIN | unix.EPOLLPRI | unix.EPOLLRDHUP
	writeEvents = unix.EPOLLOUT
	errEvents   = unix.EPOLLERR | unix.EPOLLHUP
)

// Poller monitors file descriptors with epoll, an eventfd breaks a pending Wait.
type Poller struct {
	fd         int // epoll fd
	efd        int // eventfd
	efdBuf     []byte
	wakeupCall int32
	sizer      sizer
	events     []unix.EpollEvent
}

// OpenPoller instantiates a poller.
func OpenPoller() (poller *Poller, err error) {
	poller = &Poller{fd: -1, efd: -1}
	if poller.fd, err = unix.EpollCreate1(unix.EPOLL_CLOEXEC); err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	if poller.efd, err = unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC); err != nil {
		_ = poller.Close()
		return nil, os.NewSyscallError("eventfd", err)
	}
	if err = poller.Add(poller.efd, EventRead); err != nil {
		_ = poller.Close()
		return nil, err
	}
	poller.efdBuf = make([]byte, 8)
	poller.sizer.size = InitPollEventsCap
	poller.events = make([]unix.EpollEvent, InitPollEventsCap)
	return
}

// Close closes the poller.
func (p *Poller) Close() error {
	if p.efd >= 0 {
		_ = unix.Close(p.efd)
	}
	return os.NewSyscallError("close", unix.Close(p.fd))
}

var one = func() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, 1)
	return b
}()

// Wakeup makes the current or next Wait return early.
func (p *Poller) Wakeup() (err error) {
	if atomic.CompareAndSwapInt32(&p.wakeupCall, 0, 1) {
		for {
			if _, err = unix.Write(p.efd, one); err != unix.EINTR {
				break
			}
		}
		if err == unix.EAGAIN {
			err = nil
		}
	}
	return os.NewSyscallError("write", err)
}

// Wait blocks for at most msec milliseconds (forever when negative) and hands every ready
// descriptor to callback. It returns the number of descriptors delivered, an interrupted wait
// reports zero and no error.
func (p *Poller) Wait(msec int, callback Callback) (int, error) {
	n, err := unix.EpollWait(p.fd, p.events, msec)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, os.NewSyscallError("epoll_wait", err)
	}

	delivered := 0
	for i := 0; i < n; i++ {
		ev := &p.events[i]
		fd := int(ev.Fd)
		if fd == p.efd {
			_, _ = unix.Read(p.efd, p.efdBuf)
			atomic.StoreInt32(&p.wakeupCall, 0)
			continue
		}
		var rev IOEvent
		if ev.Events&errEvents != 0 {
			rev = EventRead | EventWrite | EventErr
		}
		if ev.Events&readEvents != 0 {
			rev |= EventRead
		}
		if ev.Events&writeEvents != 0 {
			rev |= EventWrite
		}
		callback(fd, rev)
		delivered++
	}

	if p.sizer.next(n) {
		p.events = make([]unix.EpollEvent, p.sizer.size)
	}
	return delivered, nil
}

func epollEvents(ev IOEvent) uint32 {
	var events uint32
	if ev&EventRead != 0 {
		events |= readEvents
	}
	if ev&EventWrite != 0 {
		events |= writeEvents
	}
	return events
}

// Add registers fd with the given interest.
func (p *Poller) Add(fd int, ev IOEvent) error {
	return os.NewSyscallError("epoll_ctl add",
		unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Fd: int32(fd), Events: epollEvents(ev)}))
}

// Mod replaces the interest of a registered fd, old is only needed by kqueue.
func (p *Poller) Mod(fd int, _, ev IOEvent) error {
	return os.NewSyscallError("epoll_ctl mod",
		unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Fd: int32(fd), Events: epollEvents(ev)}))
}

// Delete removes fd from the poller.
func (p *Poller) Delete(fd int, _ IOEvent) error {
	return os.NewSyscallError("epoll_ctl del", unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, nil))
}
