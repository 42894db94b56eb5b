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

//go:build darwin || dragonfly || freebsd

package netpoll

import (
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// Poller monitors file descriptors with kqueue, an EVFILT_USER note breaks a pending Wait.
type Poller struct {
	fd         int
	wakeupCall int32
	sizer      sizer
	events     []unix.Kevent_t
	changes    []unix.Kevent_t
}

const wakeupIdent = 0

// OpenPoller instantiates a poller.
func OpenPoller() (poller *Poller, err error) {
	poller = new(Poller)
	if poller.fd, err = unix.Kqueue(); err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	if _, err = unix.Kevent(poller.fd, []unix.Kevent_t{{
		Ident:  wakeupIdent,
		Filter: unix.EVFILT_USER,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}}, nil, nil); err != nil {
		_ = poller.Close()
		return nil, os.NewSyscallError("kevent add|clear", err)
	}
	poller.sizer.size = InitPollEventsCap
	poller.events = make([]unix.Kevent_t, InitPollEventsCap)
	return
}

// Close closes the poller.
func (p *Poller) Close() error {
	return os.NewSyscallError("close", unix.Close(p.fd))
}

var note = []unix.Kevent_t{{
	Ident:  wakeupIdent,
	Filter: unix.EVFILT_USER,
	Fflags: unix.NOTE_TRIGGER,
}}

// Wakeup makes the current or next Wait return early.
func (p *Poller) Wakeup() (err error) {
	if atomic.CompareAndSwapInt32(&p.wakeupCall, 0, 1) {
		if _, err = unix.Kevent(p.fd, note, nil, nil); err == unix.EAGAIN {
			err = nil
		}
	}
	return os.NewSyscallError("kevent trigger", err)
}

// Wait blocks for at most msec milliseconds (forever when negative) and hands every ready
// descriptor to callback. It returns the number of descriptors delivered, an interrupted wait
// reports zero and no error.
func (p *Poller) Wait(msec int, callback Callback) (int, error) {
	var tsp *unix.Timespec
	if msec >= 0 {
		ts := unix.NsecToTimespec(int64(time.Duration(msec) * time.Millisecond))
		tsp = &ts
	}
	n, err := unix.Kevent(p.fd, nil, p.events, tsp)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, os.NewSyscallError("kevent wait", err)
	}

	delivered := 0
	for i := 0; i < n; i++ {
		ev := &p.events[i]
		if ev.Filter == unix.EVFILT_USER {
			atomic.StoreInt32(&p.wakeupCall, 0)
			continue
		}
		var rev IOEvent
		switch ev.Filter {
		case unix.EVFILT_READ:
			rev = EventRead
		case unix.EVFILT_WRITE:
			rev = EventWrite
		}
		if ev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0 {
			rev |= EventRead | EventWrite | EventErr
		}
		callback(int(ev.Ident), rev)
		delivered++
	}

	if p.sizer.next(n) {
		p.events = make([]unix.Kevent_t, p.sizer.size)
	}
	return delivered, nil
}

func (p *Poller) change(fd, filter, flags int) {
	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, filter, flags)
	p.changes = append(p.changes, ev)
}

func (p *Poller) apply(op string) error {
	if len(p.changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.fd, p.changes, nil, nil)
	p.changes = p.changes[:0]
	return os.NewSyscallError(op, err)
}

// Add registers fd with the given interest.
func (p *Poller) Add(fd int, ev IOEvent) error {
	if ev&EventRead != 0 {
		p.change(fd, unix.EVFILT_READ, unix.EV_ADD)
	}
	if ev&EventWrite != 0 {
		p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD)
	}
	return p.apply("kevent add")
}

// Mod moves a registered fd from interest old to interest ev.
func (p *Poller) Mod(fd int, old, ev IOEvent) error {
	switch {
	case ev&EventRead != 0 && old&EventRead == 0:
		p.change(fd, unix.EVFILT_READ, unix.EV_ADD)
	case ev&EventRead == 0 && old&EventRead != 0:
		p.change(fd, unix.EVFILT_READ, unix.EV_DELETE)
	}
	switch {
	case ev&EventWrite != 0 && old&EventWrite == 0:
		p.change(fd, unix.EVFILT_WRITE, unix.EV_ADD)
	case ev&EventWrite == 0 && old&EventWrite != 0:
		p.change(fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	}
	return p.apply("kevent mod")
}

// Delete removes every filter of fd that interest old registered.
func (p *Poller) Delete(fd int, old IOEvent) error {
	return p.Mod(fd, old, EventNone)
}
