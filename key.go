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

package reactor

import (
	"os"
	"sync/atomic"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"

	errorx "github.com/freecs/reactor/pkg/errors"
)

// Key is the registration token binding one socket to the event-loop that owns it.
//
// Valid, Loop and Execute may be called from any goroutine, every other method
// must be called on the owning loop, typically from inside a handler callback.
type Key struct {
	fd       int
	loop     *EventLoop
	handler  interface{} // ListenHandler or ConnHandler
	interest Interest
	valid    atomic.Bool
}

// FD returns the registered socket.
func (k *Key) FD() int {
	return k.fd
}

// Loop returns the owning event-loop.
func (k *Key) Loop() *EventLoop {
	return k.loop
}

// Valid reports whether the key is still registered.
func (k *Key) Valid() bool {
	return k.valid.Load()
}

// Interest returns the current interest.
func (k *Key) Interest() Interest {
	return k.interest
}

// SetInterest replaces the current interest.
func (k *Key) SetInterest(i Interest) error {
	if !k.Valid() {
		return errorx.ErrInvalidKey
	}
	old := k.interest
	if old == i {
		return nil
	}
	k.interest = i
	if oev, nev := old.events(), i.events(); oev != nev {
		return k.loop.poller.Mod(k.fd, oev, nev)
	}
	return nil
}

// AddInterest adds i to the current interest.
func (k *Key) AddInterest(i Interest) error {
	return k.SetInterest(k.interest | i)
}

// RemoveInterest removes i from the current interest.
func (k *Key) RemoveInterest(i Interest) error {
	return k.SetInterest(k.interest &^ i)
}

// Execute runs fn on the owning loop.
func (k *Key) Execute(fn func()) error {
	return k.loop.Execute(fn)
}

// Close cancels the registration, closes the socket and notifies the handler with err.
// Only the first call has an effect.
func (k *Key) Close(err error) error {
	if !k.valid.CompareAndSwap(true, false) {
		return nil
	}
	el := k.loop
	if el.keys[k.fd] == k {
		delete(el.keys, k.fd)
	}
	cerr := multierr.Combine(
		el.poller.Delete(k.fd, k.interest.events()),
		os.NewSyscallError("close", unix.Close(k.fd)),
	)
	switch h := k.handler.(type) {
	case ListenHandler:
		h.OnClose(err)
	case ConnHandler:
		h.OnClose(err)
	}
	return cerr
}

// Cancel is Close for callers outside the owning loop, the close runs on the loop.
func (k *Key) Cancel(err error) error {
	if !k.Valid() {
		return nil
	}
	return k.loop.Execute(func() {
		_ = k.Close(err)
	})
}
