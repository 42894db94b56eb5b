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
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/freecs/reactor/internal/netpoll"
	"github.com/freecs/reactor/internal/socket"
	errorx "github.com/freecs/reactor/pkg/errors"
)

const (
	stateIdle int32 = iota
	stateRunning
	stateStopped
)

// EventLoop is a single reactor: one multiplexer, one goroutine, and the sockets registered with it.
type EventLoop struct {
	idx      int
	listener bool // dedicated to listening sockets
	opts     *Options
	poller   *netpoll.Poller
	keys     map[int]*Key // only touched by the loop goroutine

	mu       sync.Mutex
	pending  []interface{} // handlers waiting to be registered
	tasks    []func()
	released bool

	wakeMu sync.RWMutex // keeps the multiplexer open while another goroutine wakes it up

	state    atomic.Int32
	shutdown atomic.Bool
	done     chan struct{}
}

// NewEventLoop opens a multiplexer and returns a loop that is ready to Start.
func NewEventLoop(opts ...Option) (*EventLoop, error) {
	options := loadOptions(opts...)
	setupLogger(options)
	return newEventLoop(options, 0, false)
}

func newEventLoop(opts *Options, idx int, listener bool) (*EventLoop, error) {
	p, err := netpoll.OpenPoller()
	if err != nil {
		return nil, err
	}
	return &EventLoop{
		idx:      idx,
		listener: listener,
		opts:     opts,
		poller:   p,
		keys:     make(map[int]*Key),
		done:     make(chan struct{}),
	}, nil
}

// Index returns the position of the loop in its group.
func (el *EventLoop) Index() int {
	return el.idx
}

// Done is closed once the loop has exited and released its sockets.
func (el *EventLoop) Done() <-chan struct{} {
	return el.done
}

// Start runs the loop on a new goroutine.
func (el *EventLoop) Start() error {
	if !el.state.CompareAndSwap(stateIdle, stateRunning) {
		return errorx.ErrLoopInShutdown
	}
	go func() {
		_ = el.run()
	}()
	return nil
}

// AddListener queues a listening socket for registration.
func (el *EventLoop) AddListener(h ListenHandler) error {
	return el.enqueue(h)
}

// AddHandler queues a connection for registration.
func (el *EventLoop) AddHandler(h ConnHandler) error {
	return el.enqueue(h)
}

func (el *EventLoop) enqueue(h interface{}) error {
	if el.shutdown.Load() {
		return errorx.ErrLoopShutdown
	}
	el.mu.Lock()
	if el.released {
		el.mu.Unlock()
		return errorx.ErrLoopShutdown
	}
	el.pending = append(el.pending, h)
	el.mu.Unlock()
	el.notify()
	return nil
}

// Execute runs fn on the loop goroutine at the top of its next iteration.
func (el *EventLoop) Execute(fn func()) error {
	if fn == nil {
		return errorx.ErrNilRunnable
	}
	if el.shutdown.Load() {
		return errorx.ErrLoopShutdown
	}
	el.mu.Lock()
	if el.released {
		el.mu.Unlock()
		return errorx.ErrLoopShutdown
	}
	el.tasks = append(el.tasks, fn)
	el.mu.Unlock()
	el.notify()
	return nil
}

// notify wakes the loop up, the queued work is still picked up by the next bounded wait if it fails.
func (el *EventLoop) notify() {
	if err := el.wakeup(); err != nil {
		el.opts.Logger.Warnf("event-loop(%d) failed to wake up: %v", el.idx, err)
	}
}

func (el *EventLoop) wakeup() error {
	el.wakeMu.RLock()
	defer el.wakeMu.RUnlock()
	if el.state.Load() == stateStopped {
		return nil
	}
	return el.poller.Wakeup()
}

// Shutdown asks the loop to exit, the loop closes every socket it still owns on its way out.
func (el *EventLoop) Shutdown() {
	if el.shutdown.CompareAndSwap(false, true) {
		_ = el.wakeup()
		// A loop that never ran still has to release its multiplexer.
		if el.state.CompareAndSwap(stateIdle, stateStopped) {
			el.release()
		}
	}
}

// Run executes the loop on the calling goroutine until Shutdown is called or the multiplexer fails.
// Once Shutdown has been called it returns nil without running, so a loop shut down
// before it started exits cleanly. It returns ErrLoopInShutdown if the loop is already running.
func (el *EventLoop) Run() error {
	if !el.state.CompareAndSwap(stateIdle, stateRunning) {
		if el.shutdown.Load() {
			return nil
		}
		return errorx.ErrLoopInShutdown
	}
	return el.run()
}

func (el *EventLoop) run() error {
	if el.listener || el.opts.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	if el.listener {
		if err := raisePriority(el.opts.ListenerNice); err != nil {
			el.opts.Logger.Debugf("event-loop(%d) keeps default priority: %v", el.idx, err)
		}
	}
	defer el.release()

	msec := int(el.opts.PollTimeout.Milliseconds())
	for !el.shutdown.Load() {
		el.drain()
		if _, err := el.poller.Wait(msec, el.dispatch); err != nil {
			el.opts.Logger.Errorf("event-loop(%d) is going to shut down: %v", el.idx, err)
			el.shutdown.Store(true)
			return err
		}
	}
	return nil
}

// drain swaps the pending registrations and tasks out under the lock and applies them outside of it.
func (el *EventLoop) drain() {
	el.mu.Lock()
	pending, tasks := el.pending, el.tasks
	el.pending, el.tasks = nil, nil
	el.mu.Unlock()

	for _, h := range pending {
		el.register(h)
	}
	for _, fn := range tasks {
		fn()
	}
}

func (el *EventLoop) register(h interface{}) {
	var (
		fd       int
		interest Interest
	)
	switch v := h.(type) {
	case ListenHandler:
		fd, interest = v.FD(), Accept
	case ConnHandler:
		fd, interest = v.FD(), v.Interest()
	default:
		el.opts.Logger.Errorf("event-loop(%d) rejects handler %T: %v", el.idx, h, errorx.ErrUnsupportedHandler)
		return
	}

	key := &Key{fd: fd, loop: el, handler: h, interest: interest}
	if _, ok := el.keys[fd]; ok {
		el.reject(key, errorx.ErrDuplicateRegistration)
		return
	}
	if err := el.poller.Add(fd, interest.events()); err != nil {
		el.reject(key, err)
		return
	}
	key.valid.Store(true)
	el.keys[fd] = key

	switch v := h.(type) {
	case ListenHandler:
		v.Bind(key)
	case ConnHandler:
		v.Bind(key)
		// The connect may have completed before the socket got registered.
		if key.Valid() && key.interest&Connect != 0 && socket.IsConnected(fd) {
			if err := v.OnConnect(); err != nil {
				_ = key.Close(err)
			}
		}
	}
}

// reject closes a socket that never made it into the multiplexer.
func (el *EventLoop) reject(key *Key, err error) {
	el.opts.Logger.Warnf("event-loop(%d) failed to register fd=%d: %v", el.idx, key.fd, err)
	if !errors.Is(err, errorx.ErrDuplicateRegistration) {
		_ = unix.Close(key.fd)
	}
	switch v := key.handler.(type) {
	case ListenHandler:
		v.OnClose(err)
	case ConnHandler:
		v.OnClose(err)
	}
}

func (el *EventLoop) dispatch(fd int, ev netpoll.IOEvent) {
	key, ok := el.keys[fd]
	if !ok {
		el.opts.Logger.Warnf("event-loop(%d) got events for stale fd=%d, removing it", el.idx, fd)
		_ = el.poller.Delete(fd, netpoll.EventRead|netpoll.EventWrite)
		return
	}
	if !key.Valid() {
		_ = key.Close(errorx.ErrInvalidKey)
		return
	}

	var err error
	switch h := key.handler.(type) {
	case ListenHandler:
		if key.interest&Accept != 0 && ev&netpoll.EventRead != 0 {
			err = h.OnAccept()
		}
	case ConnHandler:
		if key.interest&Connect != 0 && ev&netpoll.EventWrite != 0 {
			err = h.OnConnect()
			break
		}
		if key.interest&Read != 0 && ev&netpoll.EventRead != 0 {
			if err = h.OnRead(); err != nil {
				break
			}
		}
		if key.Valid() && key.interest&Write != 0 && ev&netpoll.EventWrite != 0 {
			err = h.OnWrite()
		}
	}
	if err != nil {
		el.opts.Logger.Debugf("event-loop(%d) closes fd=%d: %v", el.idx, fd, err)
		_ = key.Close(err)
	}
}

// release closes every socket still owned by the loop, then the multiplexer itself.
func (el *EventLoop) release() {
	el.mu.Lock()
	pending := el.pending
	el.pending, el.tasks = nil, nil
	el.released = true
	el.mu.Unlock()

	for _, key := range el.keys {
		_ = key.Close(errorx.ErrLoopShutdown)
	}
	for _, h := range pending {
		switch v := h.(type) {
		case ListenHandler:
			_ = unix.Close(v.FD())
			v.OnClose(errorx.ErrLoopShutdown)
		case ConnHandler:
			_ = unix.Close(v.FD())
			v.OnClose(errorx.ErrLoopShutdown)
		}
	}
	el.wakeMu.Lock()
	el.state.Store(stateStopped)
	_ = el.poller.Close()
	el.wakeMu.Unlock()
	close(el.done)
}
