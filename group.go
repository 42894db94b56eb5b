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
	"sync"

	"golang.org/x/sync/errgroup"

	errorx "github.com/freecs/reactor/pkg/errors"
)

// maxLockedThreads caps the worker loops a Group accepts in LockOSThread mode.
const maxLockedThreads = 10000

// roundRobin hands out worker slots in order, wrapping at the end of the pool.
// Slots are nil until their loop is first needed.
type roundRobin struct {
	nextLoopIndex int
	eventLoops    []*EventLoop
}

func (lb *roundRobin) next() (idx int) {
	idx = lb.nextLoopIndex
	if lb.nextLoopIndex++; lb.nextLoopIndex >= len(lb.eventLoops) {
		lb.nextLoopIndex = 0
	}
	return
}

func (lb *roundRobin) iterate(f func(int, *EventLoop) bool) {
	for i, el := range lb.eventLoops {
		if el != nil && !f(i, el) {
			break
		}
	}
}

func (lb *roundRobin) len() int {
	return len(lb.eventLoops)
}

// Group is a multi-reactor: one dedicated loop per listening socket plus a fixed pool of worker
// loops that connections are assigned to in round-robin order.
type Group struct {
	opts *Options

	mu        sync.Mutex
	lb        roundRobin
	listeners []*EventLoop
	started   bool
	shutdown  bool

	eg errgroup.Group
}

// NewGroup returns a Group with opts.NumEventLoop worker slots, no loop runs before it is needed.
func NewGroup(opts ...Option) *Group {
	options := loadOptions(opts...)
	setupLogger(options)
	return &Group{
		opts: options,
		lb:   roundRobin{eventLoops: make([]*EventLoop, options.NumEventLoop)},
	}
}

// Start validates the configuration and enables registrations.
func (g *Group) Start() error {
	if g.opts.LockOSThread && g.opts.NumEventLoop > maxLockedThreads {
		return errorx.ErrTooManyEventLoopThreads
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.shutdown {
		return errorx.ErrLoopInShutdown
	}
	g.started = true
	g.opts.Logger.Debugf("group started with %d worker event-loops, logging level is %s",
		g.lb.len(), g.opts.LogLevel)
	return nil
}

// AddListener creates a dedicated loop for h and starts it right away.
func (g *Group) AddListener(h ListenHandler) error {
	g.mu.Lock()
	err := g.usable()
	g.mu.Unlock()
	if err != nil {
		return err
	}

	// The multiplexer is opened without holding g.mu.
	el, err := newEventLoop(g.opts, -1, true)
	if err != nil {
		return err
	}
	g.mu.Lock()
	if err = g.usable(); err != nil {
		g.mu.Unlock()
		el.Shutdown()
		return err
	}
	el.idx = len(g.listeners)
	g.listeners = append(g.listeners, el)
	g.spawn(el)
	g.mu.Unlock()
	return el.AddListener(h)
}

// AddHandler registers h with the next worker loop.
func (g *Group) AddHandler(h ConnHandler) error {
	el, err := g.Next()
	if err != nil {
		return err
	}
	return el.AddHandler(h)
}

// Next returns the worker loop the next connection goes to, starting it on first use.
func (g *Group) Next() (*EventLoop, error) {
	g.mu.Lock()
	if err := g.usable(); err != nil {
		g.mu.Unlock()
		return nil, err
	}
	idx := g.lb.next()
	el := g.lb.eventLoops[idx]
	g.mu.Unlock()
	if el != nil {
		return el, nil
	}

	fresh, err := newEventLoop(g.opts, idx, false)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	if err = g.usable(); err != nil {
		g.mu.Unlock()
		fresh.Shutdown()
		return nil, err
	}
	// Another caller may have filled the slot meanwhile, the first one wins.
	if el = g.lb.eventLoops[idx]; el == nil {
		el = fresh
		g.lb.eventLoops[idx] = el
		g.spawn(el)
	}
	g.mu.Unlock()
	if el != fresh {
		fresh.Shutdown()
	}
	return el, nil
}

func (g *Group) usable() error {
	if g.shutdown {
		return errorx.ErrLoopShutdown
	}
	if !g.started {
		return errorx.ErrLoopNotRunning
	}
	return nil
}

// spawn must be called with g.mu held.
func (g *Group) spawn(el *EventLoop) {
	g.eg.Go(el.Run)
}

// Shutdown stops every listener and worker loop. It does not wait for them, see Wait.
func (g *Group) Shutdown() {
	g.mu.Lock()
	if g.shutdown {
		g.mu.Unlock()
		return
	}
	g.shutdown = true
	loops := append([]*EventLoop(nil), g.listeners...)
	g.lb.iterate(func(_ int, el *EventLoop) bool {
		loops = append(loops, el)
		return true
	})
	g.mu.Unlock()

	for _, el := range loops {
		el.Shutdown()
	}
}

// Wait blocks until every loop spawned so far has exited and returns the first multiplexer failure,
// call it after Shutdown.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// NumWorkers returns the size of the worker pool.
func (g *Group) NumWorkers() int {
	return g.lb.len()
}
