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

package httpd

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	errorx "github.com/freecs/reactor/pkg/errors"
	"github.com/freecs/reactor/pkg/logging"
)

// DefaultIdleTimeout is how long a keep-alive connection may stay silent.
const DefaultIdleTimeout = 10 * time.Second

// epoch anchors every activity timestamp to the monotonic clock.
var epoch = time.Now()

func monotime(t time.Time) int64 {
	return int64(t.Sub(epoch))
}

// KeepAliveState is the liveness record of one keep-alive connection.
type KeepAliveState struct {
	last    atomic.Int64
	tracked atomic.Bool
	closer  func()
}

// NewKeepAliveState returns an untracked record, closer must tear the connection down
// and may be called from any goroutine.
func NewKeepAliveState(closer func()) *KeepAliveState {
	return &KeepAliveState{closer: closer}
}

// Tracked reports whether the record is watched by a Tracker.
func (s *KeepAliveState) Tracked() bool {
	return s.tracked.Load()
}

// LastActivity returns the time of the last request seen on the connection.
func (s *KeepAliveState) LastActivity() time.Time {
	return epoch.Add(time.Duration(s.last.Load()))
}

// Tracker closes keep-alive connections that have been idle for longer than its timeout.
type Tracker struct {
	timeout time.Duration
	logger  logging.Logger

	mu     sync.Mutex
	states map[*KeepAliveState]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker returns a stopped Tracker, a non-positive timeout selects DefaultIdleTimeout.
func NewTracker(timeout time.Duration, logger logging.Logger) *Tracker {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &Tracker{
		timeout: timeout,
		logger:  logger,
		states:  make(map[*KeepAliveState]struct{}),
	}
}

// Timeout returns the idle window.
func (t *Tracker) Timeout() time.Duration {
	return t.timeout
}

// Start launches the sweep goroutine, it runs until ctx is done or Stop is called.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return errorx.ErrTrackerStarted
	}
	ctx, t.cancel = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.run(ctx)
	return nil
}

// Stop ends the sweep goroutine and waits for it to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.done)
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-timer.C:
			timer.Reset(t.Sweep(now))
		}
	}
}

// Add starts watching s from now on.
func (t *Tracker) Add(s *KeepAliveState) {
	if s == nil {
		return
	}
	s.last.Store(monotime(time.Now()))
	t.mu.Lock()
	t.states[s] = struct{}{}
	t.mu.Unlock()
	s.tracked.Store(true)
}

// Touch records activity on s, a record that is not tracked is left alone.
func (t *Tracker) Touch(s *KeepAliveState) {
	if s != nil && s.tracked.Load() {
		s.last.Store(monotime(time.Now()))
	}
}

// Remove stops watching s, removing an unknown record is a no-op.
func (t *Tracker) Remove(s *KeepAliveState) {
	if s == nil {
		return
	}
	t.mu.Lock()
	delete(t.states, s)
	t.mu.Unlock()
	s.tracked.Store(false)
}

// Len returns the number of watched records.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.states)
}

// Sweep closes every record idle since at least the timeout as of now and returns
// how long to sleep until the earliest remaining deadline.
func (t *Tracker) Sweep(now time.Time) time.Duration {
	t.mu.Lock()
	if len(t.states) == 0 {
		t.mu.Unlock()
		return t.timeout
	}
	snapshot := make([]*KeepAliveState, 0, len(t.states))
	for s := range t.states {
		snapshot = append(snapshot, s)
	}
	t.mu.Unlock()

	nowNano := monotime(now)
	next := nowNano + int64(t.timeout)
	for _, s := range snapshot {
		deadline := s.last.Load() + int64(t.timeout)
		if deadline <= nowNano {
			t.Remove(s)
			t.logger.Debugf("closing keep-alive connection idle since %s", s.LastActivity().Format(time.RFC3339Nano))
			s.closer()
			continue
		}
		if deadline < next {
			next = deadline
		}
	}
	if d := time.Duration(next - nowNano); d > 0 {
		return d
	}
	return 0
}
