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

package messaging

import "sync"

// Hub is the set of connections a broadcast reaches.
type Hub struct {
	mu      sync.Mutex
	members map[*Handler]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{members: make(map[*Handler]struct{})}
}

// Add joins h, it reports false if h was a member already.
func (hub *Hub) Add(h *Handler) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.members[h]; ok {
		return false
	}
	hub.members[h] = struct{}{}
	return true
}

// Remove drops h, it reports false if h was not a member.
func (hub *Hub) Remove(h *Handler) bool {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if _, ok := hub.members[h]; !ok {
		return false
	}
	delete(hub.members, h)
	return true
}

// Len returns the number of members.
func (hub *Hub) Len() int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.members)
}

// Each calls f for a snapshot of the members until f returns false.
func (hub *Hub) Each(f func(h *Handler) bool) {
	for _, h := range hub.snapshot() {
		if !f(h) {
			return
		}
	}
}

// Broadcast queues msg on every member and returns how many accepted it.
// The frame is encoded once and shared by all of them.
func (hub *Hub) Broadcast(msg string) (sent int) {
	frame := Encode(msg)
	for _, h := range hub.snapshot() {
		if h.SendFrame(frame) == nil {
			sent++
		}
	}
	return
}

func (hub *Hub) snapshot() []*Handler {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	handlers := make([]*Handler, 0, len(hub.members))
	for h := range hub.members {
		handlers = append(handlers, h)
	}
	return handlers
}
