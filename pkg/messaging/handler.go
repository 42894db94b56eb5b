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

package messaging

import (
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/internal/socket"
	"github.com/freecs/reactor/pkg/buffer/linkedlist"
	"github.com/freecs/reactor/pkg/buffer/ring"
	errorx "github.com/freecs/reactor/pkg/errors"
	"github.com/freecs/reactor/pkg/logging"
)

// DefaultMaxPendingBytes bounds the unsent bytes of one connection.
const DefaultMaxPendingBytes = 4 << 20

// MessageFunc receives every message decoded from a connection, it runs on the event-loop.
type MessageFunc func(from *Handler, msg string)

// Handler owns one messaging connection, inbound or outbound.
type Handler struct {
	fd         int
	remote     net.Addr
	interest   reactor.Interest
	hub        *Hub
	onMessage  MessageFunc
	maxPending int
	logger     logging.Logger

	in  *ring.Buffer
	out linkedlist.Buffer // owned by the event-loop

	mu      sync.Mutex
	key     *reactor.Key
	pending [][]byte // frames sent from other goroutines, moved to out on the loop
	unsent  int      // bytes in pending and out
	armed   bool     // a flush is scheduled on the loop
	closed  bool
}

// NewHandler returns a handler for fd. Inbound connections start with reactor.Read,
// outbound ones with reactor.Connect and join hub once the connect completes.
func NewHandler(fd int, remote net.Addr, interest reactor.Interest, hub *Hub, onMessage MessageFunc) *Handler {
	return &Handler{
		fd:         fd,
		remote:     remote,
		interest:   interest,
		hub:        hub,
		onMessage:  onMessage,
		maxPending: DefaultMaxPendingBytes,
		logger:     logging.GetDefaultLogger(),
		in:         ring.New(0),
	}
}

// RemoteAddr returns the address of the peer, it may be nil.
func (h *Handler) RemoteAddr() net.Addr {
	return h.remote
}

// FD implements reactor.ConnHandler.
func (h *Handler) FD() int {
	return h.fd
}

// Interest implements reactor.ConnHandler.
func (h *Handler) Interest() reactor.Interest {
	return h.interest
}

// Bind implements reactor.ConnHandler, frames sent before the registration are queued now.
func (h *Handler) Bind(key *reactor.Key) {
	h.mu.Lock()
	h.key = key
	frames, closed := h.pending, h.closed
	h.pending = nil
	h.mu.Unlock()

	if closed {
		_ = key.Close(errorx.ErrOutboundOverflow)
		return
	}
	for _, f := range frames {
		h.out.PushBack(f)
	}
	if key.Interest()&reactor.Connect != 0 {
		return
	}
	if h.hub != nil {
		h.hub.Add(h)
	}
	if !h.out.IsEmpty() {
		if err := key.AddInterest(reactor.Write); err != nil {
			_ = key.Close(err)
		}
	}
}

// OnConnect implements reactor.ConnHandler.
func (h *Handler) OnConnect() error {
	if err := socket.FinishConnect(h.fd); err != nil {
		return err
	}
	h.mu.Lock()
	key := h.key
	h.mu.Unlock()

	interest := reactor.Read
	if !h.out.IsEmpty() {
		interest |= reactor.Write
	}
	if err := key.SetInterest(interest); err != nil {
		return err
	}
	h.logger.Debugf("connected to %s", h.remote)
	if h.hub != nil {
		h.hub.Add(h)
	}
	return nil
}

// OnRead implements reactor.ConnHandler.
func (h *Handler) OnRead() error {
	n, err := h.in.CopyFromSocket(h.fd)
	switch {
	case err == unix.EAGAIN:
		h.logger.Debugf("nothing to read from %s", h.remote)
		return nil
	case err != nil:
		return os.NewSyscallError("read", err)
	case n == 0:
		return errorx.ErrConnectionClosed
	}
	return h.deliver()
}

// deliver hands every complete frame buffered so far to the callback.
func (h *Handler) deliver() error {
	for {
		msg, ok, err := Decode(h.in)
		if err != nil || !ok {
			return err
		}
		if h.onMessage != nil {
			h.onMessage(h, msg)
		}
	}
}

// OnWrite implements reactor.ConnHandler.
func (h *Handler) OnWrite() error {
	n, err := h.out.WriteToSocket(h.fd)
	if n > 0 {
		h.mu.Lock()
		h.unsent -= n
		h.mu.Unlock()
	}
	if err != nil {
		return os.NewSyscallError("writev", err)
	}
	if h.out.IsEmpty() {
		h.mu.Lock()
		key := h.key
		h.mu.Unlock()
		return key.RemoveInterest(reactor.Write)
	}
	return nil
}

// OnClose implements reactor.ConnHandler.
func (h *Handler) OnClose(err error) {
	h.mu.Lock()
	h.closed = true
	h.pending = nil
	h.unsent = 0
	h.mu.Unlock()

	if h.hub != nil {
		h.hub.Remove(h)
	}
	if err != nil {
		h.logger.Debugf("connection with %s closed: %v", h.remote, err)
	}
	h.out.Reset()
	h.in.Release()
}

// Send frames msg and queues it, it may be called from any goroutine.
func (h *Handler) Send(msg string) error {
	return h.SendFrame(Encode(msg))
}

// SendFrame queues an already framed message, frame must not be modified afterwards.
// A connection whose unsent bytes would exceed the limit is closed instead.
func (h *Handler) SendFrame(frame []byte) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errorx.ErrConnectionClosed
	}
	key := h.key
	if key != nil && !key.Valid() {
		h.mu.Unlock()
		return errorx.ErrConnectionClosed
	}
	if h.unsent+len(frame) > h.maxPending {
		h.closed = true
		h.pending = nil
		h.mu.Unlock()
		h.logger.Warnf("dropping connection with %s: %v", h.remote, errorx.ErrOutboundOverflow)
		if key != nil {
			_ = key.Cancel(errorx.ErrOutboundOverflow)
		}
		return errorx.ErrOutboundOverflow
	}
	h.pending = append(h.pending, frame)
	h.unsent += len(frame)
	arm := key != nil && !h.armed
	if arm {
		h.armed = true
	}
	h.mu.Unlock()

	if arm {
		if err := key.Execute(h.flush); err != nil {
			h.mu.Lock()
			h.armed = false
			h.mu.Unlock()
			return err
		}
	}
	return nil
}

// flush runs on the event-loop and moves the pending frames to the outbound queue.
func (h *Handler) flush() {
	h.mu.Lock()
	frames, key := h.pending, h.key
	h.pending, h.armed = nil, false
	h.mu.Unlock()

	if !key.Valid() {
		return
	}
	for _, f := range frames {
		h.out.PushBack(f)
	}
	if key.Interest()&reactor.Connect != 0 || h.out.IsEmpty() {
		return
	}
	if err := key.AddInterest(reactor.Write); err != nil {
		_ = key.Close(err)
	}
}
