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

package httpd

import (
	"context"
	"errors"
	"net"
	"os"

	"github.com/eapache/queue"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sys/unix"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/pkg/buffer/ring"
	errorx "github.com/freecs/reactor/pkg/errors"
	"github.com/freecs/reactor/pkg/logging"
)

const tracerName = "github.com/freecs/reactor/pkg/httpd"

// ConnHandler serves requests on one connection: it parses what it reads,
// queues one response per request and writes the queue back in order.
type ConnHandler struct {
	fd     int
	remote net.Addr
	key    *reactor.Key

	tracker   *Tracker
	responder Responder
	tracer    trace.Tracer
	logger    logging.Logger

	in      *ring.Buffer
	parser  *Parser
	out     *queue.Queue // of *Response
	written int          // bytes of the head response already sent
	kas     *KeepAliveState
	closing bool // a close marker is queued, nothing more is parsed
}

// NewConnHandler returns the handler for the connected socket fd. A nil tracker disables
// idle eviction and a nil responder selects HelloWorld.
func NewConnHandler(fd int, remote net.Addr, tracker *Tracker, responder Responder) *ConnHandler {
	if responder == nil {
		responder = HelloWorld
	}
	return &ConnHandler{
		fd:        fd,
		remote:    remote,
		tracker:   tracker,
		responder: responder,
		tracer:    otel.Tracer(tracerName),
		logger:    logging.GetDefaultLogger(),
		in:        ring.New(0),
		parser:    NewParser(),
		out:       queue.New(),
	}
}

// FD implements reactor.ConnHandler.
func (h *ConnHandler) FD() int {
	return h.fd
}

// Interest implements reactor.ConnHandler.
func (h *ConnHandler) Interest() reactor.Interest {
	return reactor.Read
}

// Bind implements reactor.ConnHandler.
func (h *ConnHandler) Bind(key *reactor.Key) {
	h.key = key
}

// OnConnect implements reactor.ConnHandler, accepted sockets are connected already.
func (h *ConnHandler) OnConnect() error {
	return nil
}

// OnRead implements reactor.ConnHandler.
func (h *ConnHandler) OnRead() error {
	if h.kas == nil {
		h.kas = NewKeepAliveState(h.closeIdle)
	}
	if h.tracker != nil {
		h.tracker.Touch(h.kas)
	}

	n, err := h.in.CopyFromSocket(h.fd)
	switch {
	case err == unix.EAGAIN:
		return nil
	case err != nil:
		return os.NewSyscallError("read", err)
	case n == 0:
		return errorx.ErrConnectionClosed
	}

	if err = h.serve(); err != nil {
		return err
	}
	if h.out.Length() > 0 {
		return h.key.AddInterest(reactor.Write)
	}
	return nil
}

// serve parses every complete request buffered so far and queues the responses.
func (h *ConnHandler) serve() error {
	for !h.closing {
		req, err := h.parser.Parse(h.in)
		if err != nil {
			var perr *Error
			if !errors.As(err, &perr) {
				return err
			}
			h.logger.Debugf("answering %s with %d: %v", h.remote, perr.Status, err)
			h.enqueue(ErrorResponse(perr.Status))
			h.enqueue(CloseConnection)
			return nil
		}
		if req == nil {
			return nil
		}
		h.enqueue(h.respond(req))
		if !req.HTTP11 || !req.KeepAlive {
			h.enqueue(CloseConnection)
		} else if h.tracker != nil {
			h.tracker.Add(h.kas)
		}
	}
	return nil
}

func (h *ConnHandler) respond(req *Request) *Response {
	_, span := h.tracer.Start(context.Background(), "httpd.Respond", trace.WithAttributes(
		attribute.String("http.method", req.Method.String()),
		attribute.String("http.target", req.URL),
		attribute.Bool("http.keep_alive", req.KeepAlive),
		attribute.Bool("http.http11", req.HTTP11),
	))
	defer span.End()
	return h.responder.Respond(req)
}

func (h *ConnHandler) enqueue(resp *Response) {
	if resp.IsClose() {
		h.closing = true
	}
	h.out.Add(resp)
}

// OnWrite implements reactor.ConnHandler.
func (h *ConnHandler) OnWrite() error {
	for h.out.Length() > 0 {
		resp := h.out.Peek().(*Response)
		if resp.IsClose() {
			_ = h.key.Close(nil)
			return nil
		}
		data := resp.Bytes()[h.written:]
		n, err := unix.Write(h.fd, data)
		if n > 0 {
			h.written += n
		}
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return os.NewSyscallError("write", err)
		}
		if n < len(data) {
			return nil
		}
		h.out.Remove()
		resp.Release()
		h.written = 0
	}
	return h.key.RemoveInterest(reactor.Write)
}

// OnClose implements reactor.ConnHandler.
func (h *ConnHandler) OnClose(err error) {
	if h.tracker != nil {
		h.tracker.Remove(h.kas)
	}
	if err != nil {
		h.logger.Debugf("connection from %s closed: %v", h.remote, err)
	}
	for h.out.Length() > 0 {
		h.out.Remove().(*Response).Release()
	}
	h.parser.Release()
	h.in.Release()
}

// closeIdle runs on the tracker goroutine.
func (h *ConnHandler) closeIdle() {
	if err := h.key.Cancel(errorx.ErrIdleTimeout); err != nil {
		h.logger.Debugf("idle connection from %s already gone: %v", h.remote, err)
	}
}
