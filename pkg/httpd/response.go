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
	"net/http"
	"strconv"

	"github.com/freecs/reactor/pkg/pool/bytebuffer"
)

// Response is the exact bytes written back for one request.
type Response struct {
	data  []byte
	buf   *bytebuffer.ByteBuffer
	close bool
}

// CloseConnection is queued behind the last response of a connection,
// the connection is torn down when the write drain reaches it.
var CloseConnection = &Response{close: true}

// NewResponse wraps data, which must not be modified afterwards.
func NewResponse(data []byte) *Response {
	return &Response{data: data}
}

// Bytes returns the wire representation.
func (r *Response) Bytes() []byte {
	return r.data
}

// IsClose reports whether r is the close marker.
func (r *Response) IsClose() bool {
	return r.close
}

// Release gives pooled memory back, r must not be used afterwards.
func (r *Response) Release() {
	if r.buf != nil {
		bytebuffer.Put(r.buf)
		r.buf, r.data = nil, nil
	}
}

// ErrorResponse returns the response sent for a protocol fault with the given status code.
func ErrorResponse(code int) *Response {
	return NewResponse([]byte("HTTP/1.1 " + strconv.Itoa(code) + " " + http.StatusText(code) +
		"\r\nConnection: close\r\n\r\nAn error occured"))
}

// Responder produces the response to a request. It runs on the event-loop and must not block.
type Responder interface {
	Respond(req *Request) *Response
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(req *Request) *Response

// Respond calls f(req).
func (f ResponderFunc) Respond(req *Request) *Response {
	return f(req)
}

// HelloWorld answers every request with a small HTML page describing it.
var HelloWorld Responder = ResponderFunc(helloWorld)

func helloWorld(req *Request) *Response {
	body := bytebuffer.Get()
	defer bytebuffer.Put(body)
	_, _ = body.WriteString("<b>Hello World!</b><p>method: ")
	_, _ = body.WriteString(req.Method.String())
	_, _ = body.WriteString("<br />url: ")
	_, _ = body.WriteString(req.URL)
	_, _ = body.WriteString("<br />keepAlive: ")
	_, _ = body.WriteString(strconv.FormatBool(req.KeepAlive))
	_, _ = body.WriteString("<br />http11: ")
	_, _ = body.WriteString(strconv.FormatBool(req.HTTP11))
	_, _ = body.WriteString("<br /></p>")
	for _, k := range req.HeaderKeys() {
		_, _ = body.WriteString(k)
		_, _ = body.WriteString(": ")
		_, _ = body.WriteString(req.Header[k])
		_, _ = body.WriteString("<br />")
	}

	out := bytebuffer.Get()
	if req.HTTP11 {
		_, _ = out.WriteString("HTTP/1.1 200 OK\r\n")
	} else {
		_, _ = out.WriteString("HTTP/1.0 200 OK\r\n")
	}
	if req.KeepAlive {
		_, _ = out.WriteString("connection: keep-alive\r\nContent-length: ")
		_, _ = out.WriteString(strconv.Itoa(body.Len()))
		_, _ = out.WriteString("\r\n")
	}
	_, _ = out.WriteString("content-type: text/html\r\n\r\n")
	_, _ = out.Write(body.B)
	return &Response{data: out.B, buf: out}
}
