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
	"bytes"
	"strings"

	"github.com/freecs/reactor/pkg/buffer/ring"
	"github.com/freecs/reactor/pkg/pool/bytebuffer"
)

const (
	// MaxURLLength is the longest request target accepted before answering 414.
	MaxURLLength = 2048
	// MaxHeaderLineLength is the longest header line accepted before answering 431.
	MaxHeaderLineLength = 8192
	// MaxBodySize is the largest content-length accepted before answering 413.
	MaxBodySize = 8 << 20

	maxTokenLength = 16
)

const (
	cr  = '\r'
	lf  = '\n'
	spc = ' '
)

// checksum returns the sum of the byte values of token.
func checksum(token string) (sum int) {
	for i := 0; i < len(token); i++ {
		sum += int(token[i])
	}
	return
}

var (
	// methodSums maps the byte sum of each known method to the method,
	// none of the known tokens collide with another one.
	methodSums = map[int]Method{
		checksum("GET"):     MethodGet,     // 224
		checksum("PUT"):     MethodPut,     // 249
		checksum("HEAD"):    MethodHead,    // 274
		checksum("POST"):    MethodPost,    // 326
		checksum("TRACE"):   MethodTrace,   // 367
		checksum("DELETE"):  MethodDelete,  // 435
		checksum("CONNECT"): MethodConnect, // 522
		checksum("OPTIONS"): MethodOptions, // 556
	}

	http11    = "HTTP/1.1"
	http11Sum = checksum(http11) // 511
)

type parseState uint8

const (
	stateMethod parseState = iota
	stateURL
	stateVersion
	stateHeaders
	stateBody
)

// Parser turns the bytes of a connection into requests. It may be fed any split of the
// stream: every byte it has consumed is remembered, so a call that runs out of input
// resumes exactly where the previous one stopped.
type Parser struct {
	state parseState
	sum   int
	token *bytebuffer.ByteBuffer
	req   *Request
}

// NewParser returns a parser waiting for the first request line.
func NewParser() *Parser {
	return &Parser{token: bytebuffer.Get(), req: new(Request)}
}

// Parse consumes bytes from in until one request is complete and returns it.
// It returns a nil request and a nil error when in runs dry first.
//
// A *Error means the request must be answered with Error.Status and the connection closed,
// any other error means the stream is unusable.
func (p *Parser) Parse(in *ring.Buffer) (*Request, error) {
	for {
		if p.state == stateBody {
			return p.parseBody(in), nil
		}
		b, err := in.ReadByte()
		if err != nil {
			return nil, nil
		}
		switch p.state {
		case stateMethod:
			err = p.parseMethod(b)
		case stateURL:
			err = p.parseURL(b)
		case stateVersion:
			err = p.parseVersion(b)
		case stateHeaders:
			err = p.parseHeader(b)
		}
		if err != nil {
			p.Reset()
			return nil, err
		}
	}
}

func (p *Parser) parseMethod(b byte) error {
	switch {
	case (b == cr || b == lf) && p.token.Len() == 0:
		// Line breaks left over from the previous request.
		return nil
	case b != spc:
		if p.token.Len() == maxTokenLength {
			return errBadRequest
		}
		p.sum += int(b)
		_ = p.token.WriteByte(b)
		return nil
	}
	if m, ok := methodSums[p.sum]; ok && string(p.token.B) == m.String() {
		p.req.Method = m
	} else {
		p.req.Method = MethodUnknown
	}
	p.next(stateURL)
	return nil
}

func (p *Parser) parseURL(b byte) error {
	if b != spc {
		if p.token.Len() == MaxURLLength {
			return errURITooLong
		}
		_ = p.token.WriteByte(b)
		return nil
	}
	p.req.URL = p.token.String()
	p.next(stateVersion)
	return nil
}

func (p *Parser) parseVersion(b byte) error {
	switch b {
	case cr:
		return nil
	case lf:
		p.req.HTTP11 = p.sum == http11Sum && string(p.token.B) == http11
		p.next(stateHeaders)
		return nil
	}
	if p.token.Len() == maxTokenLength {
		return errBadRequest
	}
	p.sum += int(b)
	_ = p.token.WriteByte(b)
	return nil
}

func (p *Parser) parseHeader(b byte) error {
	if b != lf {
		if p.token.Len() == MaxHeaderLineLength {
			return errHeaderTooLarge
		}
		_ = p.token.WriteByte(b)
		return nil
	}
	line := bytes.TrimSuffix(p.token.B, []byte{cr})
	if len(line) == 0 {
		if p.req.ContentLength > MaxBodySize {
			return errBodyTooLarge
		}
		p.next(stateBody)
		return nil
	}
	if i := bytes.IndexByte(line, ':'); i >= 0 {
		key := strings.ToLower(strings.TrimSpace(string(line[:i])))
		value := strings.TrimSpace(string(line[i+1:]))
		if err := p.req.setHeader(key, value); err != nil {
			return err
		}
	}
	p.token.Reset()
	return nil
}

// parseBody returns the request once the whole body is buffered.
func (p *Parser) parseBody(in *ring.Buffer) *Request {
	if n := p.req.ContentLength; n > 0 {
		if in.Buffered() < n {
			return nil
		}
		p.req.Body = make([]byte, n)
		_, _ = in.Read(p.req.Body)
	}
	req := p.req
	p.Reset()
	return req
}

func (p *Parser) next(s parseState) {
	p.state = s
	p.sum = 0
	p.token.Reset()
}

// Reset drops the request being parsed.
func (p *Parser) Reset() {
	p.next(stateMethod)
	p.req = new(Request)
}

// Release returns the scratch memory to the pool, the parser must not be used afterwards.
func (p *Parser) Release() {
	bytebuffer.Put(p.token)
	p.token = nil
}
