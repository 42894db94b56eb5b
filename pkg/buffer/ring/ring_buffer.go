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

// Package ring provides the growable inbound window each connection reads into.
//
// Bytes become visible with Write or CopyFromSocket and stay buffered until a
// consumer calls Discard, Read or ReadByte, so a decoder may Peek at a partial
// frame, decide it is incomplete and come back after the next read without any
// rewinding.
package ring

import (
	"errors"

	"github.com/freecs/reactor/internal/toolkit"
	bsPool "github.com/freecs/reactor/pkg/pool/byteslice"
)

const (
	// DefaultBufferSize is the first-time allocation on a ring-buffer.
	DefaultBufferSize   = 1024     // 1KB
	bufferGrowThreshold = 4 * 1024 // 4KB
)

// ErrIsEmpty will be returned when trying to read an empty ring-buffer.
var ErrIsEmpty = errors.New("ring-buffer is empty")

// Buffer is a circular byte window that implements io.ReadWriter.
type Buffer struct {
	buf     []byte
	size    int
	r       int // next position to read
	w       int // next position to write
	isEmpty bool
}

// New returns a new Buffer whose capacity is size rounded up to a power of two,
// a zero size defers the allocation to the first write.
func New(size int) *Buffer {
	if size == 0 {
		return &Buffer{isEmpty: true}
	}
	size = toolkit.CeilToPowerOfTwo(size)
	return &Buffer{
		buf:     make([]byte, size),
		size:    size,
		isEmpty: true,
	}
}

// Peek returns up to n buffered bytes without consuming them, split in two
// slices when the bytes wrap around the end of the buffer. n <= 0 peeks everything.
func (rb *Buffer) Peek(n int) (head []byte, tail []byte) {
	if rb.isEmpty {
		return
	}
	buffered := rb.Buffered()
	if n <= 0 || n > buffered {
		n = buffered
	}
	if rb.r+n <= rb.size {
		return rb.buf[rb.r : rb.r+n], nil
	}
	c1 := rb.size - rb.r
	return rb.buf[rb.r:], rb.buf[:n-c1]
}

// Discard consumes the next n bytes.
func (rb *Buffer) Discard(n int) (discarded int, err error) {
	if n <= 0 {
		return 0, nil
	}
	discarded = rb.Buffered()
	if n < discarded {
		rb.r = (rb.r + n) % rb.size
		return n, nil
	}
	rb.Reset()
	return
}

// Read copies up to len(p) buffered bytes into p and consumes them.
func (rb *Buffer) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if rb.isEmpty {
		return 0, ErrIsEmpty
	}
	head, tail := rb.Peek(len(p))
	n = copy(p, head)
	n += copy(p[n:], tail)
	_, _ = rb.Discard(n)
	return
}

// ReadByte consumes and returns the next byte or ErrIsEmpty.
func (rb *Buffer) ReadByte() (b byte, err error) {
	if rb.isEmpty {
		return 0, ErrIsEmpty
	}
	b = rb.buf[rb.r]
	if rb.r++; rb.r == rb.size {
		rb.r = 0
	}
	if rb.r == rb.w {
		rb.Reset()
	}
	return
}

// Write appends p, growing the buffer when p does not fit into the free space.
func (rb *Buffer) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	if free := rb.Available(); n > free {
		rb.grow(rb.Buffered() + n)
	}
	c := copy(rb.buf[rb.w:], p)
	if c < n {
		copy(rb.buf, p[c:])
	}
	rb.w = (rb.w + n) % rb.size
	rb.isEmpty = false
	return
}

// WriteString appends s.
func (rb *Buffer) WriteString(s string) (int, error) {
	return rb.Write(toolkit.StringToBytes(s))
}

// Buffered returns the number of bytes waiting to be consumed.
func (rb *Buffer) Buffered() int {
	switch {
	case rb.isEmpty:
		return 0
	case rb.w > rb.r:
		return rb.w - rb.r
	default:
		return rb.size - rb.r + rb.w
	}
}

// Available returns the number of bytes that can be written without growing.
func (rb *Buffer) Available() int {
	return rb.size - rb.Buffered()
}

// Cap returns the size of the underlying buffer.
func (rb *Buffer) Cap() int {
	return rb.size
}

// Bytes returns a copy of every buffered byte without consuming them.
func (rb *Buffer) Bytes() []byte {
	head, tail := rb.Peek(-1)
	if len(head)+len(tail) == 0 {
		return nil
	}
	bb := make([]byte, 0, len(head)+len(tail))
	bb = append(bb, head...)
	return append(bb, tail...)
}

// IsFull tells if this ring-buffer is full.
func (rb *Buffer) IsFull() bool {
	return !rb.isEmpty && rb.r == rb.w
}

// IsEmpty tells if this ring-buffer is empty.
func (rb *Buffer) IsEmpty() bool {
	return rb.isEmpty
}

// Reset drops every buffered byte and rewinds both cursors to zero.
func (rb *Buffer) Reset() {
	rb.isEmpty = true
	rb.r, rb.w = 0, 0
}

// Release returns the underlying memory to the pool, the buffer stays usable.
func (rb *Buffer) Release() {
	if rb.buf != nil {
		bsPool.Put(rb.buf)
	}
	rb.buf, rb.size = nil, 0
	rb.Reset()
}

// grow moves the buffered bytes to the front of a larger buffer able to hold at least need bytes.
func (rb *Buffer) grow(need int) {
	newCap := rb.size
	switch {
	case newCap == 0:
		newCap = DefaultBufferSize
	case newCap < bufferGrowThreshold:
		newCap <<= 1
	default:
		newCap += newCap / 4
	}
	for newCap < need {
		if newCap < bufferGrowThreshold {
			newCap <<= 1
		} else {
			newCap += newCap / 4
		}
	}
	newBuf := bsPool.Get(newCap)
	newBuf = newBuf[:cap(newBuf)]
	n := 0
	if !rb.isEmpty {
		head, tail := rb.Peek(-1)
		n = copy(newBuf, head)
		n += copy(newBuf[n:], tail)
	}
	if rb.buf != nil {
		bsPool.Put(rb.buf)
	}
	rb.buf, rb.size = newBuf, len(newBuf)
	rb.r, rb.w = 0, n%rb.size
	rb.isEmpty = n == 0
}
