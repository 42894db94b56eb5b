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

// Package linkedlist implements the outbound byte queue of a connection.
//
// Every pushed payload is copied into a pooled node, the nodes are flushed in
// FIFO order and a partially written head node keeps its unwritten remainder.
package linkedlist

import (
	"math"

	bsPool "github.com/freecs/reactor/pkg/pool/byteslice"
)

type node struct {
	buf    []byte
	pooled []byte // full pooled allocation, buf may be a suffix of it
	next   *node
}

// Buffer is a FIFO list of byte nodes, the zero value is ready to use.
type Buffer struct {
	bs    [][]byte
	head  *node
	tail  *node
	size  int
	bytes int
}

// PushBack appends a copy of p.
func (llb *Buffer) PushBack(p []byte) {
	n := len(p)
	if n == 0 {
		return
	}
	b := bsPool.Get(n)
	copy(b, p)
	nd := &node{buf: b, pooled: b}
	if llb.tail == nil {
		llb.head = nd
	} else {
		llb.tail.next = nd
	}
	llb.tail = nd
	llb.size++
	llb.bytes += n
}

// Peek collects the leading nodes until at least maxBytes are covered, without removing them.
// maxBytes <= 0 collects every node.
func (llb *Buffer) Peek(maxBytes int) [][]byte {
	if maxBytes <= 0 {
		maxBytes = math.MaxInt32
	}
	llb.bs = llb.bs[:0]
	var cum int
	for iter := llb.head; iter != nil; iter = iter.next {
		llb.bs = append(llb.bs, iter.buf)
		if cum += len(iter.buf); cum >= maxBytes {
			break
		}
	}
	return llb.bs
}

// Discard drops the first n bytes, trimming the head node when it is only partly consumed.
func (llb *Buffer) Discard(n int) (discarded int) {
	for n > 0 && llb.head != nil {
		b := llb.head
		if n < len(b.buf) {
			b.buf = b.buf[n:]
			llb.bytes -= n
			return discarded + n
		}
		n -= len(b.buf)
		discarded += len(b.buf)
		llb.pop()
	}
	return
}

// Len returns the number of queued nodes.
func (llb *Buffer) Len() int {
	return llb.size
}

// Buffered returns the number of queued bytes.
func (llb *Buffer) Buffered() int {
	return llb.bytes
}

// IsEmpty reports whether nothing is queued.
func (llb *Buffer) IsEmpty() bool {
	return llb.head == nil
}

// Reset drops every queued node.
func (llb *Buffer) Reset() {
	for llb.head != nil {
		llb.pop()
	}
	llb.bs = llb.bs[:0]
}

func (llb *Buffer) pop() {
	b := llb.head
	llb.head = b.next
	if llb.head == nil {
		llb.tail = nil
	}
	llb.size--
	llb.bytes -= len(b.buf)
	bsPool.Put(b.pooled)
}
