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

// Package byteslice recycles byte slices in power-of-two size classes.
package byteslice

import (
	"math"
	"math/bits"
	"sync"
	"unsafe"
)

var builtinPool Pool

// Pool keeps one sync.Pool per power-of-two capacity, from 1 byte up to 2GB.
type Pool struct {
	pools [32]sync.Pool
}

// Get returns a byte slice with given length from the built-in pool.
func Get(size int) []byte {
	return builtinPool.Get(size)
}

// Put returns the byte slice to the built-in pool.
func Put(buf []byte) {
	builtinPool.Put(buf)
}

// Get retrieves a byte slice of the requested length, its capacity is size rounded up to a power of two.
func (p *Pool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	if size > math.MaxInt32 {
		return make([]byte, size)
	}
	idx := class(uint32(size))
	if ptr, _ := p.pools[idx].Get().(unsafe.Pointer); ptr != nil {
		return unsafe.Slice((*byte)(ptr), 1<<idx)[:size]
	}
	return make([]byte, size, 1<<idx)
}

// Put hands buf back, slices whose capacity is not a power of two land one class lower.
func (p *Pool) Put(buf []byte) {
	size := cap(buf)
	if size == 0 || size > math.MaxInt32 {
		return
	}
	idx := class(uint32(size))
	if size != 1<<idx {
		idx--
	}
	p.pools[idx].Put(unsafe.Pointer(unsafe.SliceData(buf)))
}

func class(n uint32) uint32 {
	return uint32(bits.Len32(n - 1))
}
