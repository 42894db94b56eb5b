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

// Package toolkit holds small helpers shared by buffers and codecs.
package toolkit

import (
	"math/bits"
	"unsafe"
)

// CeilToPowerOfTwo returns the least power of two integer value greater than
// or equal to n, it never returns anything below 2.
func CeilToPowerOfTwo(n int) int {
	if n <= 2 {
		return 2
	}
	shift := bits.Len(uint(n - 1))
	if shift >= bits.UintSize-1 {
		panic("argument is too large")
	}
	return 1 << shift
}

// BytesToString converts byte slice to a string without memory allocation.
//
// The caller must not modify b while the returned string is alive.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StringToBytes converts string to a read-only byte slice without memory allocation.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
