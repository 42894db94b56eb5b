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

// Package messaging implements a broadcast protocol over the reactor: every message is
// a 4-byte big-endian length followed by that many bytes of UTF-8 text.
package messaging

import (
	"encoding/binary"

	"github.com/freecs/reactor/internal/toolkit"
	"github.com/freecs/reactor/pkg/buffer/ring"
	errorx "github.com/freecs/reactor/pkg/errors"
)

const (
	// HeaderSize is the size of the length prefix.
	HeaderSize = 4
	// MaxFrameSize is the largest payload a peer may announce.
	MaxFrameSize = 16 << 20
)

// AppendFrame appends the framed msg to dst and returns the extended slice.
func AppendFrame(dst []byte, msg string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(msg)))
	return append(dst, msg...)
}

// Encode returns the framed msg.
func Encode(msg string) []byte {
	return AppendFrame(make([]byte, 0, HeaderSize+len(msg)), msg)
}

// Decode consumes one frame from in. It returns ok == false and leaves in untouched
// when the frame has not fully arrived yet.
func Decode(in *ring.Buffer) (msg string, ok bool, err error) {
	if in.Buffered() < HeaderSize {
		return
	}
	var hdr [HeaderSize]byte
	head, tail := in.Peek(HeaderSize)
	copy(hdr[copy(hdr[:], head):], tail)
	size := int(binary.BigEndian.Uint32(hdr[:]))
	if size > MaxFrameSize {
		return "", false, errorx.ErrFrameTooLarge
	}
	if in.Buffered() < HeaderSize+size {
		return
	}
	_, _ = in.Discard(HeaderSize)
	if size == 0 {
		return "", true, nil
	}
	payload := make([]byte, size)
	_, _ = in.Read(payload)
	return toolkit.BytesToString(payload), true, nil
}
