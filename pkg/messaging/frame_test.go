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

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freecs/reactor/pkg/buffer/ring"
	errorx "github.com/freecs/reactor/pkg/errors"
)

func TestFrameRoundTrip(t *testing.T) {
	for _, msg := range []string{
		"",
		"hello",
		"grüße, 世界 🌍",
		strings.Repeat("x", 70000),
	} {
		frame := Encode(msg)
		require.Len(t, frame, HeaderSize+len(msg))
		in := ring.New(0)
		_, _ = in.Write(frame)
		got, ok, err := Decode(in)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, msg, got)
		assert.True(t, in.IsEmpty())
		in.Release()
	}
}

func TestFrameLayout(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'}, Encode("hello"))
	assert.Equal(t, []byte{0, 0, 0, 0}, Encode(""))
	assert.Equal(t, []byte{0xff, 0, 0, 0, 2, 'h', 'i'}, AppendFrame([]byte{0xff}, "hi"))
}

func TestDecodeSplitFrame(t *testing.T) {
	in := ring.New(0)
	_, _ = in.Write([]byte{0, 0})
	_, ok, err := Decode(in)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, in.Buffered(), "a partial prefix stays buffered")

	_, _ = in.Write([]byte{0, 5, 'h', 'e'})
	_, ok, err = Decode(in)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 6, in.Buffered())

	_, _ = in.Write([]byte("llo"))
	msg, ok, err := Decode(in)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", msg)
	assert.True(t, in.IsEmpty())
}

func TestDecodeSeveralFrames(t *testing.T) {
	var stream []byte
	for _, m := range []string{"one", "", "three"} {
		stream = AppendFrame(stream, m)
	}
	stream = append(stream, 0, 0, 0, 9, 'p')

	in := ring.New(0)
	_, _ = in.Write(stream)
	var got []string
	for {
		msg, ok, err := Decode(in)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, msg)
	}
	assert.Equal(t, []string{"one", "", "three"}, got)
	assert.Equal(t, 5, in.Buffered())
}

func TestDecodeFrameTooLarge(t *testing.T) {
	in := ring.New(0)
	_, _ = in.Write([]byte{0x7f, 0xff, 0xff, 0xff})
	_, ok, err := Decode(in)
	assert.False(t, ok)
	assert.ErrorIs(t, err, errorx.ErrFrameTooLarge)
}
