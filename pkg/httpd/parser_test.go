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
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freecs/reactor/pkg/buffer/ring"
)

func parseChunks(t *testing.T, chunks ...[]byte) []*Request {
	t.Helper()
	p := NewParser()
	defer p.Release()
	in := ring.New(0)
	defer in.Release()

	var reqs []*Request
	for _, c := range chunks {
		_, _ = in.Write(c)
		for {
			req, err := p.Parse(in)
			require.NoError(t, err)
			if req == nil {
				break
			}
			reqs = append(reqs, req)
		}
	}
	return reqs
}

func parseErr(t *testing.T, raw string) error {
	t.Helper()
	p := NewParser()
	defer p.Release()
	in := ring.New(0)
	_, _ = in.WriteString(raw)
	req, err := p.Parse(in)
	assert.Nil(t, req)
	return err
}

func TestParseKeepAliveRequest(t *testing.T) {
	reqs := parseChunks(t, []byte("GET /foo HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n"))
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, MethodGet, req.Method)
	assert.Equal(t, "/foo", req.URL)
	assert.True(t, req.HTTP11)
	assert.True(t, req.KeepAlive)
	assert.Zero(t, req.ContentLength)
	assert.Empty(t, req.Body)
	assert.Equal(t, "x", req.Get("HOST"))
	assert.Equal(t, []string{"connection", "host"}, req.HeaderKeys())
}

func TestParseHTTP10Request(t *testing.T) {
	reqs := parseChunks(t, []byte("GET /foo HTTP/1.0\r\n\r\n"))
	require.Len(t, reqs, 1)
	assert.False(t, reqs[0].HTTP11)
	assert.False(t, reqs[0].KeepAlive)
	assert.Equal(t, "/foo", reqs[0].URL)
}

func TestParseBody(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nContent-Length: 11\r\nconnection: Keep-Alive\r\n\r\nhello world"
	reqs := parseChunks(t, []byte(raw[:len(raw)-3]))
	assert.Empty(t, reqs, "body is incomplete")
	reqs = parseChunks(t, []byte(raw[:len(raw)-3]), []byte(raw[len(raw)-3:]))
	require.Len(t, reqs, 1)
	assert.Equal(t, MethodPost, reqs[0].Method)
	assert.Equal(t, 11, reqs[0].ContentLength)
	assert.Equal(t, []byte("hello world"), reqs[0].Body)
	assert.True(t, reqs[0].KeepAlive)
}

func TestParseChunkBoundaries(t *testing.T) {
	stream := []byte("GET /a HTTP/1.1\r\nConnection: keep-alive\r\n\r\n" +
		"\r\n" +
		"POST /b?x=1 HTTP/1.1\r\nContent-Length: 5\r\nX-Test:  spaced value \r\n\r\nabcde" +
		"DELETE /c HTTP/1.0\nHost: lf-only\n\n" +
		"BREW /pot HTTP/1.1\r\n\r\n")
	whole := parseChunks(t, stream)
	require.Len(t, whole, 4)
	assert.Equal(t, "spaced value", whole[1].Get("x-test"))
	assert.Equal(t, MethodDelete, whole[2].Method)
	assert.Equal(t, "lf-only", whole[2].Get("host"))
	assert.Equal(t, MethodUnknown, whole[3].Method)

	for size := 1; size < len(stream); size++ {
		var chunks [][]byte
		for off := 0; off < len(stream); off += size {
			end := off + size
			if end > len(stream) {
				end = len(stream)
			}
			chunks = append(chunks, stream[off:end])
		}
		assert.Equalf(t, whole, parseChunks(t, chunks...), "chunk size %d", size)
	}

	var single [][]byte
	for i := range stream {
		single = append(single, stream[i:i+1])
	}
	assert.Equal(t, whole, parseChunks(t, single...))
}

func TestParseURITooLong(t *testing.T) {
	err := parseErr(t, "GET /"+strings.Repeat("a", MaxURLLength)+" HTTP/1.1\r\n\r\n")
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusRequestURITooLong, perr.Status)

	reqs := parseChunks(t, []byte("GET /"+strings.Repeat("a", MaxURLLength-1)+" HTTP/1.1\r\n\r\n"))
	require.Len(t, reqs, 1)
	assert.Len(t, reqs[0].URL, MaxURLLength)
}

func TestParseHeaderTooLarge(t *testing.T) {
	err := parseErr(t, "GET / HTTP/1.1\r\nX-Big: "+strings.Repeat("b", MaxHeaderLineLength)+"\r\n\r\n")
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusRequestHeaderFieldsTooLarge, perr.Status)
}

func TestParseMalformedContentLength(t *testing.T) {
	for _, v := range []string{"abc", "-1", "12x"} {
		err := parseErr(t, "POST / HTTP/1.1\r\nContent-Length: "+v+"\r\n\r\n")
		require.Error(t, err, v)
		var perr *Error
		assert.False(t, errors.As(err, &perr), "a malformed length is not answered")
	}
}

func TestParseResetsAfterError(t *testing.T) {
	p := NewParser()
	defer p.Release()
	in := ring.New(0)
	_, _ = in.WriteString("POST / HTTP/1.1\r\nContent-Length: nope\r\n")
	_, err := p.Parse(in)
	require.Error(t, err)
	in.Reset()
	_, _ = in.WriteString("GET /again HTTP/1.1\r\n\r\n")
	req, err := p.Parse(in)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "/again", req.URL)
}

func TestMethodChecksums(t *testing.T) {
	want := map[string]int{
		"GET": 224, "PUT": 249, "HEAD": 274, "POST": 326,
		"TRACE": 367, "DELETE": 435, "CONNECT": 522, "OPTIONS": 556,
	}
	seen := make(map[int]string)
	for name, sum := range want {
		assert.Equal(t, sum, checksum(name), name)
		prev, dup := seen[sum]
		assert.Falsef(t, dup, "%s collides with %s", name, prev)
		seen[sum] = name
		assert.Equal(t, name, methodSums[sum].String())
	}
	assert.Len(t, methodSums, len(want))
	assert.Equal(t, 511, http11Sum)

	// Same byte sums as GET and HTTP/1.1, different tokens.
	reqs := parseChunks(t, []byte("GTE / HTTP/11.\r\n\r\n"))
	require.Len(t, reqs, 1)
	assert.Equal(t, checksum("GET"), checksum("GTE"))
	assert.Equal(t, MethodUnknown, reqs[0].Method)
	assert.False(t, reqs[0].HTTP11)
}

func TestParseEmptyURL(t *testing.T) {
	reqs := parseChunks(t, []byte("GET  HTTP/1.1\r\n\r\n"))
	require.Len(t, reqs, 1)
	assert.Equal(t, "", reqs[0].URL)
	assert.True(t, reqs[0].HTTP11)
}

func TestParseLeavesNextRequestBuffered(t *testing.T) {
	p := NewParser()
	defer p.Release()
	in := ring.New(0)
	_, _ = in.WriteString("GET /1 HTTP/1.1\r\n\r\nGET /2 HT")
	req, err := p.Parse(in)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, "/1", req.URL)
	assert.True(t, bytes.Equal([]byte("GET /2 HT"), in.Bytes()))
}
