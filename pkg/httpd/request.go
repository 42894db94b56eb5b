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
	"sort"
	"strings"
)

// Method is a request method recognized by the parser.
type Method uint8

// Known request methods.
const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodPut
	MethodHead
	MethodDelete
	MethodTrace
	MethodOptions
	MethodConnect
)

var methodNames = [...]string{
	MethodUnknown: "unknown",
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodHead:    "HEAD",
	MethodDelete:  "DELETE",
	MethodTrace:   "TRACE",
	MethodOptions: "OPTIONS",
	MethodConnect: "CONNECT",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return methodNames[MethodUnknown]
}

// Request is one fully parsed request, it is never modified after the parser hands it out.
type Request struct {
	Method        Method
	URL           string
	Header        map[string]string // keys are lower case
	ContentLength int
	Body          []byte
	HTTP11        bool
	KeepAlive     bool
}

// Get returns the value of the header key, matched case-insensitively.
func (r *Request) Get(key string) string {
	return r.Header[strings.ToLower(key)]
}

// HeaderKeys returns the header names in lexical order.
func (r *Request) HeaderKeys() []string {
	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Request) setHeader(key, value string) error {
	switch key {
	case "content-length":
		n, err := parseContentLength(value)
		if err != nil {
			return err
		}
		r.ContentLength = n
	case "connection":
		r.KeepAlive = strings.EqualFold(value, "keep-alive")
	}
	if r.Header == nil {
		r.Header = make(map[string]string)
	}
	r.Header[key] = value
	return nil
}
