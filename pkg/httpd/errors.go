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
	"fmt"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
)

// Error is a protocol fault that is answered with an error response before the connection is closed.
type Error struct {
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("httpd: %d %s", e.Status, http.StatusText(e.Status))
}

var (
	errURITooLong         = &Error{Status: http.StatusRequestURITooLong}
	errHeaderTooLarge     = &Error{Status: http.StatusRequestHeaderFieldsTooLarge}
	errBadRequest         = &Error{Status: http.StatusBadRequest}
	errBodyTooLarge       = &Error{Status: http.StatusRequestEntityTooLarge}
	errMalformedLengthFmt = "httpd: malformed content-length %q"
)

// parseContentLength fails with a plain error, the caller treats it as a broken connection.
func parseContentLength(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, errMalformedLengthFmt, v)
	}
	if n < 0 {
		return 0, errors.Errorf(errMalformedLengthFmt, v)
	}
	return n, nil
}
