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

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freecs/reactor/pkg/messaging"
)

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer
	cfg, err := parseFlags(nil, &out)
	require.NoError(t, err)
	assert.Equal(t, messaging.DefaultPort, cfg.port)
	assert.Empty(t, cfg.connectTo)

	cfg, err = parseFlags([]string{"-connectTo=10.0.0.7:1976", "-port=2000"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7:1976", cfg.connectTo)
	assert.Equal(t, 2000, cfg.port)
}

func TestParseFlagsRejectsUnknown(t *testing.T) {
	for _, args := range [][]string{{"-verbose"}, {"-port=x"}, {"stray"}} {
		var out bytes.Buffer
		_, err := parseFlags(args, &out)
		assert.Error(t, err, args)
		assert.Contains(t, out.String(), "-connectTo", "usage is printed")
	}
}
