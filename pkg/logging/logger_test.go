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

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateLoggerAsLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactor.log")
	logger, flush, err := CreateLoggerAsLocalFile(path, InfoLevel)
	require.NoError(t, err)

	logger.Debugf("hidden %d", 1)
	logger.Infof("event-loop(%d) started", 3)
	logger.Warnf("stale fd=%d", 42)
	require.NoError(t, flush())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, prefix+" "), l)
	}
	assert.Contains(t, lines[0], "event-loop(3) started")
	assert.Contains(t, lines[1], "WARN")
	assert.NotContains(t, string(data), "hidden")
}

func TestCreateLoggerAsConsole(t *testing.T) {
	var out bytes.Buffer
	logger, flush := CreateLoggerAsConsole(zapcore.AddSync(&out), WarnLevel)

	logger.Debugf("hidden %d", 1)
	logger.Infof("hidden %d", 2)
	logger.Warnf("stale fd=%d", 42)
	require.NoError(t, flush())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], prefix+" "), lines[0])
	assert.Contains(t, lines[0], "stale fd=42")
	assert.NotContains(t, out.String(), "hidden")
}

func TestCreateLoggerRejectsEmptyPath(t *testing.T) {
	_, _, err := CreateLoggerAsLocalFile("", InfoLevel)
	assert.Error(t, err)
}

func TestPrefixEncoderClone(t *testing.T) {
	enc := newEncoder(zap.NewDevelopmentEncoderConfig())
	clone := enc.Clone()
	clone.AddString("loop", "7")
	buf, err := clone.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Message: "hi"}, nil)
	require.NoError(t, err)
	defer buf.Free()
	assert.True(t, strings.HasPrefix(buf.String(), prefix+" "))
	assert.Contains(t, buf.String(), `"loop": "7"`)
}

func TestErrorSkipsNil(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	saved := GetDefaultLogger()
	mu.Lock()
	defaultLogger = zap.New(core).Sugar()
	mu.Unlock()
	defer func() {
		mu.Lock()
		defaultLogger = saved
		mu.Unlock()
	}()

	Error(nil)
	assert.Zero(t, logs.Len())
	Error(os.ErrClosed)
	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, os.ErrClosed.Error())
	Infof("n=%d", 1)
	assert.Equal(t, 2, logs.Len())
}
