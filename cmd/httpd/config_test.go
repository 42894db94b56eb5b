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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/pkg/httpd"
)

func parse(t *testing.T, argv ...string) (*Config, error) {
	t.Helper()
	var (
		cfg *Config
		err error
	)
	cmd := &cobra.Command{
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err = loadConfig(cmd, args)
			return nil
		},
	}
	registerFlags(cmd)
	cmd.SetArgs(argv)
	require.NoError(t, cmd.Execute())
	return cfg, err
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, httpd.DefaultPort, cfg.Port)
	assert.Empty(t, cfg.Addrs)
	assert.Zero(t, cfg.Workers)
	assert.Equal(t, httpd.DefaultIdleTimeout, cfg.IdleTimeout)
	assert.Equal(t, reactor.DefaultPollTimeout, cfg.PollTimeout)
	assert.False(t, cfg.Trace)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.TCPKeepAlive)
}

func TestConfigFlagsAndWorkerArgument(t *testing.T) {
	cfg, err := parse(t, "--port=8080", "--addr=127.0.0.1:9000", "--addr=[::1]:9000",
		"--idle-timeout=3s", "--tcp-keepalive=30s", "--log-level=warn", "--trace", "6")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"127.0.0.1:9000", "[::1]:9000"}, cfg.Addrs)
	assert.Equal(t, 3*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.TCPKeepAlive)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Trace)
	assert.Equal(t, 6, cfg.Workers)

	_, err = parse(t, "many")
	assert.Error(t, err)
}

func TestConfigEnvironment(t *testing.T) {
	t.Setenv("HTTPD_IDLE_TIMEOUT", "250ms")
	t.Setenv("HTTPD_WORKERS", "3")
	cfg, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.IdleTimeout)
	assert.Equal(t, 3, cfg.Workers)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "httpd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8081\nidle-timeout: 1m\nlock-os-thread: true\n"), 0o600))
	cfg, err := parse(t, "--config="+path)
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, time.Minute, cfg.IdleTimeout)
	assert.True(t, cfg.LockOSThread)

	_, err = parse(t, "--config="+filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, _, err := newLogger(&Config{LogLevel: "loud"})
	assert.Error(t, err)
}
