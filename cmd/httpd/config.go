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
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/pkg/httpd"
)

// Config is the configuration of the server, read from flags, HTTPD_* environment
// variables and an optional config file, in that order of precedence.
type Config struct {
	Port         int           `mapstructure:"port"`
	Addrs        []string      `mapstructure:"addr"`
	Workers      int           `mapstructure:"workers"`
	IdleTimeout  time.Duration `mapstructure:"idle-timeout"`
	TCPKeepAlive time.Duration `mapstructure:"tcp-keepalive"`
	PollTimeout  time.Duration `mapstructure:"poll-timeout"`
	LockOSThread bool          `mapstructure:"lock-os-thread"`
	Trace        bool          `mapstructure:"trace"`
	LogFile      string        `mapstructure:"log-file"`
	LogLevel     string        `mapstructure:"log-level"`
}

func registerFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("config", "", "optional config file (yaml, json or toml)")
	fs.Int("port", httpd.DefaultPort, "port bound on every interface address")
	fs.StringSlice("addr", nil, "explicit host:port to listen on, repeatable, overrides --port")
	fs.Int("workers", 0, "number of worker event-loops, the number of CPUs if zero")
	fs.Duration("idle-timeout", httpd.DefaultIdleTimeout, "close keep-alive connections idle for that long")
	fs.Duration("tcp-keepalive", 0, "enable TCP keep-alive on accepted sockets with this period")
	fs.Duration("poll-timeout", reactor.DefaultPollTimeout, "upper bound of a single multiplexer wait")
	fs.Bool("lock-os-thread", false, "pin every worker event-loop to its own OS thread")
	fs.Bool("trace", false, "export a span per request to stdout")
	fs.String("log-file", "", "write logs to this rotating file instead of stdout")
	fs.String("log-level", "info", "minimum level logged: debug, info, warn or error")
}

// loadConfig merges the config sources for cmd, the first positional argument is the worker count.
func loadConfig(cmd *cobra.Command, args []string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HTTPD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	cfg := new(Config)
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return nil, errors.Errorf("invalid worker count %q", args[0])
		}
		cfg.Workers = n
	}
	return cfg, nil
}
