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

// Command httpd is the HTTP reference server: it answers every request with a page
// describing the request and keeps idle keep-alive connections in check.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zapcore"

	"github.com/freecs/reactor"
	"github.com/freecs/reactor/pkg/httpd"
	"github.com/freecs/reactor/pkg/logging"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "httpd [workers]",
		Short:        "Serve HTTP on every interface with a pool of event-loops",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}
	registerFlags(cmd)
	return cmd
}

func run(ctx context.Context, cfg *Config) error {
	logger, flush, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if flush != nil {
		defer func() { _ = flush() }()
	}

	if cfg.Trace {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return errors.Wrap(err, "create span exporter")
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	srv := httpd.NewServer(
		httpd.WithAddrs(cfg.Addrs...),
		httpd.WithPort(cfg.Port),
		httpd.WithNumEventLoop(cfg.Workers),
		httpd.WithIdleTimeout(cfg.IdleTimeout),
		httpd.WithTCPKeepAlive(cfg.TCPKeepAlive),
		httpd.WithLogger(logger),
		httpd.WithReactorOptions(
			reactor.WithPollTimeout(cfg.PollTimeout),
			reactor.WithLockOSThread(cfg.LockOSThread),
		),
	)
	if err = srv.Start(ctx); err != nil {
		logger.Errorf("httpd failed to start: %v", err)
		return err
	}
	<-ctx.Done()
	logger.Infof("httpd is shutting down")
	return srv.Stop()
}

// newLogger builds the logger selected by cfg and installs it as the default one,
// so the event-loops and acceptors log at the same level.
func newLogger(cfg *Config) (logging.Logger, logging.Flusher, error) {
	lvl, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse log level")
	}
	var (
		logger logging.Logger
		flush  logging.Flusher
	)
	if cfg.LogFile == "" {
		logger, flush = logging.CreateLoggerAsConsole(zapcore.Lock(os.Stdout), lvl)
	} else if logger, flush, err = logging.CreateLoggerAsLocalFile(cfg.LogFile, lvl); err != nil {
		return nil, nil, errors.Wrapf(err, "open log file %s", cfg.LogFile)
	}
	logging.SetDefaultLoggerAndFlusher(logger, flush)
	return logger, flush, nil
}
