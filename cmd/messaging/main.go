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

// Command messaging is the messaging reference server: it accepts peers on every
// interface, optionally connects to another server and broadcasts a random message
// to every peer about once per second.
//
// Usage:
//
//	messaging [-connectTo=host:port] [-port=1976]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freecs/reactor/pkg/logging"
	"github.com/freecs/reactor/pkg/messaging"
)

type config struct {
	connectTo string
	port      int
}

func parseFlags(args []string, output io.Writer) (*config, error) {
	cfg := new(config)
	fs := flag.NewFlagSet("messaging", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.connectTo, "connectTo", "", "an optional `ip:port` to connect to")
	fs.IntVar(&cfg.port, "port", messaging.DefaultPort, "the `port` to listen on")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unknown argument %s", fs.Arg(0))
		_, _ = fmt.Fprintln(output, err)
		fs.Usage()
		return nil, err
	}
	return cfg, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = run(ctx, cfg, logging.GetDefaultLogger()); err != nil {
		logging.Errorf("messaging: %v", err)
		logging.Cleanup()
		os.Exit(1)
	}
	logging.Cleanup()
}

func run(ctx context.Context, cfg *config, logger logging.Logger) error {
	srv := messaging.NewServer(
		messaging.WithPort(cfg.port),
		messaging.WithLogger(logger),
		messaging.WithOnMessage(func(from *messaging.Handler, msg string) {
			logger.Infof("%s: %s", from.RemoteAddr(), msg)
		}),
	)
	if err := srv.Start(); err != nil {
		return err
	}
	if cfg.connectTo != "" {
		if res := <-srv.Connect(cfg.connectTo); res.Err != nil {
			_ = srv.Stop()
			return res.Err
		}
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for {
		select {
		case <-ctx.Done():
			return srv.Stop()
		case <-time.After(time.Second + time.Duration(rnd.Int63n(int64(time.Second)))):
			srv.Broadcast(fmt.Sprintf("Random message %v", rnd.Float64()))
		}
	}
}
