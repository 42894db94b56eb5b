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

package reactor

import (
	"runtime"
	"time"

	"github.com/freecs/reactor/pkg/logging"
)

// DefaultPollTimeout bounds every multiplexer wait.
const DefaultPollTimeout = 33 * time.Millisecond

// DefaultListenerNice is the nice value dedicated listener loops try to run with.
const DefaultListenerNice = -5

// Option is a function that will set up option.
type Option func(opts *Options)

func loadOptions(options ...Option) *Options {
	opts := new(Options)
	for _, option := range options {
		option(opts)
	}
	if opts.NumEventLoop <= 0 {
		opts.NumEventLoop = runtime.NumCPU()
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if opts.ListenerNice == 0 {
		opts.ListenerNice = DefaultListenerNice
	}
	return opts
}

// Options are configurations for event-loops and groups.
type Options struct {
	// NumEventLoop is the number of worker event-loops in a Group, runtime.NumCPU() by default.
	NumEventLoop int

	// PollTimeout bounds each multiplexer wait, 33ms by default.
	PollTimeout time.Duration

	// LockOSThread pins every worker event-loop to its own OS thread.
	// Dedicated listener loops always lock their thread.
	LockOSThread bool

	// ListenerNice is the scheduling priority applied to listener threads, lower is more urgent,
	// zero selects DefaultListenerNice. Raising the priority needs privileges, failures are only logged.
	ListenerNice int

	// Logger is the customized logger for logging info, if it is not set,
	// then the default logger from pkg/logging is used.
	Logger logging.Logger

	// LogPath the local path where logs will be written, this is the easiest way to set up logging,
	// the default logger is used if this value is not set.
	LogPath string

	// LogLevel indicates the logging level, it should be used along with LogPath.
	LogLevel logging.Level
}

// WithOptions sets up all options.
func WithOptions(options Options) Option {
	return func(opts *Options) {
		*opts = options
	}
}

// WithNumEventLoop sets the number of worker event-loops.
func WithNumEventLoop(numEventLoop int) Option {
	return func(opts *Options) {
		opts.NumEventLoop = numEventLoop
	}
}

// WithPollTimeout sets the upper bound of a single multiplexer wait.
func WithPollTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.PollTimeout = timeout
	}
}

// WithLockOSThread sets up LockOSThread mode for worker event-loops.
func WithLockOSThread(lockOSThread bool) Option {
	return func(opts *Options) {
		opts.LockOSThread = lockOSThread
	}
}

// WithListenerNice sets the scheduling priority of listener threads.
func WithListenerNice(nice int) Option {
	return func(opts *Options) {
		opts.ListenerNice = nice
	}
}

// WithLogger sets up a customized logger.
func WithLogger(logger logging.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithLogPath is an option to set up the local path of log file.
func WithLogPath(fileName string) Option {
	return func(opts *Options) {
		opts.LogPath = fileName
	}
}

// WithLogLevel is an option to set up the logging level.
func WithLogLevel(lvl logging.Level) Option {
	return func(opts *Options) {
		opts.LogLevel = lvl
	}
}

// setupLogger installs the logger selected by opts as the package default.
func setupLogger(opts *Options) {
	logger, flusher := logging.GetDefaultLogger(), logging.GetDefaultFlusher()
	if opts.Logger == nil {
		if opts.LogPath != "" {
			if l, f, err := logging.CreateLoggerAsLocalFile(opts.LogPath, opts.LogLevel); err == nil {
				logger, flusher = l, f
			}
		}
		opts.Logger = logger
	} else {
		logger, flusher = opts.Logger, nil
	}
	logging.SetDefaultLoggerAndFlusher(logger, flusher)
}
