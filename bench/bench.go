// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package bench runs benchmark tests.
//
// A Runner drives a Test through initialization, warmup
// and a frame loop, and then produces a result.Group.
// Per-frame services such as timing, input and
// screenshots are provided by Components that the Runner
// calls in a fixed order.
package bench

import (
	"errors"
	"log/slog"

	"github.com/gviegas/gfxbench/internal/logx"
)

var (
	// ErrConfigParse means that the test descriptor could
	// not be parsed.
	ErrConfigParse = errors.New("bench: config parse error")
	// ErrInitRenderAPI means that the graphics context
	// or device could not be created.
	ErrInitRenderAPI = errors.New("bench: render API initialization failed")
	// ErrCmdBufferConfig means that the test requested no
	// command buffers or no frames in flight.
	ErrCmdBufferConfig = errors.New("bench: invalid command buffer configuration")
	// ErrComponentInit means that a component failed to
	// initialize.
	ErrComponentInit = errors.New("bench: component initialization failed")
	// ErrTestInit means that the test failed to
	// initialize or warm up.
	ErrTestInit = errors.New("bench: test initialization failed")
	// ErrState means that a Runner method was called in
	// the wrong state.
	ErrState = errors.New("bench: invalid runner state")
	// ErrCancelled means that the run was cancelled.
	ErrCancelled = errors.New("bench: cancelled")
)

// SetLogger sets the logger used by this module.
// A nil l disables logging, which is the default.
func SetLogger(l *slog.Logger) { logx.Set(l) }

// Logger returns the logger used by this module.
func Logger() *slog.Logger { return logx.L() }
