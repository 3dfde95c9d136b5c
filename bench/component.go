// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"context"

	"github.com/gviegas/gfxbench/result"
)

// Component is a per-frame service of a Runner.
// Components are called in registration order, from the
// goroutine that calls Runner.Init and Runner.Run.
type Component interface {
	// Name identifies the component in logs and errors.
	Name() string
	// Init is called once, before the test's Init.
	// An error aborts the run.
	Init(r *Runner) error
	BeginFrame(r *Runner)
	// AfterRender is called after the frame's command
	// buffers have been submitted and before the frame
	// is presented.
	AfterRender(r *Runner)
	EndFrame(r *Runner)
	// CreateResult adds the component's contribution to
	// the result of a completed run.
	CreateResult(r *Runner, g *result.Group)
	Close()
}

// Test is a benchmark test driven by a Runner.
type Test interface {
	// CmdBufferConfig returns the number of command
	// buffers recorded per frame and the number of
	// frames that may be in flight.
	CmdBufferConfig() (perFrame, prerendered int)
	// Init loads the test's resources.
	Init(r *Runner) error
	// Warmup is called once after Init, before the first
	// measured frame.
	Warmup(r *Runner) error
	// Animate updates the test to r.AnimationTime().
	Animate(ctx context.Context, r *Runner) error
	// Render records the frame into the command buffers
	// given by r.CmdBuffer.
	// Buffers that are still recording when Render
	// returns are submitted by the Runner.
	Render(ctx context.Context, r *Runner) error
	// Free releases the test's resources.
	Free()
}

// ResultCreator is implemented by tests that produce
// their own result.
// A non-nil Group returned by CreateResult is used as
// is.
type ResultCreator interface {
	CreateResult(r *Runner) *result.Group
}

// Component names.
const (
	NameTime       = "time"
	NameVSync      = "vsync"
	NameCharts     = "charts"
	NameInput      = "input"
	NameScreenshot = "screenshot"
	NameStatistics = "statistics"
	NameScreen     = "screen"
)
