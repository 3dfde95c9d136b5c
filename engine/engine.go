// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package engine implements the rendering backend of
// benchmark runs.
package engine

import (
	"unsafe"

	"github.com/gviegas/gfxbench/engine/internal/shader"
)

const (
	// The maximum number of frames in flight.
	MaxPrerendered = 4

	// The minimum constant budget in bytes.
	// It fits exactly one FrameLayout.
	MinConstantBudget = int(unsafe.Sizeof(shader.FrameLayout{}))

	dflPrerendered    = 3
	dflConstantBudget = 16384
)

// Config is used to configure the engine.
type Config struct {
	// The maximum number of frames in flight that a
	// test may request.
	//
	// Default is 3.
	MaxPrerendered int

	// The size in bytes of each constant upload.
	// Particle batches are sized to fit it.
	//
	// It must be a multiple of 256 bytes.
	//
	// Default is 16384 bytes.
	ConstantBudget int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxPrerendered: dflPrerendered,
		ConstantBudget: dflConstantBudget,
	}
}

// Validate clamps out-of-range values of c.
func (c *Config) Validate() {
	switch {
	case c.MaxPrerendered < 1:
		c.MaxPrerendered = 1
	case c.MaxPrerendered > MaxPrerendered:
		c.MaxPrerendered = MaxPrerendered
	}
	if c.ConstantBudget < MinConstantBudget {
		c.ConstantBudget = MinConstantBudget
	}
	c.ConstantBudget &^= 255
}
