// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package driver

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
)

// ContextConfig describes the surface and API version
// requested for a graphics context.
type ContextConfig struct {
	// Surface size. DepthOrArrayLayers must be 1.
	Size gputypes.Extent3D

	// Formats of the color and depth/stencil buffers.
	// DepthFormat may be TextureFormatUndefined.
	ColorFormat gputypes.TextureFormat
	DepthFormat gputypes.TextureFormat

	Samples   int
	VSync     bool
	Offscreen bool

	// Requested API version.
	// Zero means the highest version available.
	Major, Minor int

	// Device selection.
	// An empty DeviceID matches any device.
	DeviceID    string
	DeviceIndex int
}

// SurfaceFormats returns the color and depth formats
// that satisfy the given channel bit depths.
// Only 8-bit color channels are supported; all zero
// selects the platform's default format. A zero depth
// yields TextureFormatUndefined.
func SurfaceFormats(red, green, blue, alpha, depth int) (color, ds gputypes.TextureFormat, err error) {
	switch {
	case red == 8 && green == 8 && blue == 8 && (alpha == 8 || alpha == 0):
		color = gputypes.TextureFormatRGBA8Unorm
	case red == 0 && green == 0 && blue == 0 && alpha == 0:
		color = gputypes.TextureFormatBGRA8Unorm
	default:
		return 0, 0, fmt.Errorf("%w: unsupported color bits %d/%d/%d/%d", ErrContext, red, green, blue, alpha)
	}
	switch {
	case depth == 0:
		ds = gputypes.TextureFormatUndefined
	case depth <= 16:
		ds = gputypes.TextureFormatDepth16Unorm
	case depth <= 24:
		ds = gputypes.TextureFormatDepth24PlusStencil8
	case depth <= 32:
		ds = gputypes.TextureFormatDepth32Float
	default:
		return 0, 0, fmt.Errorf("%w: unsupported depth bits %d", ErrContext, depth)
	}
	return
}

// Flag is the type of context flags.
type Flag int

// Context flags.
const (
	FlagDebug Flag = 1 << iota
	FlagRobust
	FlagSRGB
	FlagHeadless
)

// Context is the interface that defines a graphics
// context.
// A context is bound to a single thread at a time.
type Context interface {
	Destroyer

	// IsValid returns whether the context can still
	// be used.
	IsValid() bool

	// MakeCurrent binds the context to the calling
	// thread.
	MakeCurrent() error

	// DetachThread unbinds the context from the
	// calling thread.
	DetachThread() error

	// SwapBuffers presents the current backbuffer.
	SwapBuffers() error

	// Backend returns the context's graphics API.
	Backend() Backend

	// Version returns the API version of the context.
	Version() (major, minor int)

	// HasFlag returns whether every flag in f is set.
	HasFlag(f Flag) bool

	// Config returns the configuration that the
	// context was created with, updated with the
	// values actually chosen.
	Config() ContextConfig

	// InitData returns the backend-specific data
	// needed to initialize a GPU on the context.
	// Only the driver that created the context knows
	// its dynamic type.
	InitData() any
}

// Screenshotter is the interface that a Context may
// implement to allow reading back the current
// backbuffer.
type Screenshotter interface {
	// ReadPixels copies the backbuffer's contents.
	ReadPixels() (*image.RGBA, error)
}
