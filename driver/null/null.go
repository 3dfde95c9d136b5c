// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package null implements a headless driver.Driver that
// executes no GPU work.
// It records statistics about the commands it receives,
// which makes it suitable for measuring the CPU side of
// a benchmark and for testing.
package null

import (
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gviegas/gfxbench/driver"
)

// Name is the name of the registered driver.
const Name = "null"

func init() {
	driver.Register(&Driver{})
}

// Driver implements driver.Driver.
// The zero value is ready to use.
type Driver struct {
	// FailContext, if not nil, is returned (wrapped in
	// driver.ErrContext) by NewContext.
	FailContext error
	// FailOpen, if not nil, is returned by Open.
	FailOpen error
	// MaxBuffer, if greater than zero, replaces the
	// buffer size limit of the GPU.
	MaxBuffer int64

	mu  sync.Mutex
	gpu *GPU
}

// Name implements driver.Driver.
func (d *Driver) Name() string { return Name }

// Backend implements driver.Driver.
func (d *Driver) Backend() driver.Backend { return driver.Null }

// NewContext implements driver.Driver.
func (d *Driver) NewContext(cfg *driver.ContextConfig) (driver.Context, error) {
	if d.FailContext != nil {
		return nil, errors.Join(driver.ErrContext, d.FailContext)
	}
	if cfg.Size.Width == 0 || cfg.Size.Height == 0 {
		return nil, errors.Join(driver.ErrContext, errors.New("null: zero surface size"))
	}
	c := &Context{cfg: *cfg, valid: true}
	c.cfg.Size.DepthOrArrayLayers = 1
	if c.cfg.ColorFormat == gputypes.TextureFormatUndefined {
		c.cfg.ColorFormat = gputypes.TextureFormatRGBA8Unorm
	}
	if c.cfg.Major == 0 {
		c.cfg.Major, c.cfg.Minor = 1, 0
	}
	if c.cfg.Samples < 1 {
		c.cfg.Samples = 1
	}
	return c, nil
}

// Open implements driver.Driver.
func (d *Driver) Open(ctx driver.Context) (driver.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailOpen != nil {
		return nil, d.FailOpen
	}
	if d.gpu != nil {
		return d.gpu, nil
	}
	c, ok := ctx.(*Context)
	if !ok || !c.IsValid() {
		return nil, driver.ErrNoDevice
	}
	dl := gputypes.DefaultLimits()
	d.gpu = &GPU{
		drv: d,
		ctx: c,
		limits: driver.Limits{
			MaxImage2D:       int(dl.MaxTextureDimension2D),
			MaxBuffer:        int64(dl.MaxBufferSize),
			MaxConstantRange: 65536,
			MinConstantAlign: 256,
			MaxInstances:     1 << 20,
			MaxDispatch:      [3]int{65535, 65535, 65535},
		},
	}
	if d.MaxBuffer > 0 {
		d.gpu.limits.MaxBuffer = d.MaxBuffer
	}
	return d.gpu, nil
}

// Close implements driver.Driver.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gpu = nil
}

// Context implements driver.Context and
// driver.Screenshotter.
type Context struct {
	cfg     driver.ContextConfig
	valid   bool
	current bool
	swaps   atomic.Int64

	mu    sync.Mutex
	clear [4]float32
}

// IsValid implements driver.Context.
func (c *Context) IsValid() bool { return c.valid }

// MakeCurrent implements driver.Context.
func (c *Context) MakeCurrent() error {
	if !c.valid {
		return driver.ErrFatal
	}
	c.current = true
	return nil
}

// DetachThread implements driver.Context.
func (c *Context) DetachThread() error {
	c.current = false
	return nil
}

// SwapBuffers implements driver.Context.
func (c *Context) SwapBuffers() error {
	if !c.valid {
		return driver.ErrFatal
	}
	c.swaps.Add(1)
	return nil
}

// Backend implements driver.Context.
func (c *Context) Backend() driver.Backend { return driver.Null }

// Version implements driver.Context.
func (c *Context) Version() (major, minor int) { return c.cfg.Major, c.cfg.Minor }

// HasFlag implements driver.Context.
func (c *Context) HasFlag(f driver.Flag) bool {
	return f&^(driver.FlagHeadless|driver.FlagRobust) == 0
}

// Config implements driver.Context.
func (c *Context) Config() driver.ContextConfig { return c.cfg }

// InitData implements driver.Context.
// It returns the *Context itself.
func (c *Context) InitData() any { return c }

// Destroy implements driver.Context.
func (c *Context) Destroy() {
	c.valid = false
	c.current = false
}

// Swaps returns the number of SwapBuffers calls.
func (c *Context) Swaps() int64 { return c.swaps.Load() }

// ReadPixels implements driver.Screenshotter.
// The image is filled with the clear color of the last
// committed render pass.
func (c *Context) ReadPixels() (*image.RGBA, error) {
	if !c.valid {
		return nil, driver.ErrFatal
	}
	c.mu.Lock()
	clr := c.clear
	c.mu.Unlock()
	var px color.RGBA
	for i, p := range []*uint8{&px.R, &px.G, &px.B, &px.A} {
		*p = uint8(min(max(clr[i], 0), 1)*255 + 0.5)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(c.cfg.Size.Width), int(c.cfg.Size.Height)))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = px.R
		img.Pix[i+1] = px.G
		img.Pix[i+2] = px.B
		img.Pix[i+3] = px.A
	}
	return img, nil
}

func (c *Context) setClear(v [4]float32) {
	c.mu.Lock()
	c.clear = v
	c.mu.Unlock()
}
