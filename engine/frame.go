// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"fmt"
	"time"

	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/engine/internal/shader"
	"github.com/gviegas/gfxbench/linear"
)

// Camera defines the view of a frame.
type Camera struct {
	Eye    linear.V3
	Center linear.V3
	Up     linear.V3

	// Vertical field of view in radians.
	YFov  float32
	ZNear float32
	ZFar  float32
}

// ViewDir returns the normalized direction from Eye to
// Center.
func (c *Camera) ViewDir() (d linear.V3) {
	d.Sub(&c.Center, &c.Eye)
	d.Norm(&d)
	return
}

// FrameData stores the per-frame constants of every
// frame in flight.
// Each slot has its own region of a single constant
// buffer, so a frame can be written while others are
// still executing.
type FrameData struct {
	buf    driver.Buffer
	stride int64
	frames int
	layout shader.FrameLayout
}

var frameSize = int64(len(shader.FrameLayout{}) * 4)

// NewFrameData creates a FrameData for the given number
// of frames in flight.
func NewFrameData(gpu driver.GPU, frames int) (*FrameData, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("%w: %d frames", ErrRotation, frames)
	}
	stride := frameSize
	if a := gpu.Limits().MinConstantAlign; a > 0 {
		stride = (stride + a - 1) / a * a
	}
	buf, err := gpu.NewBuffer(stride*int64(frames), driver.UConstant)
	if err != nil {
		return nil, err
	}
	return &FrameData{buf: buf, stride: stride, frames: frames}, nil
}

// Set sets the constants of the next upload.
// width and height are the size of the viewport.
func (f *FrameData) Set(cam *Camera, width, height int, animTime time.Duration, highp bool) {
	var v, p, vp linear.M4
	v.LookAt(&cam.Center, &cam.Eye, &cam.Up)
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	p.Perspective(cam.YFov, aspect, cam.ZNear, cam.ZFar)
	vp.Mul(&p, &v)
	f.layout.SetVP(&vp)
	f.layout.SetV(&v)
	f.layout.SetP(&p)
	f.layout.SetTime(animTime)
	f.layout.SetViewport(0, 0, float32(width), float32(height), cam.ZNear, cam.ZFar)
	f.layout.SetEye(&cam.Eye)
	f.layout.SetHighp(highp)
}

// SetRand sets the normalized random value of the next
// upload.
func (f *FrameData) SetRand(rnd float32) { f.layout.SetRand(rnd) }

// Upload copies the constants to the region of slot and
// binds it in cb.
func (f *FrameData) Upload(cb driver.CmdBuffer, slot int) {
	off := int64(slot%f.frames) * f.stride
	copy(f.buf.Bytes()[off:], f.layout.Bytes())
	cb.SetConstantBuf(f.buf, off, frameSize)
}

// Slot returns the bytes of the constants of slot as of
// the last Upload to it.
func (f *FrameData) Slot(slot int) []byte {
	off := int64(slot%f.frames) * f.stride
	return f.buf.Bytes()[off : off+frameSize]
}

// Destroy releases the constant buffer.
func (f *FrameData) Destroy() {
	if f.buf != nil {
		f.buf.Destroy()
		f.buf = nil
	}
}
