// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package shader defines the byte layouts of data that
// is uploaded to the GPU.
package shader

import (
	"time"
	"unsafe"

	"github.com/gviegas/gfxbench/linear"
)

// FrameLayout is the layout of per-frame, global data.
// It is defined as follows:
//
//	[0:16]  | view-projection matrix
//	[16:32] | view matrix
//	[32:48] | projection matrix
//	[48]    | animation time in seconds
//	[49]    | normalized random value
//	[50]    | viewport's x
//	[51]    | viewport's y
//	[52]    | viewport's width
//	[53]    | viewport's height
//	[54]    | viewport's near plane
//	[55]    | viewport's far plane
//	[56:59] | camera's position
//	[59]    | whether highp is forced
//	[60:64] | (unused)
type FrameLayout [64]float32

// SetVP sets the view-projection matrix.
func (l *FrameLayout) SetVP(m *linear.M4) { copyM4(l[:16], m) }

// SetV sets the view matrix.
func (l *FrameLayout) SetV(m *linear.M4) { copyM4(l[16:32], m) }

// SetP sets the projection matrix.
func (l *FrameLayout) SetP(m *linear.M4) { copyM4(l[32:48], m) }

// SetTime sets the animation time.
func (l *FrameLayout) SetTime(d time.Duration) { l[48] = float32(d.Seconds()) }

// SetRand sets the normalized random value.
func (l *FrameLayout) SetRand(rnd float32) { l[49] = rnd }

// SetViewport sets the viewport bounds.
func (l *FrameLayout) SetViewport(x, y, width, height, znear, zfar float32) {
	l[50] = x
	l[51] = y
	l[52] = width
	l[53] = height
	l[54] = znear
	l[55] = zfar
}

// SetEye sets the camera's position.
func (l *FrameLayout) SetEye(p *linear.V3) { l[56], l[57], l[58] = p[0], p[1], p[2] }

// SetHighp sets whether highp is forced.
func (l *FrameLayout) SetHighp(highp bool) { l[59] = bool32(highp) }

// ParticleLayout is the layout of particle data.
// It is defined as follows:
//
//	[0:3]   | position
//	[3]     | size
//	[4:7]   | velocity
//	[7]     | rotation in radians
//	[8]     | opacity
//	[9]     | normalized age
//	[10]    | flip-book frame
//	[11]    | flip-book frame count
//	[12]    | additive factor
//	[13]    | roundness
//	[14]    | shade factor
//	[15]    | (unused)
//
// Integers are stored as their bit patterns.
type ParticleLayout [16]float32

// ParticleSize is the size in bytes of a ParticleLayout.
const ParticleSize = int(unsafe.Sizeof(ParticleLayout{}))

// SetPosition sets the position.
func (l *ParticleLayout) SetPosition(p *linear.V3) { l[0], l[1], l[2] = p[0], p[1], p[2] }

// SetSize sets the size.
func (l *ParticleLayout) SetSize(s float32) { l[3] = s }

// SetVelocity sets the velocity.
func (l *ParticleLayout) SetVelocity(v *linear.V3) { l[4], l[5], l[6] = v[0], v[1], v[2] }

// SetRotation sets the rotation.
func (l *ParticleLayout) SetRotation(r float32) { l[7] = r }

// SetOpacity sets the opacity.
func (l *ParticleLayout) SetOpacity(o float32) { l[8] = o }

// SetAge sets the normalized age.
func (l *ParticleLayout) SetAge(a float32) { l[9] = a }

// SetFrame sets the flip-book frame and frame count.
func (l *ParticleLayout) SetFrame(frame, count uint32) {
	l[10] = *(*float32)(unsafe.Pointer(&frame))
	l[11] = *(*float32)(unsafe.Pointer(&count))
}

// SetMaterial sets the additive, roundness and shade
// factors.
func (l *ParticleLayout) SetMaterial(additive, roundness, shade float32) {
	l[12], l[13], l[14] = additive, roundness, shade
}

func copyM4(dst []float32, m *linear.M4) {
	copy(dst, unsafe.Slice((*float32)(unsafe.Pointer(m)), 16))
}

func bool32(b bool) float32 {
	var x uint32
	if b {
		x = 1
	}
	return *(*float32)(unsafe.Pointer(&x))
}

// Bytes returns the bytes of l.
func (l *FrameLayout) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(l)), unsafe.Sizeof(*l))
}

// Bytes returns the bytes of l.
func (l *ParticleLayout) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(l)), unsafe.Sizeof(*l))
}

// CopyParticles copies src to dst, which must have
// room for len(src) layouts.
// It returns the number of bytes copied.
func CopyParticles(dst []byte, src []ParticleLayout) int {
	if len(src) == 0 {
		return 0
	}
	return copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(&src[0])), len(src)*ParticleSize))
}
