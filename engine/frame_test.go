// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gviegas/gfxbench/linear"
)

func TestFrameData(t *testing.T) {
	_, gpu := newGPU(t)
	if _, err := NewFrameData(gpu, 0); !errors.Is(err, ErrRotation) {
		t.Fatalf("NewFrameData(gpu, 0)\nhave %v\nwant %v", err, ErrRotation)
	}
	fd, err := NewFrameData(gpu, 3)
	if err != nil {
		t.Fatalf("NewFrameData failed:\n%#v", err)
	}
	defer fd.Destroy()
	if a := gpu.Limits().MinConstantAlign; a > 0 && fd.stride%a != 0 {
		t.Fatalf("FrameData.stride: misaligned\nhave %d\nwant multiple of %d", fd.stride, a)
	}
	if n := fd.buf.Cap(); n < fd.stride*3 {
		t.Fatalf("FrameData.buf.Cap\nhave %d\nwant >= %d", n, fd.stride*3)
	}

	cb, err := gpu.NewCmdBuffer()
	if err != nil {
		t.Fatalf("GPU.NewCmdBuffer failed:\n%#v", err)
	}
	defer cb.Destroy()
	cam := Camera{
		Eye:   linear.V3{0, 0, 5},
		Up:    linear.V3{0, 1, 0},
		YFov:  math.Pi / 3,
		ZNear: 0.1,
		ZFar:  100,
	}
	word := func(b []byte, i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	for slot, ms := range [...]int{250, 500, 750, 1000} {
		fd.Set(&cam, 640, 480, time.Duration(ms)*time.Millisecond, false)
		cb.Begin()
		fd.Upload(cb, slot)
		cb.End()
		b := fd.Slot(slot)
		if x := word(b, 48); x != float32(ms)/1000 {
			t.Fatalf("FrameData.Upload: slot %d time\nhave %v\nwant %v", slot, x, float32(ms)/1000)
		}
		if x := word(b, 52); x != 640 {
			t.Fatalf("FrameData.Upload: slot %d width\nhave %v\nwant 640", slot, x)
		}
		if x := word(b, 58); x != 5 {
			t.Fatalf("FrameData.Upload: slot %d eye z\nhave %v\nwant 5", slot, x)
		}
	}
	// Slot 3 wraps to slot 0.
	if x := word(fd.Slot(0), 48); x != 1 {
		t.Fatalf("FrameData.Upload: wrapped slot time\nhave %v\nwant 1", x)
	}
	if x := word(fd.Slot(1), 48); x != 0.5 {
		t.Fatalf("FrameData.Upload: slot 1 time\nhave %v\nwant 0.5", x)
	}
}

func TestCameraViewDir(t *testing.T) {
	cam := Camera{Eye: linear.V3{0, 0, 4}, Center: linear.V3{0, 0, -4}}
	if d := cam.ViewDir(); d != (linear.V3{0, 0, -1}) {
		t.Fatalf("Camera.ViewDir\nhave %v\nwant [0 0 -1]", d)
	}
}
