// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package null

import (
	"errors"
	"sync/atomic"

	"github.com/gviegas/gfxbench/driver"
)

// Stats holds command counters.
type Stats struct {
	Commits    int64
	CmdBuffers int64
	Passes     int64
	Draws      int64
	Instances  int64
}

// GPU implements driver.GPU.
type GPU struct {
	drv    *Driver
	ctx    *Context
	limits driver.Limits

	commits   atomic.Int64
	cmdBufs   atomic.Int64
	passes    atomic.Int64
	draws     atomic.Int64
	instances atomic.Int64
}

// Driver implements driver.GPU.
func (g *GPU) Driver() driver.Driver { return g.drv }

// Commit implements driver.GPU.
// Work completes immediately; wk is delivered to ch
// from a separate goroutine.
func (g *GPU) Commit(wk *driver.WorkItem, ch chan<- *driver.WorkItem) error {
	if len(wk.Work) == 0 {
		return errors.New("null: empty work item")
	}
	for _, x := range wk.Work {
		cb, ok := x.(*CmdBuffer)
		if !ok || cb.gpu != g {
			return errors.New("null: foreign command buffer")
		}
		if cb.recording {
			return errors.New("null: command buffer is recording")
		}
	}
	var err error
	for _, x := range wk.Work {
		cb := x.(*CmdBuffer)
		if cb.err != nil {
			err = cb.err
		}
		g.passes.Add(cb.passes)
		g.draws.Add(cb.draws)
		g.instances.Add(cb.instances)
		if cb.passes > 0 {
			g.ctx.setClear(cb.clear)
		}
		cb.committed = true
	}
	g.commits.Add(1)
	g.cmdBufs.Add(int64(len(wk.Work)))
	wk.Err = err
	go func() { ch <- wk }()
	return nil
}

// NewCmdBuffer implements driver.GPU.
func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &CmdBuffer{gpu: g}, nil
}

// NewBuffer implements driver.GPU.
// The capacity is rounded up to a multiple of 256.
func (g *GPU) NewBuffer(size int64, _ driver.Usage) (driver.Buffer, error) {
	if size <= 0 || size > g.limits.MaxBuffer {
		return nil, errors.New("null: invalid buffer size")
	}
	return &Buffer{p: make([]byte, (size+255)&^255)}, nil
}

// Limits implements driver.GPU.
func (g *GPU) Limits() driver.Limits { return g.limits }

// Features implements driver.GPU.
func (g *GPU) Features() driver.Features {
	return driver.Features{Compute: true, FragmentHighp: true}
}

// Info implements driver.GPU.
func (g *GPU) Info() driver.Info {
	return driver.Info{
		Vendor:   "gfxbench",
		Renderer: "null",
		Version:  "1.0",
	}
}

// Stats returns the command counters.
func (g *GPU) Stats() Stats {
	return Stats{
		Commits:    g.commits.Load(),
		CmdBuffers: g.cmdBufs.Load(),
		Passes:     g.passes.Load(),
		Draws:      g.draws.Load(),
		Instances:  g.instances.Load(),
	}
}

// CmdBuffer implements driver.CmdBuffer.
type CmdBuffer struct {
	gpu       *GPU
	recording bool
	committed bool
	inPass    bool
	constant  bool
	err       error

	passes    int64
	draws     int64
	instances int64
	clear     [4]float32
}

// Begin implements driver.CmdBuffer.
func (cb *CmdBuffer) Begin() error {
	if cb.recording {
		return errors.New("null: Begin called while recording")
	}
	*cb = CmdBuffer{gpu: cb.gpu, recording: true}
	return nil
}

// IsRecording implements driver.CmdBuffer.
func (cb *CmdBuffer) IsRecording() bool { return cb.recording }

func (cb *CmdBuffer) fail(s string) {
	if cb.err == nil {
		cb.err = errors.New("null: " + s)
	}
}

// BeginPass implements driver.CmdBuffer.
func (cb *CmdBuffer) BeginPass(clear driver.ClearValue) {
	if !cb.recording || cb.inPass {
		cb.fail("misplaced BeginPass")
		return
	}
	cb.inPass = true
	cb.passes++
	cb.clear = clear.Color
}

// EndPass implements driver.CmdBuffer.
func (cb *CmdBuffer) EndPass() {
	if !cb.inPass {
		cb.fail("EndPass without BeginPass")
		return
	}
	cb.inPass = false
	cb.constant = false
}

// SetConstantBuf implements driver.CmdBuffer.
func (cb *CmdBuffer) SetConstantBuf(buf driver.Buffer, off, size int64) {
	switch {
	case !cb.inPass:
		cb.fail("SetConstantBuf outside of render pass")
	case off < 0 || size <= 0 || off+size > buf.Cap():
		cb.fail("constant range out of bounds")
	case size > cb.gpu.limits.MaxConstantRange:
		cb.fail("constant range exceeds limit")
	case off%cb.gpu.limits.MinConstantAlign != 0:
		cb.fail("misaligned constant offset")
	default:
		cb.constant = true
	}
}

// Draw implements driver.CmdBuffer.
func (cb *CmdBuffer) Draw(vertCount, instCount, baseVert, baseInst int) {
	switch {
	case !cb.inPass:
		cb.fail("Draw outside of render pass")
	case vertCount < 0 || instCount < 0 || baseVert < 0 || baseInst < 0:
		cb.fail("negative draw parameter")
	case instCount > cb.gpu.limits.MaxInstances:
		cb.fail("instance count exceeds limit")
	default:
		cb.draws++
		cb.instances += int64(instCount)
	}
}

// End implements driver.CmdBuffer.
func (cb *CmdBuffer) End() error {
	if !cb.recording {
		return errors.New("null: End called while not recording")
	}
	if cb.inPass {
		cb.fail("End called inside render pass")
	}
	cb.recording = false
	return cb.err
}

// Reset implements driver.CmdBuffer.
func (cb *CmdBuffer) Reset() error {
	*cb = CmdBuffer{gpu: cb.gpu}
	return nil
}

// Destroy implements driver.CmdBuffer.
func (cb *CmdBuffer) Destroy() { cb.gpu = nil }

// Buffer implements driver.Buffer.
type Buffer struct {
	p []byte
}

// Bytes implements driver.Buffer.
func (b *Buffer) Bytes() []byte { return b.p }

// Cap implements driver.Buffer.
func (b *Buffer) Cap() int64 { return int64(len(b.p)) }

// Destroy implements driver.Buffer.
func (b *Buffer) Destroy() { b.p = nil }
