// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"fmt"

	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/internal/logx"
)

func newRendErr(s string) error { return errors.New("engine: renderer: " + s) }

// Renderer owns the command buffers of a run.
// A buffer index is never committed again before its
// prior commit completes: Begin blocks until then.
type Renderer struct {
	gpu driver.GPU
	cb  []driver.CmdBuffer
	// One channel per buffer. A buffer is available for
	// recording when its channel holds a WorkItem.
	ch []chan *driver.WorkItem
	// WorkItems of buffers that are recording.
	held []*driver.WorkItem
	err  error
}

// NewRenderer creates a new renderer with n command
// buffers.
func NewRenderer(gpu driver.GPU, n int) (*Renderer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d buffers", ErrRotation, n)
	}
	r := &Renderer{
		gpu:  gpu,
		cb:   make([]driver.CmdBuffer, n),
		ch:   make([]chan *driver.WorkItem, n),
		held: make([]*driver.WorkItem, n),
	}
	for i := range r.cb {
		cb, err := gpu.NewCmdBuffer()
		if err != nil {
			r.Destroy()
			return nil, err
		}
		r.cb[i] = cb
		r.ch[i] = make(chan *driver.WorkItem, 1)
		r.ch[i] <- &driver.WorkItem{Work: []driver.CmdBuffer{cb}, Custom: i}
	}
	logx.L().Debug("renderer created", "buffers", n)
	return r, nil
}

// Len returns the number of command buffers.
func (r *Renderer) Len() int { return len(r.cb) }

// CmdBuffer returns the command buffer at idx.
func (r *Renderer) CmdBuffer(idx int) driver.CmdBuffer { return r.cb[idx] }

// Recording returns whether the command buffer at idx
// has begun and not yet been submitted.
func (r *Renderer) Recording(idx int) bool { return r.held[idx] != nil }

// Begin waits for the prior commit of the command buffer
// at idx to complete and then begins recording into it.
// Calling Begin on a buffer that is recording has no
// effect.
func (r *Renderer) Begin(idx int) (driver.CmdBuffer, error) {
	cb := r.cb[idx]
	if r.held[idx] != nil {
		return cb, nil
	}
	wk := <-r.ch[idx]
	if wk.Err != nil {
		r.setErr(wk.Err)
		wk.Err = nil
	}
	if err := cb.Begin(); err != nil {
		r.ch[idx] <- wk
		return nil, err
	}
	r.held[idx] = wk
	return cb, nil
}

// Submit ends recording of the command buffer at idx
// and commits it.
func (r *Renderer) Submit(idx int) error {
	cb, wk := r.cb[idx], r.held[idx]
	if wk == nil {
		return newRendErr(fmt.Sprintf("Submit: buffer %d is not recording", idx))
	}
	r.held[idx] = nil
	if err := cb.End(); err != nil {
		cb.Reset()
		r.ch[idx] <- wk
		return err
	}
	if err := r.gpu.Commit(wk, r.ch[idx]); err != nil {
		cb.Reset()
		r.ch[idx] <- wk
		return err
	}
	return nil
}

// WaitFinish blocks until every committed command
// buffer completes execution.
// Buffers that are recording are reset.
// It returns the first execution error reported since
// the last call.
func (r *Renderer) WaitFinish() error {
	for i, cb := range r.cb {
		if wk := r.held[i]; wk != nil {
			cb.Reset()
			r.held[i] = nil
			r.ch[i] <- wk
		}
		wk := <-r.ch[i]
		if wk.Err != nil {
			r.setErr(wk.Err)
			wk.Err = nil
		}
		r.ch[i] <- wk
	}
	err := r.err
	r.err = nil
	return err
}

func (r *Renderer) setErr(err error) {
	logx.L().Error("command buffer execution failed", "err", err)
	if r.err == nil {
		r.err = err
	}
}

// Destroy waits for pending work and then destroys the
// command buffers.
func (r *Renderer) Destroy() {
	for i, cb := range r.cb {
		if cb == nil {
			continue
		}
		if r.held[i] == nil {
			<-r.ch[i]
		}
		cb.Destroy()
	}
	*r = Renderer{}
}
