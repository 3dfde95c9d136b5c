// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"errors"
	"fmt"
)

// ErrRotation means that a command buffer configuration
// has no buffers or no frames in flight.
var ErrRotation = errors.New("engine: invalid command buffer configuration")

// Rotation tracks which command buffers the current frame
// records into.
// Buffers are numbered from 0 to PerFrame*Prerendered-1.
// Each frame uses PerFrame consecutive buffers, and
// Prerendered frames may be in flight at once.
type Rotation struct {
	perFrame    int
	prerendered int
	idx         []int
}

// NewRotation creates a new Rotation starting at the
// first slot.
func NewRotation(perFrame, prerendered int) (*Rotation, error) {
	if perFrame <= 0 || prerendered <= 0 {
		return nil, fmt.Errorf("%w: %d per frame, %d prerendered", ErrRotation, perFrame, prerendered)
	}
	r := &Rotation{
		perFrame:    perFrame,
		prerendered: prerendered,
		idx:         make([]int, perFrame),
	}
	for i := range r.idx {
		r.idx[i] = i
	}
	return r, nil
}

// Next advances every index by PerFrame, wrapping
// around Len.
func (r *Rotation) Next() {
	n := r.Len()
	for i := range r.idx {
		r.idx[i] = (r.idx[i] + r.perFrame) % n
	}
}

// Indices returns the buffer indices of the current
// frame, in recording order.
// The slice is reused by Next.
func (r *Rotation) Indices() []int { return r.idx }

// Last returns the last buffer index of the current
// frame.
func (r *Rotation) Last() int { return r.idx[len(r.idx)-1] }

// Slot returns the frame-in-flight slot of the current
// frame, in the [0, Prerendered) range.
func (r *Rotation) Slot() int { return r.idx[0] / r.perFrame }

// PerFrame returns the number of buffers per frame.
func (r *Rotation) PerFrame() int { return r.perFrame }

// Prerendered returns the number of frames in flight.
func (r *Rotation) Prerendered() int { return r.prerendered }

// Len returns the total number of buffers.
func (r *Rotation) Len() int { return r.perFrame * r.prerendered }
