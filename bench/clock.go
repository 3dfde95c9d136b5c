// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"sync"
	"time"
)

// Clock is the source of wall-clock time of a run.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is a Clock that uses the time package.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep calls time.Sleep.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ManualClock is a Clock that only moves when told to.
// Each call to Now advances it by a fixed step after
// reading, and Sleep advances it by the given duration.
type ManualClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time, step time.Duration) *ManualClock {
	return &ManualClock{t: start, step: step}
}

// Now returns the current time and then advances the
// clock by its step.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

// Sleep advances the clock by d.
func (c *ManualClock) Sleep(d time.Duration) { c.Advance(d) }

// Advance advances the clock by d.
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// SetStep changes the step of Now.
func (c *ManualClock) SetStep(step time.Duration) {
	c.mu.Lock()
	c.step = step
	c.mu.Unlock()
}
