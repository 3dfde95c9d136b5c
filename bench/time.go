// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"slices"
	"time"

	"github.com/gviegas/gfxbench/result"
)

// TimeComponent maps wall-clock time to animation time
// and decides when the run ends.
//
// The animation time starts at the descriptor's
// start_animation_time and is advanced once per frame,
// by EndFrame, in one of three modes:
//   - single frame: pinned to single_frame
//   - fixed: advanced by frame_step_time
//   - variable: advanced by the measured frame time, but
//     never past a registered time event
type TimeComponent struct {
	clock     Clock
	start     int
	play      int
	single    int
	step      int
	endless   bool
	maxFrames int
	minFrame  time.Duration
	fpsWindow time.Duration

	animTime  int
	frames    int
	started   bool
	t0        time.Time
	last      time.Time
	frameTime time.Duration
	elapsed   time.Duration
	slept     time.Duration

	// Sorted time events and the index of the first one
	// later than animTime.
	events []int
	next   int

	winStart  time.Duration
	winFrames int
	fps       float64
	windowed  bool
}

// Name implements Component.
func (c *TimeComponent) Name() string { return NameTime }

// Init implements Component.
func (c *TimeComponent) Init(r *Runner) error {
	d := r.Descriptor()
	*c = TimeComponent{
		clock:     r.Clock(),
		start:     d.StartAnimationTime,
		play:      d.PlayTime,
		single:    d.SingleFrame,
		step:      d.FrameStepTime,
		endless:   d.IsEndless,
		maxFrames: d.MaxRenderedFrames,
		fpsWindow: time.Duration(d.FPSWindow) * time.Millisecond,
		events:    c.events,
	}
	if d.FPSLimit > 0 {
		c.minFrame = time.Second / time.Duration(d.FPSLimit)
	}
	if c.single >= 0 {
		c.animTime = c.single
	} else {
		c.animTime = c.start
	}
	c.seek()
	return nil
}

// BeginFrame implements Component.
func (c *TimeComponent) BeginFrame(*Runner) {
	if !c.started {
		c.started = true
		c.t0 = c.clock.Now()
		c.last = c.t0
	}
}

// AfterRender implements Component.
func (c *TimeComponent) AfterRender(*Runner) {}

// EndFrame implements Component.
// It measures the frame, sleeping first if the frame
// finished earlier than the FPS limit allows, advances
// the animation time and ends the run if a limit has
// been reached or the run was cancelled.
func (c *TimeComponent) EndFrame(r *Runner) {
	now := c.clock.Now()
	if d := now.Sub(c.last); d < c.minFrame {
		c.clock.Sleep(c.minFrame - d)
		c.slept += c.minFrame - d
		now = c.clock.Now()
	}
	prev := c.elapsed.Milliseconds()
	c.frameTime = now.Sub(c.last)
	c.last = now
	c.elapsed = now.Sub(c.t0)
	c.frames++
	c.updateFPS()
	c.advance(int(c.elapsed.Milliseconds() - prev))

	switch {
	case r.IsCancelled():
		r.Finish()
	case c.maxFrames > 0 && c.frames >= c.maxFrames:
		r.Finish()
	case c.single >= 0:
		if c.maxFrames <= 0 {
			r.Finish()
		}
	case c.animTime >= c.play:
		if c.endless {
			c.animTime = c.start
			c.seek()
		} else {
			r.Finish()
		}
	}
}

// advance advances the animation time by the wall-clock
// delta d in milliseconds.
func (c *TimeComponent) advance(d int) {
	switch {
	case c.single >= 0:
		return
	case c.step > 0:
		c.animTime += c.step
	default:
		t := c.animTime + d
		if c.next < len(c.events) && c.events[c.next] < t {
			t = c.events[c.next]
		}
		c.animTime = t
	}
	for c.next < len(c.events) && c.events[c.next] <= c.animTime {
		c.next++
	}
}

// seek updates next after a jump in animation time.
func (c *TimeComponent) seek() {
	c.next, _ = slices.BinarySearch(c.events, c.animTime+1)
}

func (c *TimeComponent) updateFPS() {
	c.winFrames++
	if w := c.elapsed - c.winStart; w >= c.fpsWindow && w > 0 {
		c.fps = float64(c.winFrames) / w.Seconds()
		c.windowed = true
		c.winStart = c.elapsed
		c.winFrames = 0
	}
}

// CreateResult implements Component.
func (c *TimeComponent) CreateResult(r *Runner, g *result.Group) {
	res := g.Result()
	res.ElapsedTime = c.elapsed.Milliseconds()
	res.MeasuredTime = (c.elapsed - c.slept).Milliseconds()
	res.GFXResult.FrameCount = c.frames
	res.GFXResult.FPS = c.AverageFPS()
	res.Score = Score(c.frames, r.Descriptor().TestLength(), res.ElapsedTime, r.Normalized())
	res.Unit = Unit
}

// Close implements Component.
func (c *TimeComponent) Close() {}

// AddEvent registers an animation time that variable
// time stepping must not skip.
func (c *TimeComponent) AddEvent(t int) {
	i, found := slices.BinarySearch(c.events, t)
	if !found {
		c.events = slices.Insert(c.events, i, t)
		c.seek()
	}
}

// Events returns the registered time events in
// increasing order.
func (c *TimeComponent) Events() []int { return slices.Clone(c.events) }

// AnimationTime returns the animation time of the
// current frame in milliseconds.
func (c *TimeComponent) AnimationTime() int { return c.animTime }

// FrameTime returns the wall-clock duration of the last
// frame, including any FPS limit sleep.
func (c *TimeComponent) FrameTime() time.Duration { return c.frameTime }

// Frames returns the number of completed frames.
func (c *TimeComponent) Frames() int { return c.frames }

// Elapsed returns the wall-clock time since the start of
// the first frame, as of the end of the last frame.
func (c *TimeComponent) Elapsed() time.Duration { return c.elapsed }

// Slept returns the total time spent in FPS limit sleeps.
func (c *TimeComponent) Slept() time.Duration { return c.slept }

// FPS returns the frame rate of the last complete FPS
// window, or the average frame rate if no window has
// completed yet.
func (c *TimeComponent) FPS() float64 {
	if c.windowed {
		return c.fps
	}
	return c.AverageFPS()
}

// AverageFPS returns the frame rate over the whole run.
func (c *TimeComponent) AverageFPS() float64 {
	if c.elapsed <= 0 {
		return 0
	}
	return float64(c.frames) / c.elapsed.Seconds()
}
