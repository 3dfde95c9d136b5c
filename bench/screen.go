// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"fmt"
	"time"

	"github.com/gviegas/gfxbench/result"
)

// OffscreenPresentInterval is the minimum wall-clock
// time between presents of an offscreen run.
const OffscreenPresentInterval = 100 * time.Millisecond

// ScreenManager decides when frames are presented.
// Onscreen runs present every frame, cycling through
// two backbuffers. Offscreen runs present at most once
// every OffscreenPresentInterval, and always present
// their last frame.
type ScreenManager struct {
	offscreen  bool
	buffers    int
	backbuffer int
	presents   int
	presented  bool
	last       time.Duration
}

// Name implements Component.
func (s *ScreenManager) Name() string { return NameScreen }

// Init implements Component.
func (s *ScreenManager) Init(r *Runner) error {
	*s = ScreenManager{offscreen: r.Descriptor().Env.Offscreen, buffers: 2}
	if s.offscreen {
		s.buffers = 1
	}
	return nil
}

// BeginFrame implements Component.
func (s *ScreenManager) BeginFrame(*Runner) { s.presented = false }

// AfterRender implements Component.
func (s *ScreenManager) AfterRender(*Runner) {}

// EndFrame implements Component.
func (s *ScreenManager) EndFrame(*Runner) {}

// NeedSwapBuffers returns whether the current frame must
// be presented.
func (s *ScreenManager) NeedSwapBuffers(r *Runner) bool {
	if !s.offscreen {
		return true
	}
	return r.Time().Elapsed()-s.last >= OffscreenPresentInterval
}

// present presents the current frame if needed.
func (s *ScreenManager) present(r *Runner) error {
	if !s.NeedSwapBuffers(r) {
		return nil
	}
	return s.swap(r)
}

func (s *ScreenManager) swap(r *Runner) error {
	if err := r.Context().SwapBuffers(); err != nil {
		return fmt.Errorf("bench: present: %w", err)
	}
	s.presents++
	s.presented = true
	s.backbuffer = (s.backbuffer + 1) % s.buffers
	s.last = r.Time().Elapsed()
	return nil
}

// flush presents the last frame of an offscreen run if
// it was not presented.
func (s *ScreenManager) flush(r *Runner) error {
	if !s.offscreen || s.presented || r.Time().Frames() == 0 {
		return nil
	}
	return s.swap(r)
}

// Offscreen returns whether the run is offscreen.
func (s *ScreenManager) Offscreen() bool { return s.offscreen }

// Backbuffer returns the ID of the backbuffer that the
// next frame renders into.
func (s *ScreenManager) Backbuffer() int { return s.backbuffer }

// Presents returns the number of presented frames.
func (s *ScreenManager) Presents() int { return s.presents }

// CreateResult implements Component.
func (s *ScreenManager) CreateResult(*Runner, *result.Group) {}

// Close implements Component.
func (s *ScreenManager) Close() {}
