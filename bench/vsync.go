// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"time"

	"github.com/gviegas/gfxbench/result"
)

// Frame times within [VSyncMinFrameTime, VSyncMaxFrameTime]
// look synchronized to a display refreshing at ~60Hz.
const (
	VSyncMinFrameTime = time.Second / 65
	VSyncMaxFrameTime = time.Second / 55
)

const (
	vsyncWindow = time.Second

	// VSyncMaxedThreshold is the ratio of vsynced windows
	// above which a run would be considered maxed.
	// The flag decision does not use it: a run is maxed if
	// any window is vsynced. See VSyncComponent.Ratio.
	VSyncMaxedThreshold = 0.8
)

// VSyncComponent classifies a run as limited by vsync or
// not.
// Frame times are aggregated over windows of one second
// of wall-clock time. A window is vsynced if more than
// half of its frames fall in the vsync band.
type VSyncComponent struct {
	winTime   time.Duration
	winFrames int
	winInBand int
	windows   int
	vsynced   int
}

// Name implements Component.
func (v *VSyncComponent) Name() string { return NameVSync }

// Init implements Component.
func (v *VSyncComponent) Init(*Runner) error {
	*v = VSyncComponent{}
	return nil
}

// BeginFrame implements Component.
func (v *VSyncComponent) BeginFrame(*Runner) {}

// AfterRender implements Component.
func (v *VSyncComponent) AfterRender(*Runner) {}

// EndFrame implements Component.
func (v *VSyncComponent) EndFrame(r *Runner) { v.add(r.Time().FrameTime()) }

func (v *VSyncComponent) add(frameTime time.Duration) {
	v.winTime += frameTime
	v.winFrames++
	if frameTime >= VSyncMinFrameTime && frameTime <= VSyncMaxFrameTime {
		v.winInBand++
	}
	if v.winTime < vsyncWindow {
		return
	}
	v.windows++
	if v.winInBand*2 > v.winFrames {
		v.vsynced++
	}
	v.winTime, v.winFrames, v.winInBand = 0, 0, 0
}

// Windows returns the number of complete windows.
func (v *VSyncComponent) Windows() int { return v.windows }

// VSyncedWindows returns the number of complete windows
// that were vsynced.
func (v *VSyncComponent) VSyncedWindows() int { return v.vsynced }

// Ratio returns the ratio of vsynced windows, or 0 if
// no window has completed.
func (v *VSyncComponent) Ratio() float64 {
	if v.windows == 0 {
		return 0
	}
	return float64(v.vsynced) / float64(v.windows)
}

// Maxed returns whether any window was vsynced.
func (v *VSyncComponent) Maxed() bool { return v.vsynced > 0 }

// CreateResult implements Component.
// It adds result.FlagVSyncMaxed if Maxed returns true,
// and result.FlagVSyncLimited otherwise.
func (v *VSyncComponent) CreateResult(_ *Runner, g *result.Group) {
	if v.Maxed() {
		g.Result().AddFlag(result.FlagVSyncMaxed)
	} else {
		g.Result().AddFlag(result.FlagVSyncLimited)
	}
}

// Close implements Component.
func (v *VSyncComponent) Close() {}
