// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package scene implements the tests that a benchmark
// runs.
package scene

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"github.com/gviegas/gfxbench/bench"
	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/engine"
	"github.com/gviegas/gfxbench/engine/particle"
	"github.com/gviegas/gfxbench/internal/logx"
)

// DefaultPrerendered is the number of frames in flight
// of a ParticleTest.
const DefaultPrerendered = 3

// WorkgroupSim names the workgroup size hint of the
// particle simulation. Its x size is the number of
// emitters simulated concurrently; the default is
// GOMAXPROCS.
const WorkgroupSim = "particle_sim"

// ParticleTest renders the particle systems described by
// the scene object of a descriptor.
// Emitters move along their orbits and the camera orbits
// its target. The particle state can be saved at given
// animation times and restored when the test starts.
type ParticleTest struct {
	// Frames in flight requested from the runner.
	Prerendered int

	cfg   *Config
	mgr   *particle.Manager
	ids   []particle.ID
	frame *engine.FrameData
	cam   engine.Camera
	rng   *rand.Rand
	highp bool

	stateDir string
	saves    []int
	nextSave int
	saved    []int
	restored bool

	steps int
	draws int
}

// NewParticleTest creates a new particle test.
func NewParticleTest() *ParticleTest {
	return &ParticleTest{Prerendered: DefaultPrerendered}
}

// CmdBufferConfig implements bench.Test.
func (t *ParticleTest) CmdBufferConfig() (perFrame, prerendered int) {
	return 1, t.Prerendered
}

// Init implements bench.Test.
func (t *ParticleTest) Init(r *bench.Runner) (err error) {
	d := r.Descriptor()
	if t.cfg, err = ParseConfig(d.Scene); err != nil {
		return
	}
	wg := r.Capabilities().WorkgroupSize(WorkgroupSim, [3]int{runtime.GOMAXPROCS(0), 1, 1})
	t.mgr = particle.NewManager(particle.Config{
		StepRate: t.cfg.StepRate,
		Workers:  wg[0],
	})
	start := r.AnimationTime()
	t.ids = t.ids[:0]
	for i := range t.cfg.Emitters {
		prm := t.cfg.Emitters[i].Params(start)
		t.ids = append(t.ids, t.mgr.NewEmitter(&prm, t.cfg.Emitters[i].Capacity))
	}

	frames := r.Rotation().Prerendered()
	if t.frame, err = engine.NewFrameData(r.GPU(), frames); err != nil {
		return
	}
	budget := r.Capabilities().ConstantRange(r.Options().Engine.ConstantBudget)
	if err = t.mgr.Init(r.GPU(), frames, budget); err != nil {
		return
	}
	t.highp = r.Capabilities().Highp()
	t.rng = rand.New(rand.NewPCG(uint64(len(t.ids)), uint64(t.mgr.Capacity())))

	t.stateDir = r.Options().StateDir
	t.saves = slices.Compact(slices.Sorted(slices.Values(d.ParticleSaveFrames)))
	t.nextSave = 0
	t.saved = t.saved[:0]
	if t.stateDir == "" {
		if len(t.saves) > 0 || d.ParticleRestoreTime >= 0 {
			logx.L().Warn("particle state directory not set", "saves", len(t.saves), "restore", d.ParticleRestoreTime)
		}
		t.saves = nil
	} else {
		for _, s := range t.saves {
			r.Time().AddEvent(s)
		}
		if d.ParticleRestoreTime >= 0 {
			if t.restored, err = t.mgr.RestoreState(t.stateDir, d.ParticleRestoreTime); err != nil {
				return
			}
		}
	}
	logx.L().Debug("particle test initialized",
		"emitters", len(t.ids),
		"capacity", t.mgr.Capacity(),
		"batch", t.mgr.BatchSize(),
		"workers", t.mgr.Workers(),
		"restored", t.restored)
	return nil
}

// Warmup implements bench.Test.
// It starts every emitter at the initial animation time
// and gathers once, so the first frame does not pay for
// it.
func (t *ParticleTest) Warmup(r *bench.Runner) error {
	at := r.AnimationTime()
	t.pose(at)
	t.mgr.AnimateAll(at)
	t.cam = t.cfg.Camera.Camera(at)
	dir := t.cam.ViewDir()
	t.mgr.Gather(&dir)
	return nil
}

// pose moves every emitter to its pose at animTime.
func (t *ParticleTest) pose(animTime int) {
	for i, id := range t.ids {
		t.mgr.Emitter(id).Params.Pose = t.cfg.Emitters[i].Pose(animTime)
	}
}

// Animate implements bench.Test.
func (t *ParticleTest) Animate(_ context.Context, r *bench.Runner) error {
	at := r.AnimationTime()
	t.pose(at)
	t.steps += t.mgr.AnimateAll(at)
	t.cam = t.cfg.Camera.Camera(at)

	due := false
	for t.nextSave < len(t.saves) && t.saves[t.nextSave] <= at {
		due = true
		t.nextSave++
	}
	if due {
		if err := t.mgr.SaveState(t.stateDir, at); err != nil {
			return fmt.Errorf("scene: save particle state: %w", err)
		}
		t.saved = append(t.saved, at)
	}
	return nil
}

// Render implements bench.Test.
func (t *ParticleTest) Render(_ context.Context, r *bench.Runner) error {
	cb := r.CmdBuffer(0)
	slot := r.Slot()
	width, height := r.Input().Size()

	cb.BeginPass(driver.ClearValue{Color: t.cfg.Clear, Depth: 1})
	t.frame.Set(&t.cam, width, height, time.Duration(r.AnimationTime())*time.Millisecond, t.highp)
	t.frame.SetRand(t.rng.Float32())
	t.frame.Upload(cb, slot)
	dir := t.cam.ViewDir()
	n, err := t.mgr.RenderAll(cb, slot, &dir)
	cb.EndPass()
	t.draws += n
	return err
}

// Free implements bench.Test.
func (t *ParticleTest) Free() {
	if t.mgr != nil {
		var emitted uint64
		var alive int
		for _, id := range t.ids {
			e := t.mgr.Emitter(id)
			emitted += e.Emitted()
			alive += e.Alive()
		}
		logx.L().Info("particle test finished",
			"emitted", emitted,
			"alive", alive,
			"steps", t.steps,
			"draws", t.draws)
		t.mgr.Free()
	}
	if t.frame != nil {
		t.frame.Destroy()
		t.frame = nil
	}
}

// Config returns the scene configuration.
// It is nil until Init succeeds.
func (t *ParticleTest) Config() *Config { return t.cfg }

// Manager returns the particle manager.
func (t *ParticleTest) Manager() *particle.Manager { return t.mgr }

// Camera returns the camera of the current frame.
func (t *ParticleTest) Camera() engine.Camera { return t.cam }

// Restored returns whether the particle state was
// restored from a file.
func (t *ParticleTest) Restored() bool { return t.restored }

// Saved returns the animation times at which the
// particle state was saved.
func (t *ParticleTest) Saved() []int { return slices.Clone(t.saved) }

// Steps returns the number of simulation steps taken by
// every emitter combined.
func (t *ParticleTest) Steps() int { return t.steps }

// Draws returns the number of particle draws recorded.
func (t *ParticleTest) Draws() int { return t.draws }
