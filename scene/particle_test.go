// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"context"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/gfxbench/bench"
	"github.com/gviegas/gfxbench/driver/null"
	"github.com/gviegas/gfxbench/engine/particle"
	"github.com/gviegas/gfxbench/result"
)

const twoEmitters = `{
	"step_rate": 48,
	"emitters": [
		{"capacity": 512, "emit_rate": 200},
		{"capacity": 128, "emit_rate": 400, "position": [0, 0, -2], "orbit": {"radius": 1, "period": 2}}
	]
}`

func descJSON(t *testing.T, extra map[string]any) []byte {
	t.Helper()
	m := map[string]any{
		"test_id":   "particles",
		"play_time": 1000,
		"env":       map[string]any{"width": 64, "height": 64},
		"scene":     json.RawMessage(twoEmitters),
	}
	maps.Copy(m, extra)
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func newRunner(t *testing.T, test bench.Test, stateDir string) *bench.Runner {
	t.Helper()
	r := bench.NewRunner(test, bench.Options{
		Driver:   &null.Driver{},
		Clock:    bench.NewManualClock(time.Unix(0, 0), 100*time.Millisecond),
		Sensors:  []bench.Sensor{},
		StateDir: stateDir,
	})
	t.Cleanup(r.Close)
	return r
}

func TestParticleTest(t *testing.T) {
	test := NewParticleTest()
	perFrame, prerendered := test.CmdBufferConfig()
	assert.Equal(t, 1, perFrame)
	assert.Equal(t, DefaultPrerendered, prerendered)

	r := newRunner(t, test, "")
	ctx := context.Background()
	require.NoError(t, r.Init(ctx, descJSON(t, nil)))
	require.Len(t, test.Config().Emitters, 2)
	m := test.Manager()
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 640, m.Capacity())
	assert.Positive(t, m.BatchSize())
	assert.Equal(t, runtime.GOMAXPROCS(0), m.Workers())
	assert.False(t, test.Restored())

	require.NoError(t, r.Run(ctx))
	res := r.Result().Result()
	require.Equal(t, result.OK, res.Status, res.ErrorString)
	assert.Equal(t, 10, res.GFXResult.FrameCount)

	// Frames at 0, 100, ..., 900 ms.
	steps := int(900_000 / m.StepTime())
	assert.Equal(t, 2*steps, test.Steps())
	for _, id := range m.IDs() {
		e := m.Emitter(id)
		assert.Positive(t, e.Emitted())
		assert.Positive(t, e.Alive())
	}
	stats := r.GPU().(*null.GPU).Stats()
	assert.Equal(t, int64(test.Draws()), stats.Draws)
	assert.Positive(t, test.Draws())
	assert.Equal(t, int64(10), stats.Passes)
	draws, particles := m.LastRender()
	assert.Equal(t, (particles+m.BatchSize()-1)/m.BatchSize(), draws)

	cam := test.Camera()
	assertV3(t, test.Config().Camera.Camera(900).Eye, cam.Eye)
	assert.Empty(t, test.Saved())
}

func TestParticleTestWorkgroup(t *testing.T) {
	test := NewParticleTest()
	r := newRunner(t, test, "")
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{
		"workgroup_sizes": map[string][3]int{WorkgroupSim: {2, 1, 1}},
	})))
	assert.Equal(t, 2, test.Manager().Workers())
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, result.OK, r.Result().Result().Status)
}

func TestParticleTestSaveRestore(t *testing.T) {
	dir := t.TempDir()
	save := NewParticleTest()
	r := newRunner(t, save, dir)
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{
		"particle_save_frames": []int{250, 500, 250},
		"max_rendered_frames":  7,
	})))
	assert.Equal(t, []int{250, 500}, r.Time().Events())
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []int{250, 500}, save.Saved())
	for _, at := range save.Saved() {
		assert.FileExists(t, filepath.Join(dir, particle.StateFileName(at)))
	}

	// The run stopped right after saving at 500.
	restore := NewParticleTest()
	r2 := newRunner(t, restore, dir)
	require.NoError(t, r2.Init(context.Background(), descJSON(t, map[string]any{
		"start_animation_time":  500,
		"particle_restore_time": 500,
	})))
	assert.True(t, restore.Restored())
	m, m2 := save.Manager(), restore.Manager()
	for i, id := range m.IDs() {
		e, e2 := m.Emitter(id), m2.Emitter(m2.IDs()[i])
		assert.Equal(t, e.Emitted(), e2.Emitted())
		start, size := e.ActiveRange()
		start2, size2 := e2.ActiveRange()
		assert.Equal(t, [2]int{start, size}, [2]int{start2, size2})
		for k := range size {
			j := (start + k) % e.Capacity()
			assert.Equal(t, e.IsActive(j), e2.IsActive(j))
			assert.Equal(t, e.Particle(j).Position, e2.Particle(j).Position)
		}
	}
	require.NoError(t, r2.Run(context.Background()))
	assert.Equal(t, result.OK, r2.Result().Result().Status)
}

func TestParticleTestRestoreMissing(t *testing.T) {
	test := NewParticleTest()
	r := newRunner(t, test, t.TempDir())
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{"particle_restore_time": 300})))
	assert.False(t, test.Restored())
}

func TestParticleTestRestoreMismatch(t *testing.T) {
	dir := t.TempDir()
	m := particle.NewManager(particle.DefaultConfig())
	prm := particle.DefaultEmitterParams()
	m.NewEmitter(&prm, 16)
	require.NoError(t, m.SaveState(dir, 0))

	r := newRunner(t, NewParticleTest(), dir)
	err := r.Init(context.Background(), descJSON(t, map[string]any{"particle_restore_time": 0}))
	require.ErrorIs(t, err, bench.ErrTestInit)
	assert.ErrorIs(t, err, particle.ErrStateMismatch)
	assert.Equal(t, result.Failed, r.Result().Result().Status)
}

func TestParticleTestSaveFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	r := newRunner(t, NewParticleTest(), filepath.Join(file, "state"))
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{"particle_save_frames": []int{200}})))
	require.Error(t, r.Run(context.Background()))
	assert.Equal(t, result.Failed, r.Result().Result().Status)
}

func TestParticleTestBadScene(t *testing.T) {
	r := newRunner(t, NewParticleTest(), "")
	err := r.Init(context.Background(), descJSON(t, map[string]any{"scene": json.RawMessage(`{"step_rate": -1}`)}))
	require.ErrorIs(t, err, bench.ErrTestInit)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestParticleTestNoEmitters(t *testing.T) {
	test := NewParticleTest()
	r := newRunner(t, test, "")
	require.NoError(t, r.Init(context.Background(), descJSON(t, map[string]any{"scene": json.RawMessage(`{"emitters": []}`)})))
	require.NoError(t, r.Run(context.Background()))
	assert.Zero(t, test.Draws())
	assert.Zero(t, test.Steps())
	assert.Equal(t, result.OK, r.Result().Result().Status)
}
