// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package particle implements particle systems.
// Emitters are simulated with a fixed time step, and the
// Manager renders the particles of every emitter sorted
// back to front in instanced batches.
package particle

import (
	"cmp"
	"errors"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/gviegas/gfxbench/driver"
	"github.com/gviegas/gfxbench/engine/internal/shader"
	"github.com/gviegas/gfxbench/internal/idmap"
	"github.com/gviegas/gfxbench/internal/logx"
	"github.com/gviegas/gfxbench/linear"
)

const (
	// The maximum number of particles of an emitter.
	MaxParticles = 65536

	// The maximum simulation step rate.
	MaxStepRate = 1000

	dflStepRate = 48
)

// Config is used to configure a Manager.
type Config struct {
	// Simulation steps per second.
	// Values above MaxStepRate are clamped.
	//
	// Default is 48.
	StepRate int

	// Maximum number of goroutines that AnimateAll uses.
	// Emitters are simulated independently, so the
	// outcome does not depend on it.
	//
	// Default is 1.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config { return Config{StepRate: dflStepRate, Workers: 1} }

// Manager owns a set of emitters.
// It is not safe for concurrent use.
type Manager struct {
	stepUS   int64
	workers  int
	emitters idmap.Map[ID, *Emitter]
	// Emitter IDs in creation order.
	ids []ID
	seq uint64

	// Reference pool. It never owns particles.
	pool      []*Particle
	allocated bool

	gpu     driver.GPU
	buf     driver.Buffer
	frames  int
	budget  int
	batch   int
	batches int
	upload  []shader.ParticleLayout

	lastDraws int
	lastCount int
}

// NewManager creates a new manager.
func NewManager(cfg Config) *Manager {
	if cfg.StepRate <= 0 {
		cfg.StepRate = dflStepRate
	}
	cfg.StepRate = min(cfg.StepRate, MaxStepRate)
	return &Manager{
		stepUS:  int64(1e6 / cfg.StepRate),
		workers: max(cfg.Workers, 1),
	}
}

// StepTime returns the simulation step in microseconds.
func (m *Manager) StepTime() int64 { return m.stepUS }

// Workers returns the maximum number of goroutines that
// AnimateAll uses.
func (m *Manager) Workers() int { return m.workers }

// NewEmitter creates an emitter with room for capacity
// particles.
// The emitter's random sequence is seeded by its
// creation order.
// Allocate must be called before the next Gather or
// RenderAll.
func (m *Manager) NewEmitter(params *EmitterParams, capacity int) ID {
	id := m.emitters.Insert(nil)
	e := newEmitter(id, params, capacity, m.seq, m.stepUS)
	*m.emitters.Get(id) = e
	m.ids = append(m.ids, id)
	m.seq++
	m.allocated = false
	return id
}

// RemoveEmitter removes the emitter identified by id.
func (m *Manager) RemoveEmitter(id ID) {
	m.emitters.Remove(id)
	m.ids = slices.DeleteFunc(m.ids, func(x ID) bool { return x == id })
	m.allocated = false
}

// Emitter returns the emitter identified by id, or nil
// if there is no such emitter.
func (m *Manager) Emitter(id ID) *Emitter {
	if !m.emitters.Contains(id) {
		return nil
	}
	return *m.emitters.Get(id)
}

// Len returns the number of emitters.
func (m *Manager) Len() int { return len(m.ids) }

// IDs returns the emitter IDs in creation order.
func (m *Manager) IDs() []ID { return slices.Clone(m.ids) }

// SetCapacity replaces the particle pool of the emitter
// identified by id, discarding its particles.
// Allocate must be called before the next Gather or
// RenderAll.
func (m *Manager) SetCapacity(id ID, capacity int) {
	m.Emitter(id).setCapacity(capacity)
	m.allocated = false
}

// Capacity returns the sum of all emitters' capacities.
func (m *Manager) Capacity() (n int) {
	for _, id := range m.ids {
		n += m.Emitter(id).Capacity()
	}
	return
}

// Allocate resizes the reference pool to the total
// capacity of all emitters. If the manager has been
// initialized for rendering, the upload buffer is
// resized as well.
// It must not be called while frames that use the
// upload buffer are in flight.
func (m *Manager) Allocate() error {
	n := m.Capacity()
	if cap(m.pool) < n {
		m.pool = make([]*Particle, n)
	}
	m.pool = m.pool[:n]
	if m.gpu != nil {
		if err := m.allocBuffer(); err != nil {
			return err
		}
	}
	m.allocated = true
	logx.L().Debug("particle pool allocated", "emitters", len(m.ids), "capacity", n)
	return nil
}

// AnimateAll calls Animate on every emitter.
// It returns the total number of steps simulated.
func (m *Manager) AnimateAll(animTime int) (steps int) {
	if m.workers == 1 || len(m.ids) < 2 {
		for _, id := range m.ids {
			steps += m.Emitter(id).Animate(animTime)
		}
		return
	}
	n := make([]int, len(m.ids))
	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, id := range m.ids {
		e := m.Emitter(id)
		g.Go(func() error {
			n[i] = e.Animate(animTime)
			return nil
		})
	}
	g.Wait()
	for _, x := range n {
		steps += x
	}
	return
}

// Gather collects every live particle, computes its
// depth along viewDir and sorts the result back to front.
// Particles of equal depth keep emitter and age order.
// The returned slice is reused by the next call.
// If the pool needs allocation and it fails, nothing is
// gathered.
func (m *Manager) Gather(viewDir *linear.V3) []*Particle {
	if !m.allocated {
		if err := m.Allocate(); err != nil {
			logx.L().Error("particle pool not allocated", "err", err)
			return nil
		}
	}
	n := 0
	for _, id := range m.ids {
		e := m.Emitter(id)
		c := len(e.particles)
		for k := range e.size {
			i := (e.start + k) % c
			if !e.active.IsSet(i) {
				continue
			}
			p := &e.particles[i]
			p.Depth = p.Position.Dot(viewDir)
			m.pool[n] = p
			n++
		}
	}
	s := m.pool[:n]
	slices.SortStableFunc(s, func(a, b *Particle) int { return cmp.Compare(b.Depth, a.Depth) })
	return s
}

// ErrNotInitialized means that the Manager has not been
// initialized for rendering.
var ErrNotInitialized = errors.New("particle: manager not initialized")

// Init prepares the manager for rendering.
// frames is the number of frames in flight and budget is
// the size in bytes of each batch upload, which must be
// a multiple of the GPU's constant alignment.
func (m *Manager) Init(gpu driver.GPU, frames, budget int) error {
	if frames <= 0 {
		return errors.New("particle: invalid frame count")
	}
	batch := budget / shader.ParticleSize
	if batch <= 0 {
		return errors.New("particle: upload budget too small")
	}
	if align := gpu.Limits().MinConstantAlign; align > 0 && int64(budget)%align != 0 {
		return errors.New("particle: misaligned upload budget")
	}
	m.Free()
	m.gpu = gpu
	m.frames = frames
	m.budget = budget
	m.batch = batch
	m.upload = make([]shader.ParticleLayout, batch)
	return m.Allocate()
}

// BatchSize returns the maximum number of particles per
// draw.
func (m *Manager) BatchSize() int { return m.batch }

func (m *Manager) allocBuffer() error {
	if m.buf != nil {
		m.buf.Destroy()
		m.buf = nil
	}
	m.batches = (len(m.pool) + m.batch - 1) / m.batch
	if m.batches == 0 {
		return nil
	}
	buf, err := m.gpu.NewBuffer(int64(m.frames*m.batches*m.budget), driver.UConstant)
	if err != nil {
		return err
	}
	m.buf = buf
	return nil
}

// RenderAll records draws for every live particle into
// cb, which must be in a render pass.
// slot is the frame-in-flight slot whose region of the
// upload buffer is written.
// Particles are drawn back to front with one instanced
// draw per batch.
func (m *Manager) RenderAll(cb driver.CmdBuffer, slot int, viewDir *linear.V3) (draws int, err error) {
	if m.gpu == nil {
		return 0, ErrNotInitialized
	}
	if !m.allocated {
		if err = m.Allocate(); err != nil {
			return
		}
	}
	ps := m.Gather(viewDir)
	m.lastCount = len(ps)
	slot %= m.frames
	for len(ps) > 0 {
		n := min(len(ps), m.batch)
		for i, p := range ps[:n] {
			m.layout(&m.upload[i], p)
		}
		off := (slot*m.batches + draws) * m.budget
		shader.CopyParticles(m.buf.Bytes()[off:], m.upload[:n])
		cb.SetConstantBuf(m.buf, int64(off), int64(n*shader.ParticleSize))
		cb.Draw(6, n, 0, 0)
		draws++
		ps = ps[n:]
	}
	m.lastDraws = draws
	return
}

// layout fills l from p. The emitter is resolved from
// the particle's ID.
func (m *Manager) layout(l *shader.ParticleLayout, p *Particle) {
	prm := &m.Emitter(p.Emitter).Params
	l.SetPosition(&p.Position)
	l.SetSize(p.Size)
	l.SetVelocity(&p.Velocity)
	l.SetRotation(p.Rotation)
	l.SetOpacity(p.Opacity)
	l.SetAge(p.Age / p.Lifespan)
	l.SetFrame(p.Frame, uint32(prm.Frames))
	l.SetMaterial(prm.Additive, prm.Roundness, prm.Shade)
}

// LastRender returns the number of draws and particles
// of the last RenderAll call.
func (m *Manager) LastRender() (draws, particles int) { return m.lastDraws, m.lastCount }

// Free releases GPU resources.
// The emitters are kept.
func (m *Manager) Free() {
	if m.buf != nil {
		m.buf.Destroy()
	}
	m.gpu = nil
	m.buf = nil
	m.upload = nil
	m.frames, m.budget, m.batch, m.batches = 0, 0, 0, 0
}
