// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package particle

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/gviegas/gfxbench/internal/bitvec"
	"github.com/gviegas/gfxbench/linear"
)

// ID identifies an emitter in a Manager.
type ID int

// Particle is the simulation state of a particle.
type Particle struct {
	Age             float32
	Lifespan        float32
	Position        linear.V3
	Velocity        linear.V3
	AngularVelocity float32
	BaseSize        float32
	Size            float32
	Opacity         float32
	Rotation        float32
	TurbPhase       float32
	TurbFreq        float32
	TurbAmp         float32
	// Frame of the emitter when the particle was born.
	TurbBasis linear.M3
	Frame     uint32
	// Camera-space depth as of the last Gather.
	Depth float32

	// Emitter that owns the particle.
	// It is not persisted.
	Emitter ID
}

// Emitter simulates a bounded pool of particles.
// Live particles occupy the ring range
// [start, start+size) modulo capacity, oldest first.
// Particles die in place and the range shrinks as its
// head dies.
type Emitter struct {
	// Params can be changed freely between calls to
	// Animate. Call EnforceParamRanges after changing it.
	Params EmitterParams

	id        ID
	particles []Particle
	active    bitvec.V[uint64]
	start     int
	size      int
	newBase   int

	// Fractional particles to emit.
	timer float32
	// Microseconds not yet simulated.
	residue int64
	stepUS  int64
	dt      float32
	last    int
	started bool
	emitted uint64

	prevPose linear.M4
	src      *rand.PCG
	rng      *rand.Rand
}

func newEmitter(id ID, params *EmitterParams, capacity int, seed uint64, stepUS int64) *Emitter {
	e := &Emitter{
		Params: *params,
		id:     id,
		stepUS: stepUS,
		dt:     float32(stepUS) / 1e6,
		src:    rand.NewPCG(seed, seedHi),
	}
	e.rng = rand.New(e.src)
	e.Params.EnforceParamRanges()
	e.prevPose = e.Params.Pose
	e.setCapacity(capacity)
	return e
}

const seedHi = 0x9e3779b97f4a7c15

// setCapacity replaces the particle pool.
// Every particle is discarded.
func (e *Emitter) setCapacity(n int) {
	n = min(max(n, 0), MaxParticles)
	e.particles = make([]Particle, n)
	for i := range e.particles {
		e.particles[i].Emitter = e.id
	}
	e.active.Reset(n)
	e.start, e.size, e.newBase = 0, 0, 0
}

// ID returns the emitter's identifier.
func (e *Emitter) ID() ID { return e.id }

// Capacity returns the maximum number of particles.
func (e *Emitter) Capacity() int { return len(e.particles) }

// ActiveRange returns the start and size of the ring
// range containing every live particle.
func (e *Emitter) ActiveRange() (start, size int) { return e.start, e.size }

// NewBase returns the slot of the next emission.
// It always equals (start+size) % Capacity.
func (e *Emitter) NewBase() int { return e.newBase }

// Particle returns the particle at slot i.
func (e *Emitter) Particle(i int) *Particle { return &e.particles[i] }

// IsActive returns whether the particle at slot i is
// alive.
func (e *Emitter) IsActive(i int) bool { return e.active.IsSet(i) }

// Alive returns the number of live particles.
func (e *Emitter) Alive() int { return e.active.Count() }

// Emitted returns the number of particles emitted since
// the emitter was created.
func (e *Emitter) Emitted() uint64 { return e.emitted }

// StepTime returns the simulation step in microseconds.
func (e *Emitter) StepTime() int64 { return e.stepUS }

// Animate advances the simulation to animTime, in
// milliseconds.
// The elapsed time is simulated in whole steps; the
// remainder is carried over to the next call. A negative
// elapsed time, or one longer than the maximum lifespan,
// is treated as a seek: no step is simulated and the
// remainder is discarded.
// It returns the number of steps simulated.
func (e *Emitter) Animate(animTime int) int {
	if !e.started {
		e.started = true
		e.last = animTime
		e.prevPose = e.Params.Pose
		return 0
	}
	d := int64(animTime-e.last) * 1000
	e.last = animTime
	if d < 0 || d > int64(e.Params.Lifespan.Max*1e6) {
		e.residue = 0
		e.prevPose = e.Params.Pose
		return 0
	}
	d += e.residue
	n := d / e.stepUS
	e.residue = d % e.stepUS
	if n == 0 {
		return 0
	}
	var pose linear.M4
	for i := int64(1); i <= n; i++ {
		pose.Lerp(&e.prevPose, &e.Params.Pose, float32(i)/float32(n))
		e.step(&pose)
	}
	e.prevPose = e.Params.Pose
	return int(n)
}

// step simulates one fixed step with the emitter at pose.
func (e *Emitter) step(pose *linear.M4) {
	e.timer += e.Params.EmitRate * e.dt
	if e.timer >= 1 {
		n := int(e.timer)
		e.timer -= float32(n)
		for range n {
			e.emit(pose)
		}
	}
	e.simulate()
}

// emit writes a new particle at newBase. If the pool is
// full, the oldest particle is dropped first.
func (e *Emitter) emit(pose *linear.M4) {
	c := len(e.particles)
	if c == 0 {
		return
	}
	if e.size == c {
		e.active.Unset(e.start)
		e.start = (e.start + 1) % c
		e.size--
	}
	e.spawn(&e.particles[e.newBase], pose)
	e.active.Set(e.newBase)
	e.newBase = (e.newBase + 1) % c
	e.size++
	e.emitted++
}

// spawn initializes p. The order of random draws is fixed.
func (e *Emitter) spawn(p *Particle, pose *linear.M4) {
	prm := &e.Params
	r := e.rng
	theta := prm.Spread * r.Float32()
	phi := 2 * math32.Pi * r.Float32()
	st, ct := math32.Sin(theta), math32.Cos(theta)
	local := linear.V3{st * math32.Cos(phi), ct, st * math32.Sin(phi)}
	dir := pose.Dir(&local)
	dir.Norm(&dir)

	*p = Particle{
		Lifespan:        prm.Lifespan.at(r.Float32()),
		Position:        pose.Translation(),
		AngularVelocity: prm.AngularVelocity.at(r.Float32()),
		BaseSize:        prm.Size.at(r.Float32()),
		Rotation:        2 * math32.Pi * r.Float32(),
		TurbPhase:       2 * math32.Pi * r.Float32(),
		TurbFreq:        prm.TurbulenceFreq.at(r.Float32()),
		TurbAmp:         prm.TurbulenceAmp.at(r.Float32()),
		Emitter:         e.id,
	}
	p.Velocity.Scale(prm.Speed.at(r.Float32()), &dir)
	p.TurbBasis.FromM4(pose)
	p.Size = p.BaseSize * EvaluateCurve(0, prm.SizeCurve[:])
	p.Opacity = EvaluateCurve(0, prm.OpacityCurve[:])
}

// simulate advances every live particle by one step and
// shrinks the range past dead particles at its head.
func (e *Emitter) simulate() {
	c := len(e.particles)
	for k := range e.size {
		i := (e.start + k) % c
		if !e.active.IsSet(i) {
			continue
		}
		p := &e.particles[i]
		if p.Age+e.dt > p.Lifespan {
			e.active.Unset(i)
			continue
		}
		e.advance(p)
	}
	for e.size > 0 && !e.active.IsSet(e.start) {
		e.start = (e.start + 1) % c
		e.size--
	}
}

func (e *Emitter) advance(p *Particle) {
	prm := &e.Params
	dt := e.dt

	var acc, d linear.V3
	acc.Add(&prm.Gravity, &prm.Wind)
	acc.Scale(dt, &acc)
	p.Velocity.Add(&p.Velocity, &acc)
	d.Scale(dt, &p.Velocity)

	w0 := Wave3D(p.TurbPhase + p.TurbFreq*p.Age)
	w1 := Wave3D(p.TurbPhase + p.TurbFreq*(p.Age+dt))
	var turb linear.V3
	turb.Sub(&w1, &w0)
	turb.Scale(p.TurbAmp, &turb)
	turb.Mul(&p.TurbBasis, &turb)
	d.Add(&d, &turb)
	p.Position.Add(&p.Position, &d)

	p.Age += dt
	p.Rotation += p.AngularVelocity * dt
	life := p.Age / p.Lifespan
	p.Size = p.BaseSize * EvaluateCurve(life, prm.SizeCurve[:])
	p.Opacity = EvaluateCurve(life, prm.OpacityCurve[:])
	p.Frame = min(uint32(life*float32(prm.Frames)), uint32(prm.Frames-1))
}
