// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package particle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/gviegas/gfxbench/internal/bitvec"
	"github.com/gviegas/gfxbench/internal/logx"
	"github.com/gviegas/gfxbench/linear"
)

// ErrStateVersion means that a state file was written by
// an incompatible version.
var ErrStateVersion = errors.New("particle: unsupported state version")

// ErrStateMismatch means that a state file describes a
// different set of emitters.
var ErrStateMismatch = errors.New("particle: state does not match emitters")

// ErrStateCorrupt means that a state file is truncated
// or malformed.
var ErrStateCorrupt = errors.New("particle: corrupt state")

// State header.
// Every field of a state file is a little-endian 32-bit
// word.
type stateHeader [4]uint32

// Indices in stateHeader.
const (
	headerMagic    = 0
	headerVersion  = 1
	headerTime     = 2
	headerEmitters = 3
	// Then per emitter: scalars, particle count and
	// particles.
)

const (
	// "PSTE".
	stateMagic = 0x45545350

	// StateVersion is the version of the state format.
	StateVersion = 1

	// Words per particle, including the active flag.
	particleWords = 28
)

// StateFileName returns the name of the state file for
// the given animation time in milliseconds.
func StateFileName(animTime int) string {
	return fmt.Sprintf("particle_state_%06d.bin", animTime)
}

type stateWriter struct{ b []byte }

func (w *stateWriter) u32(x uint32)  { w.b = binary.LittleEndian.AppendUint32(w.b, x) }
func (w *stateWriter) i32(x int)     { w.u32(uint32(int32(x))) }
func (w *stateWriter) f32(x float32) { w.u32(math.Float32bits(x)) }

func (w *stateWriter) bool(x bool) {
	if x {
		w.u32(1)
	} else {
		w.u32(0)
	}
}

func (w *stateWriter) v3(v *linear.V3) {
	for _, x := range v {
		w.f32(x)
	}
}

// bytes writes the length and then p padded to a word
// boundary.
func (w *stateWriter) bytes(p []byte) {
	w.u32(uint32(len(p)))
	w.b = append(w.b, p...)
	for len(w.b)%4 != 0 {
		w.b = append(w.b, 0)
	}
}

type stateReader struct {
	b   []byte
	err error
}

func (r *stateReader) u32() uint32 {
	if len(r.b) < 4 {
		r.err = ErrStateCorrupt
		return 0
	}
	x := binary.LittleEndian.Uint32(r.b)
	r.b = r.b[4:]
	return x
}

func (r *stateReader) i32() int     { return int(int32(r.u32())) }
func (r *stateReader) f32() float32 { return math.Float32frombits(r.u32()) }
func (r *stateReader) bool() bool   { return r.u32() != 0 }

func (r *stateReader) v3(v *linear.V3) {
	for i := range v {
		v[i] = r.f32()
	}
}

func (r *stateReader) bytes() []byte {
	n := int(r.u32())
	pad := (4 - n%4) % 4
	if r.err != nil || n+pad > len(r.b) {
		r.err = ErrStateCorrupt
		return nil
	}
	p := r.b[:n:n]
	r.b = r.b[n+pad:]
	return p
}

// WriteState writes the state of every emitter to w.
// Emitters are written in creation order.
func (m *Manager) WriteState(w io.Writer, animTime int) error {
	var sw stateWriter
	h := stateHeader{
		headerMagic:    stateMagic,
		headerVersion:  StateVersion,
		headerTime:     uint32(animTime),
		headerEmitters: uint32(len(m.ids)),
	}
	for _, x := range h {
		sw.u32(x)
	}
	for _, id := range m.ids {
		if err := m.Emitter(id).writeState(&sw); err != nil {
			return err
		}
	}
	_, err := w.Write(sw.b)
	return err
}

func (e *Emitter) writeState(w *stateWriter) error {
	rng, err := e.src.MarshalBinary()
	if err != nil {
		return err
	}
	w.i32(len(e.particles))
	w.u32(uint32(e.stepUS))
	w.i32(e.start)
	w.i32(e.size)
	w.i32(e.newBase)
	w.f32(e.timer)
	w.u32(uint32(e.residue))
	w.i32(e.last)
	w.bool(e.started)
	w.u32(uint32(e.emitted))
	w.u32(uint32(e.emitted >> 32))
	for i := range e.prevPose {
		for _, x := range e.prevPose[i] {
			w.f32(x)
		}
	}
	w.bytes(rng)

	w.i32(len(e.particles))
	for i := range e.particles {
		p := &e.particles[i]
		w.bool(e.active.IsSet(i))
		w.f32(p.Age)
		w.f32(p.Lifespan)
		w.v3(&p.Position)
		w.v3(&p.Velocity)
		w.f32(p.AngularVelocity)
		w.f32(p.BaseSize)
		w.f32(p.Size)
		w.f32(p.Opacity)
		w.f32(p.Rotation)
		w.f32(p.TurbPhase)
		w.f32(p.TurbFreq)
		w.f32(p.TurbAmp)
		for j := range p.TurbBasis {
			w.v3(&p.TurbBasis[j])
		}
		w.u32(p.Frame)
		w.f32(p.Depth)
	}
	return nil
}

// emitterState is a decoded emitter, applied only after
// the whole file decodes.
type emitterState struct {
	start, size, newBase int
	timer                float32
	residue              int64
	last                 int
	started              bool
	emitted              uint64
	prevPose             linear.M4
	rng                  rand.PCG
	particles            []Particle
	active               bitvec.V[uint64]
}

// ReadState replaces the state of every emitter with the
// state read from r.
// The manager must have the same emitters, in the same
// creation order and with the same capacities and step
// time, as the one that wrote the state. On failure,
// the emitters are left unchanged.
// It returns the animation time that the state was
// written at.
func (m *Manager) ReadState(r io.Reader) (animTime int, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	sr := stateReader{b: b}
	var h stateHeader
	for i := range h {
		h[i] = sr.u32()
	}
	switch {
	case sr.err != nil:
		return 0, sr.err
	case h[headerMagic] != stateMagic:
		return 0, fmt.Errorf("%w: bad magic %#x", ErrStateCorrupt, h[headerMagic])
	case h[headerVersion] != StateVersion:
		return 0, fmt.Errorf("%w: %d", ErrStateVersion, h[headerVersion])
	case int(h[headerEmitters]) != len(m.ids):
		return 0, fmt.Errorf("%w: %d emitters, have %d", ErrStateMismatch, h[headerEmitters], len(m.ids))
	}
	states := make([]emitterState, len(m.ids))
	for i, id := range m.ids {
		if err = m.Emitter(id).readState(&sr, &states[i]); err != nil {
			return 0, err
		}
	}
	if len(sr.b) != 0 {
		return 0, fmt.Errorf("%w: %d trailing bytes", ErrStateCorrupt, len(sr.b))
	}
	for i, id := range m.ids {
		m.Emitter(id).apply(&states[i])
	}
	return int(h[headerTime]), nil
}

func (e *Emitter) readState(r *stateReader, s *emitterState) error {
	c := len(e.particles)
	if n := r.i32(); r.err == nil && n != c {
		return fmt.Errorf("%w: emitter %d capacity %d, have %d", ErrStateMismatch, e.id, n, c)
	}
	if st := int64(r.u32()); r.err == nil && st != e.stepUS {
		return fmt.Errorf("%w: emitter %d step %dµs, have %dµs", ErrStateMismatch, e.id, st, e.stepUS)
	}
	s.start = r.i32()
	s.size = r.i32()
	s.newBase = r.i32()
	s.timer = r.f32()
	s.residue = int64(r.u32())
	s.last = r.i32()
	s.started = r.bool()
	s.emitted = uint64(r.u32())
	s.emitted |= uint64(r.u32()) << 32
	for i := range s.prevPose {
		for j := range s.prevPose[i] {
			s.prevPose[i][j] = r.f32()
		}
	}
	rng := r.bytes()
	if n := r.i32(); r.err == nil && n != c {
		return fmt.Errorf("%w: emitter %d particle count %d, have %d", ErrStateMismatch, e.id, n, c)
	}
	if r.err != nil {
		return r.err
	}
	if err := s.rng.UnmarshalBinary(rng); err != nil {
		return fmt.Errorf("%w: emitter %d: %w", ErrStateCorrupt, e.id, err)
	}
	if len(r.b) < c*particleWords*4 {
		return ErrStateCorrupt
	}
	switch {
	case c == 0 && (s.start != 0 || s.size != 0 || s.newBase != 0),
		c > 0 && (s.start < 0 || s.start >= c || s.size < 0 || s.size > c),
		c > 0 && s.newBase != (s.start+s.size)%c,
		s.residue < 0 || s.residue >= e.stepUS:
		return fmt.Errorf("%w: emitter %d ring range", ErrStateCorrupt, e.id)
	}
	s.particles = make([]Particle, c)
	s.active.Reset(c)
	for i := range s.particles {
		p := &s.particles[i]
		s.active.Assign(i, r.bool())
		p.Age = r.f32()
		p.Lifespan = r.f32()
		r.v3(&p.Position)
		r.v3(&p.Velocity)
		p.AngularVelocity = r.f32()
		p.BaseSize = r.f32()
		p.Size = r.f32()
		p.Opacity = r.f32()
		p.Rotation = r.f32()
		p.TurbPhase = r.f32()
		p.TurbFreq = r.f32()
		p.TurbAmp = r.f32()
		for j := range p.TurbBasis {
			r.v3(&p.TurbBasis[j])
		}
		p.Frame = r.u32()
		p.Depth = r.f32()
		p.Emitter = e.id
	}
	for i := range c {
		if s.active.IsSet(i) && (i-s.start+c)%c >= s.size {
			return fmt.Errorf("%w: emitter %d live particle outside of range", ErrStateCorrupt, e.id)
		}
	}
	return r.err
}

// apply replaces e's state with s.
// Particles are copied in place so that references into
// the pool remain valid.
func (e *Emitter) apply(s *emitterState) {
	*e.src = s.rng
	e.start, e.size, e.newBase = s.start, s.size, s.newBase
	e.timer = s.timer
	e.residue = s.residue
	e.last = s.last
	e.started = s.started
	e.emitted = s.emitted
	e.prevPose = s.prevPose
	copy(e.particles, s.particles)
	e.active.Reset(len(e.particles))
	for i := range e.particles {
		e.active.Assign(i, s.active.IsSet(i))
	}
}

// SaveState writes the state of every emitter to the
// file named StateFileName(animTime) in dir.
func (m *Manager) SaveState(dir string, animTime int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(dir, StateFileName(animTime))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err = m.WriteState(f, animTime); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	logx.L().Info("particle state saved", "file", name, "emitters", len(m.ids))
	return nil
}

// RestoreState reads the state of every emitter from the
// file named StateFileName(animTime) in dir.
// If the file cannot be opened, it logs the failure and
// returns false and a nil error: the simulation simply
// continues from its current state.
func (m *Manager) RestoreState(dir string, animTime int) (bool, error) {
	name := filepath.Join(dir, StateFileName(animTime))
	f, err := os.Open(name)
	if err != nil {
		logx.L().Warn("particle state not restored", "file", name, "err", err)
		return false, nil
	}
	defer f.Close()
	t, err := m.ReadState(f)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	if t != animTime {
		return false, fmt.Errorf("%w: %s: written at %dms", ErrStateMismatch, name, t)
	}
	logx.L().Info("particle state restored", "file", name, "emitters", len(m.ids))
	return true, nil
}
