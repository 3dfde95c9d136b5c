// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package particle

import (
	"github.com/chewxy/math32"

	"github.com/gviegas/gfxbench/linear"
)

// Range is a closed interval from which emission
// values are drawn.
type Range struct {
	Min, Max float32
}

// at returns the value at the normalized position t.
func (r Range) at(t float32) float32 { return r.Min + (r.Max-r.Min)*t }

// clamp clamps r to [lo, hi] and ensures Min <= Max.
// NaNs are replaced by lo.
func (r *Range) clamp(lo, hi float32) {
	r.Min = clampf(r.Min, lo, hi)
	r.Max = clampf(r.Max, lo, hi)
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
}

func clampf(x, lo, hi float32) float32 {
	if math32.IsNaN(x) {
		return lo
	}
	return min(max(x, lo), hi)
}

// CurvePoint is a control point of a Curve.
type CurvePoint struct {
	X, Y float32
}

// Curve is a piecewise-linear function of a particle's
// normalized age.
type Curve [4]CurvePoint

// EvaluateCurve evaluates the piecewise-linear function
// defined by curve at t.
// curve must be sorted by X. Outside of the domain, the
// value of the nearest end point is returned.
func EvaluateCurve(t float32, curve []CurvePoint) float32 {
	n := len(curve)
	switch {
	case n == 0:
		return 0
	case t < curve[0].X:
		return curve[0].Y
	case t >= curve[n-1].X:
		return curve[n-1].Y
	}
	for i := 1; i < n; i++ {
		if t >= curve[i].X {
			continue
		}
		p, q := curve[i-1], curve[i]
		dx := q.X - p.X
		if dx <= 0 {
			return q.Y
		}
		return p.Y + (q.Y-p.Y)*(t-p.X)/dx
	}
	return curve[n-1].Y
}

// clamp clamps the control points to [0, 1]×[lo, hi]
// and sorts them by X.
func (c *Curve) clamp(lo, hi float32) {
	for i := range c {
		c[i].X = clampf(c[i].X, 0, 1)
		c[i].Y = clampf(c[i].Y, lo, hi)
	}
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].X < c[j-1].X; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}

// EmitterParams are the authored and animated
// properties of an emitter.
// Times are in seconds and distances in world units.
type EmitterParams struct {
	// World transform. Particles are emitted from its
	// origin in a cone around its +Y axis.
	Pose linear.M4

	// Particles per second.
	EmitRate float32
	Lifespan Range
	Speed    Range
	// Half-angle of the emission cone in radians.
	Spread float32
	// Radians per second.
	AngularVelocity Range
	Size            Range

	// Accelerations applied to every particle.
	Gravity linear.V3
	Wind    linear.V3

	// Turbulence frequency in radians per second and
	// amplitude in world units.
	TurbulenceFreq Range
	TurbulenceAmp  Range

	// Size and opacity over the normalized age.
	SizeCurve    Curve
	OpacityCurve Curve

	// Material factors in [0, 1].
	Additive  float32
	Roundness float32
	Shade     float32

	// Number of flip-book frames, played once over
	// the particle's life.
	Frames int
}

// Parameter limits.
const (
	MaxEmitRate   = 1e5
	MinLifespan   = 0.01
	MaxLifespan   = 60
	MaxSpeed      = 1e3
	MaxSize       = 1e3
	MaxTurbFreq   = 100
	MaxTurbAmp    = 100
	MaxFrames     = 256
	maxAngularVel = 4 * math32.Pi
	maxAccel      = 1e3
)

// DefaultEmitterParams returns a set of parameters
// that produces a narrow, fading fountain.
func DefaultEmitterParams() EmitterParams {
	var p EmitterParams
	p.Pose.I()
	p.EmitRate = 100
	p.Lifespan = Range{1, 2}
	p.Speed = Range{1, 2}
	p.Spread = 0.3
	p.AngularVelocity = Range{-1, 1}
	p.Size = Range{0.1, 0.2}
	p.Gravity = linear.V3{0, -1, 0}
	p.TurbulenceFreq = Range{0.5, 1}
	p.TurbulenceAmp = Range{0, 0.1}
	p.SizeCurve = Curve{{0, 1}, {1.0 / 3, 1}, {2.0 / 3, 1}, {1, 1}}
	p.OpacityCurve = Curve{{0, 0}, {0.1, 1}, {0.8, 1}, {1, 0}}
	p.Roundness = 1
	p.Shade = 0.5
	p.Frames = 1
	return p
}

// EnforceParamRanges clamps every parameter of p to its
// valid range.
// It never fails: out-of-range values are replaced by
// the nearest valid value and NaNs by the lower bound.
func (p *EmitterParams) EnforceParamRanges() {
	p.EmitRate = clampf(p.EmitRate, 0, MaxEmitRate)
	p.Lifespan.clamp(MinLifespan, MaxLifespan)
	p.Speed.clamp(0, MaxSpeed)
	p.Spread = clampf(p.Spread, 0, math32.Pi)
	p.AngularVelocity.clamp(-maxAngularVel, maxAngularVel)
	p.Size.clamp(0, MaxSize)
	for i := range 3 {
		p.Gravity[i] = clampf(p.Gravity[i], -maxAccel, maxAccel)
		p.Wind[i] = clampf(p.Wind[i], -maxAccel, maxAccel)
	}
	p.TurbulenceFreq.clamp(0, MaxTurbFreq)
	p.TurbulenceAmp.clamp(0, MaxTurbAmp)
	p.SizeCurve.clamp(0, MaxSize)
	p.OpacityCurve.clamp(0, 1)
	p.Additive = clampf(p.Additive, 0, 1)
	p.Roundness = clampf(p.Roundness, 0, 1)
	p.Shade = clampf(p.Shade, 0, 1)
	p.Frames = min(max(p.Frames, 1), MaxFrames)
}
