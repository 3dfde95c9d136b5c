// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gviegas/gfxbench/engine"
	"github.com/gviegas/gfxbench/engine/particle"
	"github.com/gviegas/gfxbench/linear"
)

// ErrConfig means that the scene object of a descriptor
// is malformed or invalid.
var ErrConfig = errors.New("scene: invalid configuration")

const (
	dflCapacity = 4096
	maxEmitters = 64
)

// Config is the scene object of a descriptor.
// Fields not present in the JSON keep their defaults.
// If the emitters key is absent, the scene has a single
// emitter with default parameters; an empty list means
// no emitters at all.
type Config struct {
	Camera   CameraConfig    `json:"camera"`
	StepRate int             `json:"step_rate"`
	Clear    [4]float32      `json:"clear_color"`
	Emitters []EmitterConfig `json:"emitters"`
}

// CameraConfig describes a camera orbiting a target.
// Angles are in radians, except for FOV which is the
// vertical field of view in degrees. Period is the
// duration of one revolution in seconds of animation
// time; zero means a static camera and a negative value
// reverses the direction.
type CameraConfig struct {
	Target   [3]float32 `json:"target"`
	Distance float32    `json:"distance"`
	Height   float32    `json:"height"`
	Period   float32    `json:"period"`
	Phase    float32    `json:"phase"`
	FOV      float32    `json:"fov"`
	ZNear    float32    `json:"znear"`
	ZFar     float32    `json:"zfar"`
}

// Orbit is a circular motion in the XZ plane.
type Orbit struct {
	Radius float32 `json:"radius"`
	Period float32 `json:"period"`
	Phase  float32 `json:"phase"`
}

// angle returns the orbit angle at animTime.
func (o *Orbit) angle(animTime int) float32 {
	a := o.Phase
	if o.Period != 0 {
		a += 2 * math32.Pi * float32(animTime) / 1000 / o.Period
	}
	return a
}

// EmitterConfig describes an emitter.
// Ranges are [min, max] pairs and curves are four
// [x, y] control points.
type EmitterConfig struct {
	Capacity int        `json:"capacity"`
	Position [3]float32 `json:"position"`
	// Emission axis. It need not be normalized.
	Axis  [3]float32 `json:"axis"`
	Orbit Orbit      `json:"orbit"`

	EmitRate        float32       `json:"emit_rate"`
	Lifespan        [2]float32    `json:"lifespan"`
	Speed           [2]float32    `json:"speed"`
	Spread          float32       `json:"spread"`
	AngularVelocity [2]float32    `json:"angular_velocity"`
	Size            [2]float32    `json:"size"`
	Gravity         [3]float32    `json:"gravity"`
	Wind            [3]float32    `json:"wind"`
	TurbulenceFreq  [2]float32    `json:"turbulence_freq"`
	TurbulenceAmp   [2]float32    `json:"turbulence_amp"`
	SizeCurve       [4][2]float32 `json:"size_curve"`
	OpacityCurve    [4][2]float32 `json:"opacity_curve"`
	Additive        float32       `json:"additive"`
	Roundness       float32       `json:"roundness"`
	Shade           float32       `json:"shade"`
	Frames          int           `json:"frames"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Camera: CameraConfig{
			Distance: 8,
			Height:   2,
			Period:   20,
			FOV:      60,
			ZNear:    0.1,
			ZFar:     100,
		},
		StepRate: particle.DefaultConfig().StepRate,
		Clear:    [4]float32{0, 0, 0, 1},
	}
}

// DefaultEmitterConfig returns the configuration of an
// emitter with particle.DefaultEmitterParams.
func DefaultEmitterConfig() EmitterConfig {
	p := particle.DefaultEmitterParams()
	e := EmitterConfig{
		Capacity:        dflCapacity,
		Axis:            [3]float32{0, 1, 0},
		EmitRate:        p.EmitRate,
		Lifespan:        [2]float32{p.Lifespan.Min, p.Lifespan.Max},
		Speed:           [2]float32{p.Speed.Min, p.Speed.Max},
		Spread:          p.Spread,
		AngularVelocity: [2]float32{p.AngularVelocity.Min, p.AngularVelocity.Max},
		Size:            [2]float32{p.Size.Min, p.Size.Max},
		Gravity:         [3]float32(p.Gravity),
		Wind:            [3]float32(p.Wind),
		TurbulenceFreq:  [2]float32{p.TurbulenceFreq.Min, p.TurbulenceFreq.Max},
		TurbulenceAmp:   [2]float32{p.TurbulenceAmp.Min, p.TurbulenceAmp.Max},
		Additive:        p.Additive,
		Roundness:       p.Roundness,
		Shade:           p.Shade,
		Frames:          p.Frames,
	}
	for i := range p.SizeCurve {
		e.SizeCurve[i] = [2]float32{p.SizeCurve[i].X, p.SizeCurve[i].Y}
		e.OpacityCurve[i] = [2]float32{p.OpacityCurve[i].X, p.OpacityCurve[i].Y}
	}
	return e
}

// UnmarshalJSON decodes an emitter on top of
// DefaultEmitterConfig.
func (e *EmitterConfig) UnmarshalJSON(b []byte) error {
	type plain EmitterConfig
	p := plain(DefaultEmitterConfig())
	if err := decode(b, &p); err != nil {
		return err
	}
	*e = EmitterConfig(p)
	return nil
}

func decode(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ParseConfig parses the scene object of a descriptor.
// raw may be empty, in which case the default
// configuration with one default emitter is returned.
func ParseConfig(raw []byte) (*Config, error) {
	c := DefaultConfig()
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := decode(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}
	if c.Emitters == nil {
		c.Emitters = []EmitterConfig{DefaultEmitterConfig()}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

func (c *Config) validate() error {
	cam := &c.Camera
	switch {
	case c.StepRate <= 0 || c.StepRate > particle.MaxStepRate:
		return invalid("step_rate %d", c.StepRate)
	case cam.Distance < 0:
		return invalid("camera distance %v", cam.Distance)
	case cam.FOV <= 0 || cam.FOV >= 180:
		return invalid("camera fov %v", cam.FOV)
	case cam.ZNear <= 0 || cam.ZFar <= cam.ZNear:
		return invalid("camera depth range [%v, %v]", cam.ZNear, cam.ZFar)
	case len(c.Emitters) > maxEmitters:
		return invalid("%d emitters", len(c.Emitters))
	}
	for i := range c.Emitters {
		e := &c.Emitters[i]
		if e.Capacity <= 0 || e.Capacity > particle.MaxParticles {
			return invalid("emitter %d: capacity %d", i, e.Capacity)
		}
		if e.Axis == ([3]float32{}) {
			return invalid("emitter %d: zero axis", i)
		}
	}
	return nil
}

// Camera returns the camera at animTime.
func (c *CameraConfig) Camera(animTime int) engine.Camera {
	o := Orbit{Period: c.Period, Phase: c.Phase}
	a := o.angle(animTime)
	t := linear.V3(c.Target)
	return engine.Camera{
		Eye:    linear.V3{t[0] + c.Distance*math32.Cos(a), t[1] + c.Height, t[2] + c.Distance*math32.Sin(a)},
		Center: t,
		Up:     linear.V3{0, 1, 0},
		YFov:   c.FOV * math32.Pi / 180,
		ZNear:  c.ZNear,
		ZFar:   c.ZFar,
	}
}

// Pose returns the world transform of the emitter at
// animTime: a rotation taking +Y to the emission axis,
// followed by a translation to the orbit position.
func (e *EmitterConfig) Pose(animTime int) (m linear.M4) {
	a := e.Orbit.angle(animTime)
	x := e.Position[0] + e.Orbit.Radius*math32.Cos(a)
	z := e.Position[2] + e.Orbit.Radius*math32.Sin(a)

	axis := linear.V3(e.Axis)
	axis.Norm(&axis)
	up := linear.V3{0, 1, 0}
	var rot linear.V3
	rot.Cross(&up, &axis)
	var r linear.M4
	switch d := up.Dot(&axis); {
	case rot.Len() > 1e-6:
		rot.Norm(&rot)
		var q linear.Q
		q.Rotate(math32.Acos(min(max(d, -1), 1)), &rot)
		r.RotateQ(&q)
	case d < 0:
		r.Scale(1, -1, -1)
	default:
		r.I()
	}
	var t linear.M4
	t.Translate(x, e.Position[1], z)
	m.Mul(&t, &r)
	return
}

// Params returns the particle parameters of the emitter
// at animTime.
func (e *EmitterConfig) Params(animTime int) particle.EmitterParams {
	rng := func(r [2]float32) particle.Range { return particle.Range{Min: r[0], Max: r[1]} }
	p := particle.EmitterParams{
		Pose:            e.Pose(animTime),
		EmitRate:        e.EmitRate,
		Lifespan:        rng(e.Lifespan),
		Speed:           rng(e.Speed),
		Spread:          e.Spread,
		AngularVelocity: rng(e.AngularVelocity),
		Size:            rng(e.Size),
		Gravity:         linear.V3(e.Gravity),
		Wind:            linear.V3(e.Wind),
		TurbulenceFreq:  rng(e.TurbulenceFreq),
		TurbulenceAmp:   rng(e.TurbulenceAmp),
		Additive:        e.Additive,
		Roundness:       e.Roundness,
		Shade:           e.Shade,
		Frames:          e.Frames,
	}
	for i := range e.SizeCurve {
		p.SizeCurve[i] = particle.CurvePoint{X: e.SizeCurve[i][0], Y: e.SizeCurve[i][1]}
		p.OpacityCurve[i] = particle.CurvePoint{X: e.OpacityCurve[i][0], Y: e.OpacityCurve[i][1]}
	}
	p.EnforceParamRanges()
	return p
}
