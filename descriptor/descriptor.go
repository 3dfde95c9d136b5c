// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package descriptor parses test descriptors.
// A descriptor is the JSON object that configures a
// single benchmark run.
package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gviegas/gfxbench/driver"
)

// ErrSyntax means that the descriptor is not valid JSON
// or that a field has the wrong type.
var ErrSyntax = errors.New("descriptor: syntax error")

// ErrInvalid means that the descriptor is well formed
// but describes an impossible configuration.
var ErrInvalid = errors.New("descriptor: invalid value")

// Screenshot formats.
const (
	FormatPNG  = "png"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
)

// Defaults.
const (
	dflWidth          = 1920
	dflHeight         = 1080
	dflColorBits      = 8
	dflDepthBits      = 24
	dflFPSWindow      = 1000
	dflChartsInterval = 1000
)

// ColorConfig describes the requested surface bit depths.
type ColorConfig struct {
	Red     int  `json:"red"`
	Green   int  `json:"green"`
	Blue    int  `json:"blue"`
	Alpha   int  `json:"alpha"`
	Depth   int  `json:"depth"`
	Samples int  `json:"samples"`
	VSync   bool `json:"vsync"`
}

// Graphics selects the graphics API and device.
type Graphics struct {
	Type        string      `json:"type"`
	Major       int         `json:"major"`
	Minor       int         `json:"minor"`
	DeviceID    string      `json:"deviceId"`
	DeviceIndex int         `json:"deviceIndex"`
	Config      ColorConfig `json:"config"`
}

// Env describes the rendering environment.
type Env struct {
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Offscreen bool     `json:"offscreen"`
	Graphics  Graphics `json:"graphics"`
}

// Descriptor is the per-run configuration.
// It must not be modified after Parse returns.
// Times are in milliseconds.
type Descriptor struct {
	TestID   string `json:"test_id"`
	Env      Env    `json:"env"`
	PlayTime int    `json:"play_time"`
	// Start of the animation. The test length is
	// PlayTime - StartAnimationTime.
	StartAnimationTime int `json:"start_animation_time"`
	// Animation time of the only frame to render,
	// or -1 if disabled.
	SingleFrame int `json:"single_frame"`
	// Fixed animation step per frame.
	// Zero selects variable time stepping.
	FrameStepTime int `json:"frame_step_time"`
	// Maximum frames per second.
	// Zero means unbounded.
	FPSLimit             int    `json:"fps_limit"`
	FPSWindow            int    `json:"fps_window"`
	ChartsQueryFrequency int    `json:"charts_query_frequency"`
	ScreenshotFrames     []int  `json:"screenshot_frames"`
	ScreenshotFormat     string `json:"screenshot_format"`
	IsEndless            bool   `json:"is_endless"`
	// Maximum number of rendered frames.
	// Zero means unbounded.
	MaxRenderedFrames   int               `json:"max_rendered_frames"`
	ForceHighp          bool              `json:"force_highp"`
	WorkgroupSizes      map[string][3]int `json:"workgroup_sizes"`
	ParticleSaveFrames  []int             `json:"particle_save_frames"`
	ParticleRestoreTime int               `json:"particle_restore_time"`
	FrameStatistics     bool              `json:"frame_statistics"`
	NormalizedScore     bool              `json:"normalized_score"`
	// Scene is decoded by the test.
	Scene json.RawMessage `json:"scene"`

	raw     []byte
	backend driver.Backend
}

// Parse parses a JSON descriptor.
// Unknown fields are rejected.
func Parse(data []byte) (*Descriptor, error) {
	d := defaults()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrSyntax)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	d.raw = slices.Clone(data)
	return d, nil
}

func defaults() *Descriptor {
	return &Descriptor{
		Env: Env{
			Width:  dflWidth,
			Height: dflHeight,
			Graphics: Graphics{
				Type: driver.Null.String(),
				Config: ColorConfig{
					Red:   dflColorBits,
					Green: dflColorBits,
					Blue:  dflColorBits,
					Alpha: dflColorBits,
					Depth: dflDepthBits,
				},
			},
		},
		SingleFrame:          -1,
		FPSWindow:            dflFPSWindow,
		ChartsQueryFrequency: dflChartsInterval,
		ScreenshotFormat:     FormatPNG,
		ParticleRestoreTime:  -1,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (d *Descriptor) validate() (err error) {
	if d.TestID == "" {
		return invalid("empty test_id")
	}
	if d.backend, err = driver.ParseBackend(d.Env.Graphics.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch {
	case d.Env.Width <= 0 || d.Env.Height <= 0:
		return invalid("surface size %dx%d", d.Env.Width, d.Env.Height)
	case d.PlayTime < 0:
		return invalid("negative play_time %d", d.PlayTime)
	case d.StartAnimationTime < 0:
		return invalid("negative start_animation_time %d", d.StartAnimationTime)
	case d.PlayTime <= d.StartAnimationTime:
		return invalid("play_time %d not greater than start_animation_time %d", d.PlayTime, d.StartAnimationTime)
	case d.SingleFrame < -1:
		return invalid("single_frame %d", d.SingleFrame)
	case d.FrameStepTime < 0:
		return invalid("negative frame_step_time %d", d.FrameStepTime)
	case d.FPSLimit < 0:
		return invalid("negative fps_limit %d", d.FPSLimit)
	case d.FPSWindow <= 0:
		return invalid("fps_window %d", d.FPSWindow)
	case d.ChartsQueryFrequency <= 0:
		return invalid("charts_query_frequency %d", d.ChartsQueryFrequency)
	case d.MaxRenderedFrames < 0:
		return invalid("negative max_rendered_frames %d", d.MaxRenderedFrames)
	}
	d.ScreenshotFormat = strings.ToLower(d.ScreenshotFormat)
	switch d.ScreenshotFormat {
	case FormatPNG, FormatBMP, FormatTIFF:
	default:
		return invalid("screenshot_format %q", d.ScreenshotFormat)
	}
	for _, t := range d.ScreenshotFrames {
		if t < 0 {
			return invalid("negative screenshot frame %d", t)
		}
	}
	for _, t := range d.ParticleSaveFrames {
		if t < 0 {
			return invalid("negative particle save frame %d", t)
		}
	}
	for name, sz := range d.WorkgroupSizes {
		if sz[0] <= 0 || sz[1] <= 0 || sz[2] <= 0 {
			return invalid("workgroup size %q %v", name, sz)
		}
	}
	return nil
}

// Raw returns the JSON data that d was parsed from.
func (d *Descriptor) Raw() json.RawMessage { return d.raw }

// Backend returns the graphics API selected by
// Env.Graphics.Type.
func (d *Descriptor) Backend() driver.Backend { return d.backend }

// TestLength returns PlayTime - StartAnimationTime.
func (d *Descriptor) TestLength() int { return d.PlayTime - d.StartAnimationTime }

// SingleFrameEnabled returns whether the run renders
// only the SingleFrame instant.
func (d *Descriptor) SingleFrameEnabled() bool { return d.SingleFrame >= 0 }

// ContextConfig returns the driver.ContextConfig that d
// describes.
func (d *Descriptor) ContextConfig() (*driver.ContextConfig, error) {
	c := &d.Env.Graphics.Config
	color, ds, err := driver.SurfaceFormats(c.Red, c.Green, c.Blue, c.Alpha, c.Depth)
	if err != nil {
		return nil, err
	}
	cfg := &driver.ContextConfig{
		ColorFormat: color,
		DepthFormat: ds,
		Samples:     max(c.Samples, 1),
		VSync:       c.VSync,
		Offscreen:   d.Env.Offscreen,
		Major:       d.Env.Graphics.Major,
		Minor:       d.Env.Graphics.Minor,
		DeviceID:    d.Env.Graphics.DeviceID,
		DeviceIndex: d.Env.Graphics.DeviceIndex,
	}
	cfg.Size.Width = uint32(d.Env.Width)
	cfg.Size.Height = uint32(d.Env.Height)
	cfg.Size.DepthOrArrayLayers = 1
	return cfg, nil
}
