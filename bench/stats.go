// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"github.com/gviegas/gfxbench/result"
)

// ChartFrames is the ID of the frame statistics chart.
const ChartFrames = "frame_statistics"

// StatisticsComponent records the time and animation
// time of every frame.
type StatisticsComponent struct {
	chart *result.Chart
	anim  int
}

// Name implements Component.
func (s *StatisticsComponent) Name() string { return NameStatistics }

// Init implements Component.
func (s *StatisticsComponent) Init(*Runner) error {
	s.chart = result.NewChart(ChartFrames, "frame", "ms", "frame", "frame_time", "animation_time")
	return nil
}

// BeginFrame implements Component.
func (s *StatisticsComponent) BeginFrame(r *Runner) { s.anim = r.AnimationTime() }

// AfterRender implements Component.
func (s *StatisticsComponent) AfterRender(*Runner) {}

// EndFrame implements Component.
func (s *StatisticsComponent) EndFrame(r *Runner) {
	tc := r.Time()
	ms := float64(tc.FrameTime().Microseconds()) / 1e3
	s.chart.Add(float64(tc.Frames()), ms, float64(s.anim))
}

// Chart returns the recorded frames.
func (s *StatisticsComponent) Chart() *result.Chart { return s.chart }

// CreateResult implements Component.
func (s *StatisticsComponent) CreateResult(_ *Runner, g *result.Group) { g.AddChart(s.chart) }

// Close implements Component.
func (s *StatisticsComponent) Close() {}
