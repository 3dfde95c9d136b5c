// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"time"

	"github.com/gviegas/gfxbench/internal/logx"
	"github.com/gviegas/gfxbench/result"
)

// Chart IDs.
const (
	ChartFPS     = "fps"
	ChartSensors = "sensors"
)

// ChartsComponent samples the windowed frame rate and the
// sensors every charts_query_frequency milliseconds of
// wall-clock time.
type ChartsComponent struct {
	sensors  []Sensor
	interval time.Duration
	next     time.Duration
	fps      *result.Chart
	values   *result.Chart
	last     []float64
	failed   []bool
}

// Name implements Component.
func (c *ChartsComponent) Name() string { return NameCharts }

// Init implements Component.
func (c *ChartsComponent) Init(r *Runner) error {
	ss := r.Options().Sensors
	if ss == nil {
		ss = PlatformSensors()
	}
	*c = ChartsComponent{
		sensors:  ss,
		interval: time.Duration(r.Descriptor().ChartsQueryFrequency) * time.Millisecond,
		fps:      result.NewChart(ChartFPS, "time", "fps", "time", "fps"),
		last:     make([]float64, len(ss)),
		failed:   make([]bool, len(ss)),
	}
	c.next = c.interval
	if len(ss) > 0 {
		names := make([]string, len(ss))
		for i, s := range ss {
			names[i] = s.Name
		}
		c.values = result.NewChart(ChartSensors, "time", "value", "time", names...)
		logx.L().Debug("sensors found", "sensors", names)
	}
	return nil
}

// BeginFrame implements Component.
func (c *ChartsComponent) BeginFrame(*Runner) {}

// AfterRender implements Component.
func (c *ChartsComponent) AfterRender(*Runner) {}

// EndFrame implements Component.
func (c *ChartsComponent) EndFrame(r *Runner) {
	el := r.Time().Elapsed()
	if el < c.next {
		return
	}
	for c.next <= el {
		c.next += c.interval
	}
	c.sample(float64(el.Milliseconds()), r.Time().FPS())
}

// sample adds a sample at t milliseconds.
// A failed sensor read repeats its last value.
func (c *ChartsComponent) sample(t, fps float64) {
	c.fps.Add(t, fps)
	if c.values == nil {
		return
	}
	for i, s := range c.sensors {
		x, err := s.Read()
		if err != nil {
			if !c.failed[i] {
				c.failed[i] = true
				logx.L().Warn("sensor read failed", "sensor", s.Name, "err", err)
			}
			continue
		}
		c.last[i] = x
	}
	c.values.Add(t, c.last...)
}

// Samples returns the number of samples taken.
func (c *ChartsComponent) Samples() int { return c.fps.Len() }

// CreateResult implements Component.
func (c *ChartsComponent) CreateResult(_ *Runner, g *result.Group) {
	if c.fps.Len() == 0 {
		return
	}
	g.AddChart(c.fps)
	if c.values != nil {
		g.AddChart(c.values)
	}
}

// Close implements Component.
func (c *ChartsComponent) Close() {}
