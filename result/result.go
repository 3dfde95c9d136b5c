// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package result defines the benchmark result schema.
package result

import (
	"encoding/json"
	"fmt"
	"io"
)

// Status is the outcome of a run.
type Status int

// Statuses.
const (
	OK Status = iota
	Failed
	Cancelled
)

var statusNames = [...]string{
	OK:        "OK",
	Failed:    "FAILED",
	Cancelled: "CANCELLED",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("result: invalid status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("result: unknown status %q", text)
}

// Flags.
const (
	FlagVSyncLimited = "VSYNC_LIMITED"
	FlagVSyncMaxed   = "VSYNC_MAXED"
)

// GFXResult holds graphics-specific measurements.
type GFXResult struct {
	FPS             float64 `json:"fps"`
	FrameCount      int     `json:"frameCount"`
	SurfaceWidth    int     `json:"surfaceWidth"`
	SurfaceHeight   int     `json:"surfaceHeight"`
	Vendor          string  `json:"vendor"`
	Renderer        string  `json:"renderer"`
	GraphicsVersion string  `json:"graphicsVersion"`
	EGLConfigID     int     `json:"eglConfigId"`
}

// Result is the outcome of a single test run.
// Times are in milliseconds.
type Result struct {
	TestID       string          `json:"testId"`
	ResultID     string          `json:"resultId"`
	Status       Status          `json:"status"`
	Score        float64         `json:"score"`
	Unit         string          `json:"unit"`
	LoadTime     int64           `json:"loadTime"`
	ElapsedTime  int64           `json:"elapsedTime"`
	MeasuredTime int64           `json:"measuredTime"`
	ErrorString  string          `json:"errorString"`
	GFXResult    GFXResult       `json:"gfxResult"`
	Descriptor   json.RawMessage `json:"descriptor,omitempty"`
	Flags        []string        `json:"flags"`
}

// AddFlag appends flag to r.Flags if not present.
func (r *Result) AddFlag(flag string) {
	for _, f := range r.Flags {
		if f == flag {
			return
		}
	}
	r.Flags = append(r.Flags, flag)
}

// HasFlag returns whether r.Flags contains flag.
func (r *Result) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Series is a named sequence of values.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is a set of series sampled over a common domain.
type Chart struct {
	ID         string   `json:"chart_id"`
	DomainAxis string   `json:"domain_axis"`
	SampleAxis string   `json:"sample_axis"`
	Domain     Series   `json:"domain"`
	Values     []Series `json:"values"`
}

// NewChart creates a chart with one empty series for each
// name in series.
func NewChart(id, domainAxis, sampleAxis, domain string, series ...string) *Chart {
	c := &Chart{
		ID:         id,
		DomainAxis: domainAxis,
		SampleAxis: sampleAxis,
		Domain:     Series{Name: domain, Values: []float64{}},
		Values:     make([]Series, len(series)),
	}
	for i, name := range series {
		c.Values[i] = Series{Name: name, Values: []float64{}}
	}
	return c
}

// Add appends a sample to the chart.
// values must have one element per series.
func (c *Chart) Add(domain float64, values ...float64) {
	if len(values) != len(c.Values) {
		panic("result: sample/series count mismatch")
	}
	c.Domain.Values = append(c.Domain.Values, domain)
	for i, v := range values {
		c.Values[i].Values = append(c.Values[i].Values, v)
	}
}

// Len returns the number of samples.
func (c *Chart) Len() int { return len(c.Domain.Values) }

// Group is the outcome of a test.
type Group struct {
	Results []Result `json:"results"`
	Charts  []*Chart `json:"charts"`
}

// Result returns the first result of g, or nil if g
// has none.
func (g *Group) Result() *Result {
	if len(g.Results) == 0 {
		return nil
	}
	return &g.Results[0]
}

// AddChart appends c to g.
func (g *Group) AddChart(c *Chart) { g.Charts = append(g.Charts, c) }

// Chart returns the chart whose ID is id, or nil if g
// has no such chart.
func (g *Group) Chart(id string) *Chart {
	for _, c := range g.Charts {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Encode writes g to w as indented JSON.
func (g *Group) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

// Decode reads a Group from r.
func Decode(r io.Reader) (*Group, error) {
	var g Group
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("result: %w", err)
	}
	return &g, nil
}
