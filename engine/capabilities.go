// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package engine

import (
	"github.com/gviegas/gfxbench/driver"
)

// Capabilities describes what the graphics context and
// device of a run support, plus the rendering hints
// that the run requested.
// It is created once per run and must not be modified
// afterwards.
type Capabilities struct {
	Backend      driver.Backend
	Major, Minor int
	Limits       driver.Limits
	Features     driver.Features
	Info         driver.Info
	Flags        driver.Flag

	// Hints.
	ForceHighp     bool
	WorkgroupSizes map[string][3]int
}

// NewCapabilities queries ctx and gpu.
func NewCapabilities(ctx driver.Context, gpu driver.GPU, forceHighp bool, workgroupSizes map[string][3]int) *Capabilities {
	c := &Capabilities{
		Backend:        ctx.Backend(),
		Limits:         gpu.Limits(),
		Features:       gpu.Features(),
		Info:           gpu.Info(),
		ForceHighp:     forceHighp,
		WorkgroupSizes: make(map[string][3]int, len(workgroupSizes)),
	}
	c.Major, c.Minor = ctx.Version()
	for _, f := range [...]driver.Flag{driver.FlagDebug, driver.FlagRobust, driver.FlagSRGB, driver.FlagHeadless} {
		if ctx.HasFlag(f) {
			c.Flags |= f
		}
	}
	for k, v := range workgroupSizes {
		c.WorkgroupSizes[k] = v
	}
	return c
}

// Highp returns whether shaders should use high
// precision in fragment stages.
func (c *Capabilities) Highp() bool { return c.ForceHighp && c.Features.FragmentHighp }

// WorkgroupSize returns the workgroup size hint named
// name, or dfl if there is no such hint.
// The result is clamped to Limits.MaxDispatch when it
// is set.
func (c *Capabilities) WorkgroupSize(name string, dfl [3]int) [3]int {
	sz, ok := c.WorkgroupSizes[name]
	if !ok {
		sz = dfl
	}
	for i := range sz {
		if m := c.Limits.MaxDispatch[i]; m > 0 && sz[i] > m {
			sz[i] = m
		}
	}
	return sz
}

// ConstantRange returns the largest constant range that
// fits both budget and Limits.MaxConstantRange.
func (c *Capabilities) ConstantRange(budget int) int {
	if m := int(c.Limits.MaxConstantRange); m > 0 && m < budget {
		return m
	}
	return budget
}
