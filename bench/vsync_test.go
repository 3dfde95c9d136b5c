// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gviegas/gfxbench/result"
)

func feed(v *VSyncComponent, frameTime time.Duration, total time.Duration) {
	for d := time.Duration(0); d < total; d += frameTime {
		v.add(frameTime)
	}
}

func TestVSync(t *testing.T) {
	const vsynced = 16667 * time.Microsecond
	for _, x := range []struct {
		name    string
		feed    func(v *VSyncComponent)
		windows int
		vsynced int
		maxed   bool
	}{
		{"unbounded", func(v *VSyncComponent) { feed(v, 5*time.Millisecond, 3*time.Second) }, 3, 0, false},
		{"60Hz", func(v *VSyncComponent) { feed(v, vsynced, 3*time.Second) }, 3, 3, true},
		{"30Hz", func(v *VSyncComponent) { feed(v, 33*time.Millisecond, 3*time.Second) }, 2, 0, false},
		{"partial", func(v *VSyncComponent) {
			feed(v, 5*time.Millisecond, time.Second)
			feed(v, vsynced, time.Second)
			feed(v, 5*time.Millisecond, 2*time.Second)
		}, 4, 1, true},
		{"half in band", func(v *VSyncComponent) {
			for range 40 {
				v.add(vsynced)
				v.add(8333 * time.Microsecond)
			}
		}, 1, 0, false},
		{"incomplete window", func(v *VSyncComponent) { feed(v, vsynced, 900*time.Millisecond) }, 0, 0, false},
	} {
		t.Run(x.name, func(t *testing.T) {
			var v VSyncComponent
			x.feed(&v)
			assert.Equal(t, x.windows, v.Windows())
			assert.Equal(t, x.vsynced, v.VSyncedWindows())
			assert.Equal(t, x.maxed, v.Maxed())

			g := &result.Group{Results: make([]result.Result, 1)}
			v.CreateResult(nil, g)
			if x.maxed {
				assert.Equal(t, []string{result.FlagVSyncMaxed}, g.Result().Flags)
			} else {
				assert.Equal(t, []string{result.FlagVSyncLimited}, g.Result().Flags)
			}
		})
	}
}

func TestVSyncRatio(t *testing.T) {
	var v VSyncComponent
	assert.Zero(t, v.Ratio())
	feed(&v, 16*time.Millisecond, time.Second)
	feed(&v, 5*time.Millisecond, 3*time.Second)
	assert.InDelta(t, 0.25, v.Ratio(), 1e-9)
	assert.Less(t, v.Ratio(), VSyncMaxedThreshold)
	assert.True(t, v.Maxed(), "a single vsynced window decides")
}
