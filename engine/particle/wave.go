// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package particle

import (
	"github.com/chewxy/math32"

	"github.com/gviegas/gfxbench/linear"
)

type sine struct{ freq, phase, amp float32 }

// Amplitudes of each axis sum to 1.
var waves = [3][3]sine{
	{{1, 0, 0.5}, {2.31, 1.7, 0.3}, {4.17, 4.1, 0.2}},
	{{1.13, 2.3, 0.5}, {2.57, 0.4, 0.3}, {3.89, 5.3, 0.2}},
	{{0.87, 3.9, 0.5}, {2.09, 2.8, 0.3}, {4.43, 0.9, 0.2}},
}

// Wave3D returns a point on a smooth closed-form path
// at t. Each axis is the sum of three sine waves, so
// every component lies in [-1, 1].
func Wave3D(t float32) linear.V3 {
	var w linear.V3
	for i := range w {
		for _, s := range waves[i] {
			w[i] += s.amp * math32.Sin(s.freq*t+s.phase)
		}
	}
	return w
}
