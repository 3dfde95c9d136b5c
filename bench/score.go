// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package bench

// Unit is the unit of scores.
const Unit = "frames"

// Score computes the score of a run that rendered frames
// frames in elapsed milliseconds.
// If normalized is false, the score is the frame count.
// Otherwise, it is the frame count scaled by
// testLength/elapsed, and 0 when elapsed is not positive.
func Score(frames, testLength int, elapsed int64, normalized bool) float64 {
	if !normalized {
		return float64(frames)
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(frames) * float64(testLength) / float64(elapsed)
}
