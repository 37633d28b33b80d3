package dsp

import (
	"math"

	"github.com/viterin/vek/vek32"
)

func Clip(x float32) float32 {
	return min(max(x, -1), 1)
}

// ClipInplace hard clips the samples to [-1, 1] and returns how many were
// outside that range. NaNs count as clipped and are replaced by silence.
func ClipInplace(samples []float32) (clipped int) {
	for i, v := range samples {
		switch {
		case math.IsNaN(float64(v)):
			samples[i] = 0
			clipped++
		case v > 1 || v < -1:
			clipped++
		}
	}
	if clipped > 0 {
		vek32.MinimumNumber_Inplace(samples, 1)
		vek32.MaximumNumber_Inplace(samples, -1)
	}
	return clipped
}

// MeanSquare returns the mean of the squared samples, or 0 for an empty slice.
func MeanSquare(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	return vek32.Dot(samples, samples) / float32(len(samples))
}
