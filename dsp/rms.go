package dsp

import "math"

// SilenceThreshold is the level at or below which an RMS is considered silent.
const SilenceThreshold = 1e-10

// RMS is an exponentially weighted running estimate of the power of a signal:
// a one-pole low-pass filter on the squared input. The time constant is
// WindowMs milliseconds, at whatever rate Process is called.
type RMS struct {
	WindowMs float32
	state    float32
}

func MakeRMS(windowMs float32) RMS {
	return RMS{WindowMs: windowMs}
}

func (r *RMS) Reset() {
	r.Set(0)
}

// Set forces the level to abs(input).
func (r *RMS) Set(input float32) {
	r.state = input * input
}

// Get returns the current level, never negative.
func (r *RMS) Get() float32 {
	return float32(math.Sqrt(float64(r.state)))
}

func (r *RMS) IsSilent() bool {
	return r.Get() <= SilenceThreshold
}

// Process feeds one input value, sampled at sampleRate (calls per second).
func (r *RMS) Process(input float32, sampleRate float32) {
	r.ProcessPower(input*input, sampleRate)
}

// ProcessPower feeds an already squared value. Negative, NaN and infinite
// powers are ignored so the state stays a finite non-negative number.
func (r *RMS) ProcessPower(power float32, sampleRate float32) {
	if !(power >= 0) || math.IsInf(float64(power), 1) {
		return
	}
	r.state = power + r.coefficient(sampleRate)*(r.state-power)
	if r.state < 0 {
		r.state = 0
	}
}

// coefficient is 0 (no smoothing) whenever the window or rate is degenerate.
func (r *RMS) coefficient(sampleRate float32) float32 {
	if !(sampleRate > 0) || !(r.WindowMs > 0) {
		return 0
	}
	return float32(math.Exp(-1000 / (float64(r.WindowMs) * float64(sampleRate))))
}
