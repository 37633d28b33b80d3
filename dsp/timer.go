package dsp

import "time"

// Timer measures wall time since it was created or last reset. It relies on
// the monotonic clock reading carried by time.Time.
type Timer struct {
	start time.Time
}

func NewTimer() Timer {
	return Timer{start: time.Now()}
}

func (t *Timer) Reset() {
	t.start = time.Now()
}

// ElapsedMs returns the elapsed time in milliseconds.
func (t Timer) ElapsedMs() float32 {
	return float32(time.Since(t.start).Nanoseconds()) / 1e6
}
