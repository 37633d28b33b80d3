package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/mlemrecords/mlem/loudness"
)

type (
	// RuntimeData is what the audio thread reports to the UI after every
	// block.
	RuntimeData struct {
		Variant      string         `yaml:"variant"`
		SampleRate   float32        `yaml:"samplerate"`
		BufferSize   int            `yaml:"buffersize"`
		Channels     int            `yaml:"channels"`
		RunMs        float32        `yaml:"runms"`
		ActiveTimeMs float32        `yaml:"activetimems"`
		Loudness     loudness.Stats `yaml:"loudness"`
		Level        float32        `yaml:"level"`
		Clipped      int            `yaml:"clipped"`
		FeedPosition int            `yaml:"feedposition"`
		FeedLength   int            `yaml:"feedlength"`
		ReadMode     string         `yaml:"readmode,omitempty"`
	}

	// Snapshot holds the latest RuntimeData. The audio thread publishes a
	// whole copy under the write lock once per block, so readers never see a
	// mix of two blocks.
	Snapshot struct {
		mu        sync.RWMutex
		data      RuntimeData
		published bool
	}
)

func (s *Snapshot) Publish(d RuntimeData) {
	s.mu.Lock()
	s.data = d
	s.published = true
	s.mu.Unlock()
}

// Load returns the last published data. Before the first Publish, the
// loudness figures are the baseline rather than zero.
func (s *Snapshot) Load() RuntimeData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.published {
		return RuntimeData{Loudness: loudness.Baseline()}
	}
	return s.data
}

// BlockMs is the duration of one block of audio.
func (d RuntimeData) BlockMs() float64 {
	if d.SampleRate <= 0 {
		return 0
	}
	return float64(d.BufferSize) * 1000 / float64(d.SampleRate)
}

// LoadPercent is how much of the block's duration was spent processing it,
// rounded down to a whole percent.
func (d RuntimeData) LoadPercent() float32 {
	block := d.BlockMs()
	if block <= 0 {
		return 0
	}
	return float32(math.Floor(float64(d.RunMs) / block * 100))
}

// Status is a one-line summary of the runtime's load and configuration.
func (d RuntimeData) Status() string {
	return fmt.Sprintf("(%.2fms / %3.0f%%) @ %vhz, %vbuf, %vch.", d.RunMs, d.LoadPercent(), d.SampleRate, d.BufferSize, d.Channels)
}

// FormatActiveTime renders milliseconds as whole minutes and seconds, e.g.
// "2m5s".
func FormatActiveTime(ms float32) string {
	if ms < 0 || math.IsNaN(float64(ms)) {
		ms = 0
	}
	seconds := math.Floor(float64(ms) / 1000)
	minutes := math.Floor(seconds / 60)
	return fmt.Sprintf("%.0fm%.0fs", minutes, seconds-minutes*60)
}
