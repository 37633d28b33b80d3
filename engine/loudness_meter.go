package engine

import (
	"fmt"

	"github.com/mlemrecords/mlem"
	"github.com/mlemrecords/mlem/loudness"
)

// LoudnessMeter owns a loudness integrator and recreates it whenever the
// channel count or sample rate of the audio changes. An integrator cannot be
// partially reset, so every reset starts a new one.
type LoudnessMeter struct {
	integrator *loudness.Integrator
	stats      loudness.Stats
}

func NewLoudnessMeter() *LoudnessMeter {
	return &LoudnessMeter{stats: loudness.Baseline()}
}

// Feed adds a block of audio and returns the statistics as of the end of the
// block. If the integrator cannot be created or fed, the previous statistics
// are returned along with the error.
func (m *LoudnessMeter) Feed(buf mlem.AudioBuffer, sampleRate int) (loudness.Stats, error) {
	if m.integrator == nil || m.integrator.Channels() != buf.Channels() || m.integrator.SampleRate() != sampleRate {
		integrator, err := loudness.New(buf.Channels(), sampleRate)
		if err != nil {
			return m.stats, fmt.Errorf("could not create loudness integrator: %w", err)
		}
		m.integrator = integrator
		m.stats = loudness.Baseline()
	}
	if err := m.integrator.AddFrames(buf); err != nil {
		return m.stats, fmt.Errorf("could not add frames: %w", err)
	}
	m.stats = m.integrator.Stats()
	return m.stats, nil
}

// Reset discards the integrator and builds a new one for the given
// configuration. The statistics return to the baseline even if building
// fails; the next Feed will then try again.
func (m *LoudnessMeter) Reset(channels, sampleRate int) error {
	m.Discard()
	integrator, err := loudness.New(channels, sampleRate)
	if err != nil {
		return err
	}
	m.integrator = integrator
	return nil
}

// Discard drops the integrator without building a new one.
func (m *LoudnessMeter) Discard() {
	m.integrator = nil
	m.stats = loudness.Baseline()
}

func (m *LoudnessMeter) Stats() loudness.Stats { return m.stats }

// Active reports whether an integrator exists.
func (m *LoudnessMeter) Active() bool { return m.integrator != nil }
