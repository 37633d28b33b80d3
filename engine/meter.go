package engine

import (
	"github.com/mlemrecords/mlem"
	"github.com/mlemrecords/mlem/console"
	"github.com/mlemrecords/mlem/dsp"
)

// Meter is the loudness meter: Base plus an EBU R128 loudness meter that can
// be reset by the UI or whenever the transport starts playing.
type Meter struct {
	core
	loudness *LoudnessMeter
}

func NewMeter(sender console.Sender) *Meter {
	return &Meter{
		core:     makeCore(VariantMeter, sender),
		loudness: NewLoudnessMeter(),
	}
}

func (m *Meter) Init(sampleRate float32) {
	timer := dsp.NewTimer()
	m.setSampleRate(sampleRate)
	m.log("Init in %.2fms.", timer.ElapsedMs())
}

func (m *Meter) Reset() {
	timer := dsp.NewTimer()
	m.runTime.Reset()
	m.rebaseline()
	m.snapshot.Publish(m.data())
	m.log("Reset in %.2fms.", timer.ElapsedMs())
}

func (m *Meter) Run(buf mlem.AudioBuffer, ctl *Controls, transport mlem.Transport) {
	defer m.guard(buf)
	timer := m.begin(buf)
	if m.resetDue(ctl, transport) {
		m.rebaseline()
	}
	m.clip(buf, ctl)
	if _, err := m.loudness.Feed(buf, int(m.sampleRate)); err != nil {
		m.fail("Failed to run loudness meter", err)
	} else {
		m.recovered()
	}
	m.measure(buf)
	m.finish(timer)
	m.snapshot.Publish(m.data())
}

// rebaseline also restarts the loudness meter. Until the first block has
// been seen the channel count is unknown, and the meter is only emptied; it
// is built on the next block.
func (m *Meter) rebaseline() {
	m.core.rebaseline()
	if m.channels == 0 {
		m.loudness.Discard()
		return
	}
	if err := m.loudness.Reset(m.channels, int(m.sampleRate)); err != nil {
		m.log("Failed to reset meter: %v", err)
	}
}

func (m *Meter) data() RuntimeData {
	d := m.core.data()
	d.Loudness = m.loudness.Stats()
	return d
}

// Loudness exposes the meter, mostly for tests and tools that want the
// integrator's figures without going through the snapshot.
func (m *Meter) Loudness() *LoudnessMeter { return m.loudness }
