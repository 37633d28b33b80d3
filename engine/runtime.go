// Package engine is the real-time part of the plugins: the runtimes that the
// host calls once per block of audio, the controls the UI uses to steer them
// and the snapshot through which they report back.
//
// Init, Reset and Run belong to the audio thread. Controls and Snapshot are
// the only things shared with other goroutines.
package engine

import (
	"fmt"

	"github.com/mlemrecords/mlem"
	"github.com/mlemrecords/mlem/console"
	"github.com/mlemrecords/mlem/dsp"
	"github.com/mlemrecords/mlem/loudness"
)

type (
	Runtime interface {
		// Init is called when the sample rate becomes known or changes.
		Init(sampleRate float32)
		// Reset re-baselines every accumulator, e.g. after a seek.
		Reset()
		// Run processes one block in place. It never fails; problems are
		// reported through the console.
		Run(buf mlem.AudioBuffer, ctl *Controls, transport mlem.Transport)
		Snapshot() *Snapshot
		Variant() string
		// Close releases files held by the runtime.
		Close() error
	}

	// core is the state every runtime shares: block bookkeeping, the load
	// and level meters and the snapshot.
	core struct {
		console     console.Sender
		variant     string
		sampleRate  float32
		bufferSize  int
		channels    int
		lastPlaying bool
		clipped     int

		runTime    dsp.RMS // smoothed wall time of Run, in ms
		level      dsp.RMS // smoothed signal level
		activeTime dsp.Timer

		lastFailure string
		snapshot    Snapshot
	}
)

const (
	VariantBase  = "base"
	VariantMeter = "meter"
	VariantData  = "data"

	runTimeWindowMs = 1
	levelWindowMs   = 300
)

var Variants = []string{VariantBase, VariantMeter, VariantData}

// New creates the runtime of the named variant.
func New(variant string, sender console.Sender) (Runtime, error) {
	switch variant {
	case VariantBase:
		return NewBase(sender), nil
	case VariantMeter:
		return NewMeter(sender), nil
	case VariantData:
		return NewData(sender), nil
	}
	return nil, fmt.Errorf("unknown runtime variant %q, expected one of %v", variant, Variants)
}

func makeCore(variant string, sender console.Sender) core {
	return core{
		console:    sender,
		variant:    variant,
		runTime:    dsp.MakeRMS(runTimeWindowMs),
		level:      dsp.MakeRMS(levelWindowMs),
		activeTime: dsp.NewTimer(),
	}
}

func (c *core) Snapshot() *Snapshot { return &c.snapshot }
func (c *core) Variant() string     { return c.variant }
func (c *core) Close() error        { return nil }

func (c *core) setSampleRate(sampleRate float32) {
	c.sampleRate = sampleRate
}

// begin records the shape of the block and starts timing it.
func (c *core) begin(buf mlem.AudioBuffer) dsp.Timer {
	c.bufferSize = buf.Frames()
	c.channels = buf.Channels()
	c.clipped = 0
	return dsp.NewTimer()
}

// resetDue reports whether the block should start with a re-baseline: either
// the transport just started and reset-on-play is on, or the UI asked for
// one. The reset request is consumed in both cases.
func (c *core) resetDue(ctl *Controls, transport mlem.Transport) bool {
	started := ctl.ResetOnPlay.Load() && !c.lastPlaying && transport.Playing
	c.lastPlaying = transport.Playing
	requested := ctl.ConsumeReset()
	return started || requested
}

func (c *core) rebaseline() {
	c.level.Reset()
	c.activeTime.Reset()
}

func (c *core) clip(buf mlem.AudioBuffer, ctl *Controls) {
	if !ctl.Clip.Load() {
		return
	}
	for _, samples := range buf {
		c.clipped += dsp.ClipInplace(samples)
	}
}

// measure feeds the mean power of every frame to the level meter.
func (c *core) measure(buf mlem.AudioBuffer) {
	channels := buf.Channels()
	if channels == 0 {
		return
	}
	frames := buf.Frames()
	for _, samples := range buf {
		frames = min(frames, len(samples))
	}
	for i := range frames {
		var power float32
		for _, samples := range buf {
			power += samples[i] * samples[i]
		}
		c.level.ProcessPower(power/float32(channels), c.sampleRate)
	}
}

func (c *core) finish(timer dsp.Timer) {
	c.runTime.Process(timer.ElapsedMs(), c.sampleRate)
}

func (c *core) data() RuntimeData {
	return RuntimeData{
		Variant:      c.variant,
		SampleRate:   c.sampleRate,
		BufferSize:   c.bufferSize,
		Channels:     c.channels,
		RunMs:        c.runTime.Get(),
		ActiveTimeMs: c.activeTime.ElapsedMs(),
		Loudness:     loudness.Baseline(),
		Level:        c.level.Get(),
		Clipped:      c.clipped,
	}
}

func (c *core) log(format string, args ...any) {
	c.console.Log(format, args...)
}

// fail logs err unless it is the same failure as last time, so that a
// persistent problem does not flood the console once per block.
func (c *core) fail(prefix string, err error) {
	msg := fmt.Sprintf("%s: %v", prefix, err)
	if msg == c.lastFailure {
		return
	}
	c.lastFailure = msg
	c.log("%s", msg)
}

func (c *core) recovered() {
	c.lastFailure = ""
}

// guard is deferred by every Run. A panic leaves silence in the buffer
// instead of taking down the host.
func (c *core) guard(buf mlem.AudioBuffer) {
	if r := recover(); r != nil {
		buf.Clear()
		c.log("Recovered from panic in %v runtime: %v", c.variant, r)
	}
}
