package engine

import (
	"github.com/mlemrecords/mlem"
	"github.com/mlemrecords/mlem/console"
	"github.com/mlemrecords/mlem/dsp"
)

// Base passes audio through, clipping it when asked to, and reports load and
// level.
type Base struct {
	core
}

func NewBase(sender console.Sender) *Base {
	return &Base{core: makeCore(VariantBase, sender)}
}

func (b *Base) Init(sampleRate float32) {
	timer := dsp.NewTimer()
	b.setSampleRate(sampleRate)
	b.log("Init in %.2fms.", timer.ElapsedMs())
}

func (b *Base) Reset() {
	timer := dsp.NewTimer()
	b.runTime.Reset()
	b.rebaseline()
	b.snapshot.Publish(b.data())
	b.log("Reset in %.2fms.", timer.ElapsedMs())
}

func (b *Base) Run(buf mlem.AudioBuffer, ctl *Controls, transport mlem.Transport) {
	defer b.guard(buf)
	timer := b.begin(buf)
	if b.resetDue(ctl, transport) {
		b.rebaseline()
	}
	b.clip(buf, ctl)
	b.measure(buf)
	b.finish(timer)
	b.snapshot.Publish(b.data())
}
