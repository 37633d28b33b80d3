package engine

import (
	"github.com/mlemrecords/mlem"
	"github.com/mlemrecords/mlem/console"
	"github.com/mlemrecords/mlem/dsp"
	"github.com/mlemrecords/mlem/feed"
)

// Data turns bytes into sound. Every output sample is the next byte of the
// feed; in mono mode one byte is shared by all channels of a frame.
type Data struct {
	core
	feed     *feed.Feed
	readMode ReadMode
}

func NewData(sender console.Sender) *Data {
	return &Data{
		core: makeCore(VariantData, sender),
		feed: feed.New(),
	}
}

// Init installs the embedded default data unless a file has been loaded.
func (d *Data) Init(sampleRate float32) {
	timer := dsp.NewTimer()
	d.setSampleRate(sampleRate)
	if d.feed.Path() == "" {
		d.feed.SetSource(feed.DefaultData)
	}
	d.log("Init in %.2fms.", timer.ElapsedMs())
}

// Reset leaves the feed where it is; the playback position is not an
// accumulator.
func (d *Data) Reset() {
	timer := dsp.NewTimer()
	d.runTime.Reset()
	d.rebaseline()
	d.snapshot.Publish(d.data())
	d.log("Reset in %.2fms.", timer.ElapsedMs())
}

func (d *Data) Run(buf mlem.AudioBuffer, ctl *Controls, transport mlem.Transport) {
	defer d.guard(buf)
	timer := d.begin(buf)
	if d.resetDue(ctl, transport) {
		d.rebaseline()
	}
	if path := ctl.ConsumeLoad(); path != "" {
		if err := d.feed.SetSourcePath(path); err != nil {
			d.log("Failed to load data: %v", err)
		} else {
			d.log("Loaded %v, %d bytes.", path, d.feed.Len())
		}
	}
	d.readMode = ctl.ReadMode()
	d.synthesize(buf, ctl.Mute.Load(), ctl.Mono.Load())
	if err := d.feed.TakeError(); err != nil {
		d.fail("Failed to read data", err)
	}
	d.measure(buf)
	d.finish(timer)
	d.snapshot.Publish(d.data())
}

// synthesize fills buf from the feed. Muting happens after a sample has been
// taken, so the feed advances at the same pace whether muted or not.
func (d *Data) synthesize(buf mlem.AudioBuffer, mute, mono bool) {
	for i := range buf.Frames() {
		var v float32
		for ch, samples := range buf {
			if !mono || ch == 0 {
				v = d.next()
			}
			if mute {
				v = 0
			}
			samples[i] = v
		}
	}
}

func (d *Data) next() float32 {
	v := d.feed.NextSample()
	if v > 1 || v < -1 {
		d.clipped++
	}
	return dsp.Clip(v)
}

func (d *Data) data() RuntimeData {
	r := d.core.data()
	r.FeedPosition = d.feed.Position()
	r.FeedLength = d.feed.Len()
	r.ReadMode = d.readMode.ID()
	return r
}

func (d *Data) Close() error { return d.feed.Close() }
