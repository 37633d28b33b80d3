// Package loudness implements an EBU R128 / ITU-R BS.1770 loudness integrator
// for planar audio with any number of channels.
//
// according to https://tech.ebu.ch/docs/tech/tech3341.pdf and
// https://tech.ebu.ch/docs/tech/tech3342.pdf we have two sliding windows:
// momentary loudness = last 400 ms, short-term loudness = last 3 s. Every
// 100 ms, we collect one power measurement of the K-weighted signal. Then:
//
//	integrated loudness = the 400 ms blocks are gated (absolute -70 LUFS,
//	relative -10 LU), and the average power of the gated blocks is used
//	loudness range = the 3 s blocks are gated (absolute -70 LUFS, relative
//	-20 LU), and the range is the distance between the 10th and 95th
//	percentiles of their loudness
//
// Blocks are not kept individually: each one lands in a 0.1 LU histogram bin
// between -70 and +30 LUFS, so memory stays constant however long the
// integrator runs.
package loudness

import (
	"errors"
	"fmt"
	"math"

	"github.com/mlemrecords/mlem"
	"github.com/viterin/vek/vek32"
)

type (
	// Integrator accumulates audio and reports its loudness. Its state cannot
	// be partially reset; to start over, create a new one.
	Integrator struct {
		channels   int
		sampleRate int
		weighting  weighting
		weights    []float32
		states     [][2]biquadState

		hop      int     // samples in one 100 ms hop
		hopFill  int     // samples accumulated into the current hop
		hopPower float64 // weighted sum of squares in the current hop
		hops     int     // completed hops

		powers          [2]mlem.RingBuffer[float32] // 0 = momentary, 1 = short-term
		blocks          [2]*histogram               // full window powers that passed the absolute gate
		integratedPower float64
		integratedDirty bool
		loudnessRange   float64
		rangeDirty      bool

		tmp []float32
	}

	// histogram bins block powers by loudness. Each bin keeps the number of
	// blocks and the sum of their powers.
	histogram struct {
		counts [histogramBins]int64
		powers [histogramBins]float64
		count  int64
		power  float64
	}

	// Stats are the four loudness figures, in LUFS (Range in LU).
	Stats struct {
		Global    float64 `yaml:"global"`
		Momentary float64 `yaml:"momentary"`
		ShortTerm float64 `yaml:"shortterm"`
		Range     float64 `yaml:"range"`
	}

	biquadState struct {
		x1, x2, y1, y2 float32
	}

	biquadCoeff struct {
		b0, b1, b2, a1, a2 float32
	}

	weighting struct {
		coeffs [2]biquadCoeff
		offset float32
	}
)

const (
	momentaryHops = 4  // 400 ms
	shortTermHops = 30 // 3 s

	histogramBins  = 1000 // -70 ... +30 LUFS
	histogramStep  = 0.1  // LU per bin
	histogramFloor = absoluteGate

	absoluteGate        = -70
	integratedGateLU    = -10
	rangeGateLU         = -20
	rangeLowPercentile  = 0.10
	rangeHighPercentile = 0.95

	kWeightingOffset = -0.691
)

var (
	ErrInvalidChannels   = errors.New("channel count must be positive")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrChannelIndex      = errors.New("channel index out of range")
	ErrFrameCount        = errors.New("channels have different frame counts")
)

// Baseline returns the figures of an integrator that has not heard anything
// above the absolute gate.
func Baseline() Stats {
	return Stats{
		Global:    math.Inf(-1),
		Momentary: math.Inf(-1),
		ShortTerm: math.Inf(-1),
		Range:     0,
	}
}

// New creates an integrator for the given channel count and sample rate.
func New(channels, sampleRate int) (*Integrator, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("loudness.New(%d, %d): %w", channels, sampleRate, ErrInvalidChannels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("loudness.New(%d, %d): %w", channels, sampleRate, ErrInvalidSampleRate)
	}
	hop := sampleRate / 10
	if hop == 0 {
		hop = 1
	}
	i := &Integrator{
		channels:   channels,
		sampleRate: sampleRate,
		weighting:  kWeighting(sampleRate),
		weights:    make([]float32, channels),
		states:     make([][2]biquadState, channels),
		hop:        hop,
		powers: [2]mlem.RingBuffer[float32]{
			mlem.MakeRingBuffer[float32](momentaryHops),
			mlem.MakeRingBuffer[float32](shortTermHops),
		},
		blocks: [2]*histogram{new(histogram), new(histogram)},
	}
	for ch := range i.weights {
		i.weights[ch] = channelWeight(ch, channels)
	}
	return i, nil
}

func (i *Integrator) Channels() int   { return i.channels }
func (i *Integrator) SampleRate() int { return i.sampleRate }

// AddFrames feeds one block of planar audio: planar[channel][frame]. The
// block must have exactly one slice per channel, all of the same length. The
// input is not modified.
func (i *Integrator) AddFrames(planar [][]float32) error {
	if len(planar) != i.channels {
		return fmt.Errorf("block has %d channels, integrator has %d: %w", len(planar), i.channels, ErrChannelIndex)
	}
	frames := len(planar[0])
	for ch := range planar {
		if len(planar[ch]) != frames {
			return fmt.Errorf("channel %d has %d frames, channel 0 has %d: %w", ch, len(planar[ch]), frames, ErrFrameCount)
		}
	}
	setSliceLength(&i.tmp, min(frames, i.hop))
	for pos := 0; pos < frames; {
		n := min(frames-pos, i.hop-i.hopFill)
		for ch := range planar {
			x := i.tmp[:n]
			copy(x, planar[ch][pos:pos+n])
			// filter the signal with the weighting filter
			for k := range i.weighting.coeffs {
				i.states[ch][k].Filter(x, i.weighting.coeffs[k])
			}
			i.hopPower += float64(i.weights[ch]) * float64(vek32.Dot(x, x))
		}
		i.hopFill += n
		pos += n
		if i.hopFill == i.hop {
			i.pushHop(float32(i.hopPower / float64(i.hop)))
			i.hopFill = 0
			i.hopPower = 0
		}
	}
	return nil
}

// these are sliding windows of 4 and 30 power measurements (400 ms and 3 s aka
// momentary and short-term windows)
func (i *Integrator) pushHop(power float32) {
	i.hops++
	for w, need := range [2]int{momentaryHops, shortTermHops} {
		i.powers[w].WriteWrapSingle(power)
		if i.hops < need {
			continue
		}
		block := float64(vek32.Mean(i.powers[w].Buffer))
		if power2loudness(float32(block), i.weighting.offset) <= absoluteGate {
			continue
		}
		i.blocks[w].add(block, i.weighting.offset)
	}
	i.integratedDirty = true
	i.rangeDirty = true
}

// Momentary returns the loudness of the last 400 ms, in LUFS.
func (i *Integrator) Momentary() float64 {
	return power2loudness(vek32.Mean(i.powers[0].Buffer), i.weighting.offset)
}

// ShortTerm returns the loudness of the last 3 s, in LUFS.
func (i *Integrator) ShortTerm() float64 {
	return power2loudness(vek32.Mean(i.powers[1].Buffer), i.weighting.offset)
}

// Global returns the gated integrated loudness since creation, in LUFS. It is
// -Inf until at least one block passes the gates.
func (i *Integrator) Global() float64 {
	if i.integratedDirty {
		i.integratedPower = 0
		h := i.blocks[0]
		if from, ok := h.relativeGate(integratedGateLU, i.weighting.offset); ok {
			var count int64
			var power float64
			for b := from; b < histogramBins; b++ {
				count += h.counts[b]
				power += h.powers[b]
			}
			if count > 0 {
				i.integratedPower = power / float64(count)
			}
		}
		i.integratedDirty = false
	}
	return 10*math.Log10(i.integratedPower) + float64(i.weighting.offset)
}

// Range returns the loudness range since creation, in LU.
func (i *Integrator) Range() float64 {
	if i.rangeDirty {
		i.loudnessRange = 0
		h := i.blocks[1]
		if from, ok := h.relativeGate(rangeGateLU, i.weighting.offset); ok {
			var n int64
			for b := from; b < histogramBins; b++ {
				n += h.counts[b]
			}
			if n > 1 {
				lo := h.nth(from, percentileIndex(n, rangeLowPercentile))
				hi := h.nth(from, percentileIndex(n, rangeHighPercentile))
				i.loudnessRange = 10 * math.Log10(hi/lo)
			}
		}
		i.rangeDirty = false
	}
	return i.loudnessRange
}

// Stats returns all four figures at once.
func (i *Integrator) Stats() Stats {
	return Stats{
		Global:    i.Global(),
		Momentary: i.Momentary(),
		ShortTerm: i.ShortTerm(),
		Range:     i.Range(),
	}
}

func (h *histogram) add(power float64, offset float32) {
	b := binOf(power2loudness(float32(power), offset))
	h.counts[b]++
	h.powers[b] += power
	h.count++
	h.power += power
}

// relativeGate returns the first bin at or above relativeLU below the mean
// power of all the blocks. Blocks in that bin count as passing the gate.
func (h *histogram) relativeGate(relativeLU float64, offset float32) (int, bool) {
	if h.count == 0 {
		return 0, false
	}
	threshold := h.power / float64(h.count) * math.Pow(10, relativeLU/10)
	return binOf(power2loudness(float32(threshold), offset)), true
}

// nth returns the mean power of the bin holding the k:th block (0-based) in
// ascending order, counting from bin from.
func (h *histogram) nth(from int, k int64) float64 {
	for b := from; b < histogramBins; b++ {
		if k < h.counts[b] {
			return h.powers[b] / float64(h.counts[b])
		}
		k -= h.counts[b]
	}
	return 0
}

func binOf(loudness float64) int {
	b := int(math.Floor((loudness - histogramFloor) / histogramStep))
	return max(0, min(b, histogramBins-1))
}

func percentileIndex(n int64, p float64) int64 {
	return int64(float64(n-1)*p + 0.5)
}

func power2loudness(power, offset float32) float64 {
	return 10*math.Log10(float64(power)) + float64(offset)
}

// kWeighting derives the two K-weighting stages of ITU-R BS.1770 for the
// given sample rate: a high shelf modelling the head, followed by the RLB high
// pass. offset is to make up for the fact that K-weighting has slightly above
// unity gain at 1 kHz.
func kWeighting(sampleRate int) weighting {
	fs := float64(sampleRate)

	f0 := 1681.974450955533
	g := 3.999843853973347
	q := 0.7071752369554196
	k := math.Tan(math.Pi * f0 / fs)
	vh := math.Pow(10, g/20)
	vb := math.Pow(vh, 0.4996667741545416)
	a0 := 1 + k/q + k*k
	pre := biquadCoeff{
		b0: float32((vh + vb*k/q + k*k) / a0),
		b1: float32(2 * (k*k - vh) / a0),
		b2: float32((vh - vb*k/q + k*k) / a0),
		a1: float32(2 * (k*k - 1) / a0),
		a2: float32((1 - k/q + k*k) / a0),
	}

	f0 = 38.13547087602444
	q = 0.5003270373238773
	k = math.Tan(math.Pi * f0 / fs)
	a0 = 1 + k/q + k*k
	rlb := biquadCoeff{
		b0: float32(1 / a0),
		b1: float32(-2 / a0),
		b2: float32(1 / a0),
		a1: float32(2 * (k*k - 1) / a0),
		a2: float32((1 - k/q + k*k) / a0),
	}
	return weighting{coeffs: [2]biquadCoeff{pre, rlb}, offset: kWeightingOffset}
}

// For five or more channels, the fourth and fifth (Ls, Rs in the usual layout)
// are weighted ~+1.5 dB. Everything else counts once.
func channelWeight(ch, channels int) float32 {
	if channels > 4 && (ch == 3 || ch == 4) {
		return 1.41
	}
	return 1
}

func (state *biquadState) Filter(buffer []float32, coeff biquadCoeff) {
	s := *state
	for i := 0; i < len(buffer); i++ {
		x := buffer[i]
		y := coeff.b0*x + coeff.b1*s.x1 + coeff.b2*s.x2 - coeff.a1*s.y1 - coeff.a2*s.y2
		s.x2, s.x1 = s.x1, x
		s.y2, s.y1 = s.y1, y
		buffer[i] = y
	}
	*state = s
}

func setSliceLength[T any](slice *[]T, length int) {
	if len(*slice) < length {
		*slice = append(*slice, make([]T, length-len(*slice))...)
	}
	*slice = (*slice)[:length]
}
