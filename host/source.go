package host

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mlemrecords/mlem"
)

type (
	// Source fills the input side of a block. It returns the number of frames
	// written; frames past that are silence. io.EOF is returned once the
	// source has nothing more to give.
	Source interface {
		Read(buf mlem.AudioBuffer) (int, error)
	}

	// Silence never ends.
	Silence struct{}

	// Tone is an endless sine wave, identical on every channel.
	Tone struct {
		Frequency  float64
		Amplitude  float64
		SampleRate float64
		phase      float64
	}

	// WavSource streams a wav file, converting it to floats in [-1, 1].
	// Channels beyond those of the file are copies of its last channel.
	WavSource struct {
		file     *os.File
		decoder  *wav.Decoder
		pcm      *audio.IntBuffer
		channels int
		scale    float32
	}
)

func (Silence) Read(buf mlem.AudioBuffer) (int, error) {
	buf.Clear()
	return buf.Frames(), nil
}

func (t *Tone) Read(buf mlem.AudioBuffer) (int, error) {
	step := 2 * math.Pi * t.Frequency / t.SampleRate
	for i := range buf.Frames() {
		v := float32(t.Amplitude * math.Sin(t.phase))
		for _, ch := range buf {
			ch[i] = v
		}
		t.phase = math.Mod(t.phase+step, 2*math.Pi)
	}
	return buf.Frames(), nil
}

func OpenWav(path string) (*WavSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %v: %w", path, err)
	}
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not find PCM data in %v: %w", path, err)
	}
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		f.Close()
		return nil, fmt.Errorf("unknown bit depth for WAV file: %s", path)
	}
	format := decoder.Format()
	return &WavSource{
		file:     f,
		decoder:  decoder,
		pcm:      &audio.IntBuffer{Format: format, SourceBitDepth: bitDepth},
		channels: format.NumChannels,
		scale:    float32(1 / math.Pow(2, float64(bitDepth-1))),
	}, nil
}

func (w *WavSource) SampleRate() int { return w.pcm.Format.SampleRate }
func (w *WavSource) Channels() int   { return w.channels }

func (w *WavSource) Read(buf mlem.AudioBuffer) (int, error) {
	frames := buf.Frames()
	if cap(w.pcm.Data) < frames*w.channels {
		w.pcm.Data = make([]int, frames*w.channels)
	}
	w.pcm.Data = w.pcm.Data[:frames*w.channels]
	n, err := w.decoder.PCMBuffer(w.pcm)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("could not decode wav: %w", err)
	}
	read := n / w.channels
	for i := range read {
		for c, ch := range buf {
			src := min(c, w.channels-1)
			ch[i] = float32(w.pcm.Data[i*w.channels+src]) * w.scale
		}
	}
	for _, ch := range buf {
		clear(ch[read:])
	}
	if read == 0 {
		return 0, io.EOF
	}
	return read, nil
}

func (w *WavSource) Close() error {
	return w.file.Close()
}
