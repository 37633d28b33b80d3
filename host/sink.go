package host

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mlemrecords/mlem"
)

// WavSink writes blocks to a 16-bit PCM wav file.
type WavSink struct {
	file    *os.File
	encoder *wav.Encoder
	pcm     *audio.IntBuffer
}

const wavBitDepth = 16

func CreateWav(path string, sampleRate, channels int) (*WavSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create %v: %w", path, err)
	}
	return &WavSink{
		file:    f,
		encoder: wav.NewEncoder(f, sampleRate, wavBitDepth, channels, 1),
		pcm: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

func (w *WavSink) WriteAudio(buf mlem.AudioBuffer) error {
	if buf.Channels() != w.pcm.Format.NumChannels {
		return fmt.Errorf("cannot write %d channels to a %d channel wav", buf.Channels(), w.pcm.Format.NumChannels)
	}
	w.pcm.Data = w.pcm.Data[:0]
	for i := range buf.Frames() {
		for _, ch := range buf {
			v := min(max(ch[i], -1), 1)
			w.pcm.Data = append(w.pcm.Data, int(math.Round(float64(v)*math.MaxInt16)))
		}
	}
	if err := w.encoder.Write(w.pcm); err != nil {
		return fmt.Errorf("could not write wav: %w", err)
	}
	return nil
}

// Close finishes the wav header and closes the file.
func (w *WavSink) Close() error {
	if err := w.encoder.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("could not finish wav: %w", err)
	}
	return w.file.Close()
}
