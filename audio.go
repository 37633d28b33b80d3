package mlem

type (
	// AudioBuffer is a block of audio in planar layout, indexed as
	// buffer[channel][frame]. All channels are expected to have the same
	// length.
	AudioBuffer [][]float32

	// Transport is the playback state the host delivers alongside each block.
	Transport struct {
		Playing bool
	}

	AudioSink interface {
		WriteAudio(buffer AudioBuffer) error
		Close() error
	}

	AudioContext interface {
		Output() AudioSink
		Close() error
	}
)

// MakeAudioBuffer allocates a zeroed buffer with the given shape.
func MakeAudioBuffer(channels, frames int) AudioBuffer {
	buf := make(AudioBuffer, channels)
	for i := range buf {
		buf[i] = make([]float32, frames)
	}
	return buf
}

// Channels returns the number of channels in the buffer.
func (b AudioBuffer) Channels() int { return len(b) }

// Frames returns the number of frames in the first channel, or 0 if the
// buffer has no channels.
func (b AudioBuffer) Frames() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Clear writes silence to every channel.
func (b AudioBuffer) Clear() {
	for _, ch := range b {
		clear(ch)
	}
}

// Resize returns a buffer with the given shape, reusing the memory of b where
// the capacity allows. Newly exposed samples are not guaranteed to be zero.
func (b AudioBuffer) Resize(channels, frames int) AudioBuffer {
	if cap(b) < channels {
		b = append(b[:cap(b)], make(AudioBuffer, channels-cap(b))...)
	}
	b = b[:channels]
	for i := range b {
		if cap(b[i]) < frames {
			b[i] = make([]float32, frames)
		}
		b[i] = b[i][:frames]
	}
	return b
}

// Interleave appends the buffer to dst in interleaved order (frame by frame,
// channel by channel) and returns the extended slice.
func (b AudioBuffer) Interleave(dst []float32) []float32 {
	frames := b.Frames()
	for i := 0; i < frames; i++ {
		for _, ch := range b {
			dst = append(dst, ch[i])
		}
	}
	return dst
}

// Deinterleave fills b from interleaved samples, frame by frame. Any frames of
// b not covered by src are left untouched; the number of frames written is
// returned.
func (b AudioBuffer) Deinterleave(src []float32) int {
	channels := len(b)
	if channels == 0 {
		return 0
	}
	frames := min(len(src)/channels, b.Frames())
	for i := 0; i < frames; i++ {
		for c, ch := range b {
			ch[i] = src[i*channels+c]
		}
	}
	return frames
}
