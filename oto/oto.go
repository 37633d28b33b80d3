package oto

import (
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
	"github.com/mlemrecords/mlem"
)

type (
	// Context is the audio device. oto pulls audio from a reader; each Output
	// turns that into a push API by writing through a pipe, so WriteAudio
	// blocks until the device has room, which paces the caller.
	Context struct {
		ctx      *oto.Context
		channels int
	}

	Output struct {
		player      *oto.Player
		writer      *io.PipeWriter
		channels    int
		interleaved []float32
		bytes       []byte
	}
)

const otoBufferSize = 8192

var _ mlem.AudioContext = (*Context)(nil)

func NewContext(sampleRate, channels int) (*Context, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{ctx: ctx, channels: channels}, nil
}

func (c *Context) Output() mlem.AudioSink {
	reader, writer := io.Pipe()
	player := c.ctx.NewPlayer(reader)
	player.SetBufferSize(otoBufferSize)
	player.Play()
	return &Output{player: player, writer: writer, channels: c.channels}
}

// Close suspends the device; oto contexts cannot be destroyed.
func (c *Context) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (o *Output) WriteAudio(buffer mlem.AudioBuffer) error {
	if buffer.Channels() != o.channels {
		return fmt.Errorf("cannot play %d channels on a %d channel device", buffer.Channels(), o.channels)
	}
	// reuse the old capacity of the temporary buffers
	o.interleaved = buffer.Interleave(o.interleaved[:0])
	o.bytes = AppendFloat32LE(o.bytes[:0], o.interleaved)
	if _, err := o.writer.Write(o.bytes); err != nil {
		return fmt.Errorf("cannot write to player: %w", err)
	}
	return nil
}

// Close disposes of resources
func (o *Output) Close() error {
	o.writer.Close()
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
