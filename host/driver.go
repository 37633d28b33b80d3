// Package host drives a runtime outside of a plugin host: it pulls blocks
// from a Source, runs them through the runtime and pushes the result to any
// number of sinks, like a DAW would.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mlemrecords/mlem"
	"github.com/mlemrecords/mlem/engine"
	"github.com/rs/zerolog"
)

type Driver struct {
	Runtime   engine.Runtime
	Controls  *engine.Controls
	Source    Source
	Sinks     []mlem.AudioSink
	Channels  int
	BlockSize int
	Logger    zerolog.Logger

	// Playing is the transport state reported to the runtime.
	Playing bool

	buf mlem.AudioBuffer
}

// Run processes blocks until ctx is done, the source ends or, if blocks is
// positive, that many blocks have been processed. It returns the number of
// blocks processed.
func (d *Driver) Run(ctx context.Context, blocks int) (int, error) {
	d.buf = d.buf.Resize(d.Channels, d.BlockSize)
	for n := 0; blocks <= 0 || n < blocks; n++ {
		select {
		case <-ctx.Done():
			return n, nil
		default:
		}
		if err := d.Step(); err != nil {
			if errors.Is(err, io.EOF) {
				d.Logger.Debug().Int("blocks", n).Msg("source ended")
				return n, nil
			}
			return n, err
		}
	}
	return blocks, nil
}

// Step processes one block.
func (d *Driver) Step() error {
	d.buf = d.buf.Resize(d.Channels, d.BlockSize)
	if _, err := d.Source.Read(d.buf); err != nil {
		return err
	}
	d.Runtime.Run(d.buf, d.Controls, mlem.Transport{Playing: d.Playing})
	for _, sink := range d.Sinks {
		if err := sink.WriteAudio(d.buf); err != nil {
			return fmt.Errorf("could not write block: %w", err)
		}
	}
	return nil
}
