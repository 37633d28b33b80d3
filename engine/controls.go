package engine

import (
	"fmt"

	"go.uber.org/atomic"
)

// ReadMode selects how the data runtime interprets its byte stream. Only the
// id is carried for now; samples are always decoded one byte at a time.
type ReadMode int32

const (
	ReadBit8 ReadMode = iota
	ReadBit16
	ReadBit32
)

var readModeIDs = [...]string{"bit8", "bit16", "bit32"}

// ID returns the stable identifier used in configuration files and reports.
func (m ReadMode) ID() string {
	if m < 0 || int(m) >= len(readModeIDs) {
		return fmt.Sprintf("mode%d", int32(m))
	}
	return readModeIDs[m]
}

func (m ReadMode) String() string {
	switch m {
	case ReadBit8:
		return "8-bit"
	case ReadBit16:
		return "16-bit"
	case ReadBit32:
		return "32-bit"
	}
	return m.ID()
}

// ParseReadMode is the inverse of ReadMode.ID.
func ParseReadMode(id string) (ReadMode, error) {
	for i, s := range readModeIDs {
		if s == id {
			return ReadMode(i), nil
		}
	}
	return ReadBit8, fmt.Errorf("unknown read mode %q, expected one of %v", id, readModeIDs[:])
}

// Controls is the state written by the UI thread and read by the audio
// thread. The toggles are plain atomics; the runtime never writes them.
// Reset and load requests are one-shot: the runtime consumes them with an
// atomic swap, so two requests before the next Run collapse into one.
//
// Controls must not be copied after first use.
type Controls struct {
	Mute        atomic.Bool
	Mono        atomic.Bool
	ResetOnPlay atomic.Bool
	Clip        atomic.Bool

	readMode     atomic.Int32
	resetRequest atomic.Bool
	loadPath     atomic.String
}

// NewControls returns controls with the defaults of the current build: debug
// builds clip their output.
func NewControls() *Controls {
	c := &Controls{}
	c.Clip.Store(debugBuild)
	return c
}

func (c *Controls) SetReadMode(m ReadMode) { c.readMode.Store(int32(m)) }
func (c *Controls) ReadMode() ReadMode     { return ReadMode(c.readMode.Load()) }

// RequestReset asks the runtime to re-baseline its meters on the next Run.
func (c *Controls) RequestReset() { c.resetRequest.Store(true) }

// ConsumeReset reports whether a reset was requested since the last call.
func (c *Controls) ConsumeReset() bool { return c.resetRequest.Swap(false) }

// RequestLoad asks the data runtime to switch its source to path. A later
// request before the next Run replaces an earlier one.
func (c *Controls) RequestLoad(path string) { c.loadPath.Store(path) }

// ConsumeLoad returns the pending path, or "" if there is none.
func (c *Controls) ConsumeLoad() string { return c.loadPath.Swap("") }
