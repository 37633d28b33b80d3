// Package feed turns a stream of bytes into audio samples for the data plugin.
// The bytes come either from an in-memory source or from a file that is read
// one window at a time and treated as a circular stream.
package feed

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxDataSize is the size of the window held in memory.
const MaxDataSize = 1 << 20

//go:embed default_data
var DefaultData []byte

var ErrEmptyFile = errors.New("file is empty")

type (
	// Feed is a cursor over a window of bytes. It is not safe for concurrent
	// use; it belongs to the audio thread.
	Feed struct {
		active, spare *[MaxDataSize]byte
		dataLen       int
		dataPos       int

		file       *os.File
		path       string
		fileOffset int64

		err error // first refill error not yet taken
	}
)

// New allocates a feed with both windows up front; nothing else allocates
// afterwards.
func New() *Feed {
	return &Feed{
		active: new([MaxDataSize]byte),
		spare:  new([MaxDataSize]byte),
	}
}

// Sample maps a byte to an audio sample as byte/255*2 - 0.5. The result is not
// centred on zero: 0 maps to -0.5 and 255 to 1.5.
func Sample(b byte) float32 {
	return float32(b)/255*2 - 0.5
}

// SetSource installs bytes as the playback window, truncated to MaxDataSize,
// and forgets any file source.
func (f *Feed) SetSource(src []byte) {
	f.closeFile()
	f.dataLen = copy(f.active[:], src)
	f.dataPos = 0
}

// SetSourcePath opens path and loads the first window from it. On failure
// the previous source, window and position are left untouched.
func (f *Feed) SetSourcePath(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open %v: %w", path, err)
	}
	n, next, err := readWindow(file, 0, f.spare[:])
	if err != nil {
		file.Close()
		return fmt.Errorf("could not load %v: %w", path, err)
	}
	f.closeFile()
	f.file, f.path = file, path
	f.active, f.spare = f.spare, f.active
	f.dataLen = n
	f.dataPos = 0
	f.fileOffset = next
	return nil
}

// NextSample returns the sample at the cursor and advances it. When the
// cursor reaches the end of the window, the next window is read from the
// file (if there is one) and the cursor wraps to 0 whether or not the read
// succeeded. An empty feed produces silence.
func (f *Feed) NextSample() float32 {
	if f.dataLen == 0 {
		return 0
	}
	v := Sample(f.active[f.dataPos])
	f.dataPos++
	if f.dataPos >= f.dataLen {
		f.refill()
		f.dataPos = 0
	}
	return v
}

func (f *Feed) refill() {
	if f.file == nil {
		return
	}
	n, next, err := readWindow(f.file, f.fileOffset, f.spare[:])
	if err != nil {
		if f.err == nil {
			f.err = fmt.Errorf("could not refill from %v at offset %d: %w", f.path, f.fileOffset, err)
		}
		return
	}
	f.active, f.spare = f.spare, f.active
	f.dataLen = n
	f.fileOffset = next
}

// TakeError returns the first refill error since the last call, if any, and
// clears it.
func (f *Feed) TakeError() error {
	err := f.err
	f.err = nil
	return err
}

// Position returns the cursor within the current window.
func (f *Feed) Position() int { return f.dataPos }

// Len returns the number of valid bytes in the current window.
func (f *Feed) Len() int { return f.dataLen }

// FileOffset returns where in the file the next window starts.
func (f *Feed) FileOffset() int64 { return f.fileOffset }

// Path returns the file currently feeding the window, or "".
func (f *Feed) Path() string { return f.path }

func (f *Feed) Close() error {
	return f.closeFile()
}

func (f *Feed) closeFile() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file, f.path, f.fileOffset = nil, "", 0
	return err
}

// readWindow fills dst with up to len(dst) bytes of file starting at offset,
// wrapping around to the start of the file at its end. It returns the number
// of bytes read and the offset of the following window.
func readWindow(file *os.File, offset int64, dst []byte) (n int, next int64, err error) {
	info, err := file.Stat()
	if err != nil {
		return 0, 0, err
	}
	size := info.Size()
	if size == 0 {
		return 0, 0, ErrEmptyFile
	}
	offset %= size
	window := int(min(int64(len(dst)), size))
	first := int(min(int64(window), size-offset))
	if err := readFull(file, dst[:first], offset); err != nil {
		return 0, 0, err
	}
	if err := readFull(file, dst[first:window], 0); err != nil {
		return 0, 0, err
	}
	return window, (offset + int64(window)) % size, nil
}

func readFull(r io.ReaderAt, p []byte, offset int64) error {
	if len(p) == 0 {
		return nil
	}
	n, err := r.ReadAt(p, offset)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
