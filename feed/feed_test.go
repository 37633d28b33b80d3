package feed_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mlemrecords/mlem/feed"
)

func writeFile(t *testing.T, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, contents, 0644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}
	return path
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/251)
	}
	return b
}

func TestSampleMapping(t *testing.T) {
	tests := []struct {
		in   byte
		want float32
	}{
		{0, -0.5},
		{255, 1.5},
		{51, float32(51)/255*2 - 0.5},
	}
	for _, tt := range tests {
		if got := feed.Sample(tt.in); got != tt.want {
			t.Errorf("Sample(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWrapServesEveryByteOnce(t *testing.T) {
	src := []byte{0, 10, 20, 255, 128}
	f := feed.New()
	f.SetSource(src)
	for round := 0; round < 3; round++ {
		for i, b := range src {
			if got, want := f.NextSample(), feed.Sample(b); got != want {
				t.Fatalf("round %v, sample %v: got %v, want %v", round, i, got, want)
			}
		}
		if f.Position() != 0 {
			t.Fatalf("cursor after %v samples = %v, want 0", len(src), f.Position())
		}
	}
}

func TestSetSourceTruncates(t *testing.T) {
	f := feed.New()
	f.SetSource(make([]byte, feed.MaxDataSize+10))
	if f.Len() != feed.MaxDataSize {
		t.Fatalf("Len() = %v, want %v", f.Len(), feed.MaxDataSize)
	}
}

func TestEmptyFeedIsSilent(t *testing.T) {
	f := feed.New()
	if got := f.NextSample(); got != 0 {
		t.Fatalf("empty feed produced %v", got)
	}
}

func TestDefaultData(t *testing.T) {
	if len(feed.DefaultData) == 0 {
		t.Fatalf("embedded default data is empty")
	}
	f := feed.New()
	f.SetSource(feed.DefaultData)
	if f.Len() != len(feed.DefaultData) {
		t.Fatalf("Len() = %v, want %v", f.Len(), len(feed.DefaultData))
	}
}

func TestSetSourcePathSmallFile(t *testing.T) {
	contents := []byte{1, 2, 3, 4}
	path := writeFile(t, contents)
	f := feed.New()
	defer f.Close()
	f.SetSource([]byte{200, 200})
	if err := f.SetSourcePath(path); err != nil {
		t.Fatalf("SetSourcePath failed: %v", err)
	}
	if f.Len() != len(contents) || f.FileOffset() != 0 || f.Path() != path {
		t.Fatalf("after load: Len %v, FileOffset %v, Path %q", f.Len(), f.FileOffset(), f.Path())
	}
	for round := 0; round < 2; round++ {
		for _, b := range contents {
			if got, want := f.NextSample(), feed.Sample(b); got != want {
				t.Fatalf("round %v: got %v, want %v", round, got, want)
			}
		}
	}
	if err := f.TakeError(); err != nil {
		t.Fatalf("unexpected refill error: %v", err)
	}
}

func TestFileIsReadAsCircularStream(t *testing.T) {
	size := feed.MaxDataSize + 100
	contents := pattern(size)
	path := writeFile(t, contents)
	f := feed.New()
	defer f.Close()
	if err := f.SetSourcePath(path); err != nil {
		t.Fatalf("SetSourcePath failed: %v", err)
	}
	if got, want := f.FileOffset(), int64(feed.MaxDataSize); got != want {
		t.Fatalf("offset after first window = %v, want %v", got, want)
	}
	for i := 0; i < feed.MaxDataSize; i++ {
		if got, want := f.NextSample(), feed.Sample(contents[i]); got != want {
			t.Fatalf("first window, byte %v: got %v, want %v", i, got, want)
		}
	}
	// second window: the last 100 bytes of the file, then from the start
	if got, want := f.FileOffset(), int64(feed.MaxDataSize-100); got != want {
		t.Fatalf("offset after second window = %v, want %v", got, want)
	}
	for i := 0; i < 200; i++ {
		want := feed.Sample(contents[(feed.MaxDataSize+i)%size])
		if got := f.NextSample(); got != want {
			t.Fatalf("second window, byte %v: got %v, want %v", i, got, want)
		}
	}
}

func TestFailedLoadKeepsPreviousSource(t *testing.T) {
	f := feed.New()
	f.SetSource([]byte{10, 20, 30})
	f.NextSample()
	err := f.SetSourcePath(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("loading a missing file: error = %v, want os.ErrNotExist", err)
	}
	err = f.SetSourcePath(writeFile(t, nil))
	if !errors.Is(err, feed.ErrEmptyFile) {
		t.Fatalf("loading an empty file: error = %v, want ErrEmptyFile", err)
	}
	if f.Len() != 3 || f.Position() != 1 {
		t.Fatalf("failed loads changed the feed: Len %v, Position %v", f.Len(), f.Position())
	}
	if got, want := f.NextSample(), feed.Sample(20); got != want {
		t.Fatalf("next sample after failed loads = %v, want %v", got, want)
	}
}

func TestRefillFailureServesStaleWindow(t *testing.T) {
	contents := []byte{5, 6, 7}
	path := writeFile(t, contents)
	f := feed.New()
	defer f.Close()
	if err := f.SetSourcePath(path); err != nil {
		t.Fatalf("SetSourcePath failed: %v", err)
	}
	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("could not truncate fixture: %v", err)
	}
	for round := 0; round < 2; round++ {
		for _, b := range contents {
			if got, want := f.NextSample(), feed.Sample(b); got != want {
				t.Fatalf("round %v: got %v, want %v", round, got, want)
			}
		}
	}
	if err := f.TakeError(); !errors.Is(err, feed.ErrEmptyFile) {
		t.Fatalf("refill error = %v, want ErrEmptyFile", err)
	}
	if err := f.TakeError(); err != nil {
		t.Fatalf("TakeError should clear the error, got %v", err)
	}
}

func TestReloadRestartsAtFileStart(t *testing.T) {
	size := feed.MaxDataSize + 100
	contents := pattern(size)
	path := writeFile(t, contents)
	f := feed.New()
	defer f.Close()
	if err := f.SetSourcePath(path); err != nil {
		t.Fatalf("SetSourcePath failed: %v", err)
	}
	for range feed.MaxDataSize + 10 {
		f.NextSample()
	}
	if got, want := f.FileOffset(), int64(feed.MaxDataSize-100); got != want {
		t.Fatalf("offset before reload = %v, want %v", got, want)
	}
	if err := f.SetSourcePath(path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got, want := f.FileOffset(), int64(feed.MaxDataSize); got != want {
		t.Fatalf("offset after reload = %v, want %v", got, want)
	}
	for i := range 10 {
		if got, want := f.NextSample(), feed.Sample(contents[i]); got != want {
			t.Fatalf("byte %v after reload: got %v, want %v", i, got, want)
		}
	}
}
