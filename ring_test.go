package mlem_test

import (
	"slices"
	"testing"

	"github.com/mlemrecords/mlem"
)

func TestRingBufferNewestFirst(t *testing.T) {
	r := mlem.MakeRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		r.WriteWrapSingle(i)
	}
	got := slices.Collect(r.Newest)
	if want := []int{5, 4, 3}; !slices.Equal(got, want) {
		t.Fatalf("ring buffer contents: got %v, want %v", got, want)
	}
	if last, ok := r.Last(); !ok || last != 5 {
		t.Fatalf("Last() = %v, %v; want 5, true", last, ok)
	}
}

func TestRingBufferPartiallyFilled(t *testing.T) {
	r := mlem.MakeRingBuffer[string](4)
	r.WriteWrapSingle("a")
	r.WriteWrapSingle("b")
	got := slices.Collect(r.Newest)
	if want := []string{"b", "a"}; !slices.Equal(got, want) {
		t.Fatalf("ring buffer contents: got %v, want %v", got, want)
	}
	r.Reset()
	if _, ok := r.Last(); ok {
		t.Fatalf("Last() after Reset should report no values")
	}
	if r.Count != 0 {
		t.Fatalf("Count after Reset = %v, want 0", r.Count)
	}
}

func TestAudioBufferInterleave(t *testing.T) {
	b := mlem.AudioBuffer{{1, 2, 3}, {4, 5, 6}}
	got := b.Interleave(nil)
	if want := []float32{1, 4, 2, 5, 3, 6}; !slices.Equal(got, want) {
		t.Fatalf("Interleave: got %v, want %v", got, want)
	}
	c := mlem.MakeAudioBuffer(2, 3)
	if n := c.Deinterleave(got); n != 3 {
		t.Fatalf("Deinterleave wrote %v frames, want 3", n)
	}
	for ch := range b {
		if !slices.Equal(b[ch], c[ch]) {
			t.Fatalf("channel %v after round trip: got %v, want %v", ch, c[ch], b[ch])
		}
	}
}

func TestAudioBufferResize(t *testing.T) {
	b := mlem.MakeAudioBuffer(2, 16)
	b = b.Resize(1, 8)
	if b.Channels() != 1 || b.Frames() != 8 {
		t.Fatalf("Resize(1, 8) gave %v channels and %v frames", b.Channels(), b.Frames())
	}
	b = b.Resize(3, 32)
	if b.Channels() != 3 || b.Frames() != 32 {
		t.Fatalf("Resize(3, 32) gave %v channels and %v frames", b.Channels(), b.Frames())
	}
	for ch := range b {
		if len(b[ch]) != 32 {
			t.Fatalf("channel %v has %v frames, want 32", ch, len(b[ch]))
		}
	}
	var empty mlem.AudioBuffer
	if empty.Frames() != 0 {
		t.Fatalf("empty buffer should have 0 frames")
	}
}
