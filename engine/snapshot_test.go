package engine_test

import (
	"sync"
	"testing"

	"github.com/mlemrecords/mlem/engine"
)

func TestLoadPercent(t *testing.T) {
	tests := []struct {
		data engine.RuntimeData
		want float32
	}{
		{engine.RuntimeData{SampleRate: 48000, BufferSize: 480, RunMs: 2.5}, 25},
		{engine.RuntimeData{SampleRate: 48000, BufferSize: 480, RunMs: 2.59}, 25},
		{engine.RuntimeData{SampleRate: 44100, BufferSize: 441, RunMs: 20}, 200},
		{engine.RuntimeData{SampleRate: 0, BufferSize: 480, RunMs: 1}, 0},
		{engine.RuntimeData{SampleRate: 48000, BufferSize: 0, RunMs: 1}, 0},
	}
	for _, tt := range tests {
		if got := tt.data.LoadPercent(); got != tt.want {
			t.Errorf("LoadPercent(%+v) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func TestFormatActiveTime(t *testing.T) {
	tests := []struct {
		ms   float32
		want string
	}{
		{0, "0m0s"},
		{999, "0m0s"},
		{59999, "0m59s"},
		{60000, "1m0s"},
		{125000, "2m5s"},
		{-5, "0m0s"},
	}
	for _, tt := range tests {
		if got := engine.FormatActiveTime(tt.ms); got != tt.want {
			t.Errorf("FormatActiveTime(%v) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestSnapshotIsNeverTorn(t *testing.T) {
	var s engine.Snapshot
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			s.Publish(engine.RuntimeData{BufferSize: i, Channels: i, FeedPosition: i})
		}
	}()
	for range 10000 {
		d := s.Load()
		if d.BufferSize != d.Channels || d.Channels != d.FeedPosition {
			close(done)
			wg.Wait()
			t.Fatalf("torn snapshot: %+v", d)
		}
	}
	close(done)
	wg.Wait()
}
