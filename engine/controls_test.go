package engine_test

import (
	"sync"
	"testing"

	"github.com/mlemrecords/mlem/engine"
)

func TestReadModeIDs(t *testing.T) {
	for _, m := range []engine.ReadMode{engine.ReadBit8, engine.ReadBit16, engine.ReadBit32} {
		got, err := engine.ParseReadMode(m.ID())
		if err != nil || got != m {
			t.Errorf("ParseReadMode(%q) = %v, %v; want %v", m.ID(), got, err, m)
		}
	}
	if engine.ReadBit32.ID() != "bit32" || engine.ReadBit32.String() != "32-bit" {
		t.Errorf("ReadBit32 is %q / %q", engine.ReadBit32.ID(), engine.ReadBit32.String())
	}
	if _, err := engine.ParseReadMode("bit24"); err == nil {
		t.Errorf("ParseReadMode accepted bit24")
	}
}

func TestOneShotCommands(t *testing.T) {
	ctl := engine.NewControls()
	if ctl.ConsumeReset() || ctl.ConsumeLoad() != "" {
		t.Fatalf("fresh controls have pending commands")
	}
	ctl.RequestLoad("a.bin")
	ctl.RequestLoad("b.bin")
	if got := ctl.ConsumeLoad(); got != "b.bin" {
		t.Fatalf("ConsumeLoad() = %q, want the latest request b.bin", got)
	}
	if got := ctl.ConsumeLoad(); got != "" {
		t.Fatalf("load request consumed twice, second time got %q", got)
	}
}

func TestConcurrentResetRequestsAreConsumedOnce(t *testing.T) {
	ctl := engine.NewControls()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctl.RequestReset()
		}()
	}
	wg.Wait()
	if !ctl.ConsumeReset() {
		t.Fatalf("reset requests were lost")
	}
	if ctl.ConsumeReset() {
		t.Fatalf("reset requests did not collapse into one")
	}
}
