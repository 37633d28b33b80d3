package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mlemrecords/mlem/config"
	"github.com/mlemrecords/mlem/engine"
	"github.com/rs/zerolog"
)

func TestDefaultIsValid(t *testing.T) {
	c := config.Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if c.Host.StatusInterval != time.Second {
		t.Errorf("status interval = %v, want 1s", c.Host.StatusInterval)
	}
	if c.Runtime.Clip != nil {
		t.Errorf("default config should leave clipping to the build")
	}
	if level, _ := c.LogLevel(); level != zerolog.InfoLevel {
		t.Errorf("log level = %v, want info", level)
	}
}

func TestOverrideKeepsUnsetKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.Filename)
	yml := "runtime:\n  variant: data\n  clip: true\n  datapath: /tmp/x.bin\nhost:\n  blocksize: 64\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}
	c := config.Default()
	exists, err := config.ReadConfigYml(path, &c)
	if !exists || err != nil {
		t.Fatalf("ReadConfigYml = %v, %v", exists, err)
	}
	if c.Runtime.Variant != "data" || c.Host.BlockSize != 64 {
		t.Errorf("overridden keys not applied: %+v", c)
	}
	if c.Host.SampleRate != 48000 || c.Runtime.ReadMode != "bit8" {
		t.Errorf("unset keys lost their defaults: %+v", c)
	}
	ctl := engine.NewControls()
	if err := c.Apply(ctl); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !ctl.Clip.Load() || ctl.ConsumeLoad() != "/tmp/x.bin" {
		t.Errorf("Apply did not carry clip and data path into the controls")
	}
}

func TestBrokenOverrideIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.Filename)
	if err := os.WriteFile(path, []byte("runtime:\n  varaint: data\n"), 0644); err != nil {
		t.Fatalf("could not write fixture: %v", err)
	}
	c := config.Default()
	exists, err := config.ReadConfigYml(path, &c)
	if !exists || err == nil {
		t.Fatalf("unknown key accepted: exists %v, err %v", exists, err)
	}
	if exists, _ := config.ReadConfigYml(filepath.Join(t.TempDir(), "none.yml"), &c); exists {
		t.Fatalf("missing file reported as existing")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	c := config.Default()
	c.Runtime.Variant = "synth"
	c.Runtime.ReadMode = "bit24"
	c.Host.SampleRate = 0
	c.Log.Level = "loud"
	err := c.Validate()
	if err == nil {
		t.Fatalf("invalid config accepted")
	}
	if n := len(err.(interface{ Unwrap() []error }).Unwrap()); n != 4 {
		t.Fatalf("Validate reported %d problems, want 4: %v", n, err)
	}
}
