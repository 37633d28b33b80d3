// Package config reads the preferences shared by the host tool and the
// plugins. Defaults are embedded; a mlem.yml in the user's config directory
// overrides them key by key.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mlemrecords/mlem/engine"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type (
	Config struct {
		Runtime  RuntimeConfig
		Host     HostConfig
		Log      LogConfig
		YmlError error `yaml:"-"`
	}

	RuntimeConfig struct {
		Variant     string
		ResetOnPlay bool
		Mute        bool
		Mono        bool
		// Clip is left unset to get the default of the build.
		Clip     *bool  `yaml:",omitempty"`
		ReadMode string
		DataPath string `yaml:",omitempty"`
	}

	HostConfig struct {
		SampleRate     int
		BlockSize      int
		Channels       int
		Blocks         int
		StatusInterval time.Duration
	}

	LogConfig struct {
		Level string
		File  string `yaml:",omitempty"`
	}
)

const Filename = "mlem.yml"

//go:embed mlem.yml
var defaultConfigYaml []byte

func Default() Config {
	var config Config
	err := yaml.UnmarshalStrict(defaultConfigYaml, &config)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return config
}

// Dir returns the directory holding the user's config and log files.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "mlem"), nil
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	dir, err := Dir()
	if err != nil {
		return false, err
	}
	return ReadConfigYml(filepath.Join(dir, filename), target)
}

// ReadConfigYml overlays the yaml at path onto target. exists is false if the
// file could not be read at all.
func ReadConfigYml(path string, target interface{}) (exists bool, err error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return true, yaml.UnmarshalStrict(bytes, target)
}

// Make returns the defaults overridden by the user's config file, if there is
// one. A broken user file is reported in YmlError rather than failing.
func Make() Config {
	config := Default()
	exists, err := ReadCustomConfigYml(Filename, &config)
	if exists {
		config.YmlError = err
	}
	return config
}

func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(engine.Variants, c.Runtime.Variant) {
		errs = append(errs, fmt.Errorf("runtime.variant %q is not one of %v", c.Runtime.Variant, engine.Variants))
	}
	if _, err := engine.ParseReadMode(c.Runtime.ReadMode); err != nil {
		errs = append(errs, fmt.Errorf("runtime.readmode: %w", err))
	}
	if c.Host.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("host.samplerate must be positive, got %d", c.Host.SampleRate))
	}
	if c.Host.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("host.blocksize must be positive, got %d", c.Host.BlockSize))
	}
	if c.Host.Channels <= 0 {
		errs = append(errs, fmt.Errorf("host.channels must be positive, got %d", c.Host.Channels))
	}
	if c.Host.Blocks < 0 {
		errs = append(errs, fmt.Errorf("host.blocks cannot be negative, got %d", c.Host.Blocks))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

func (c Config) LogLevel() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.Log.Level)
}

// Apply copies the runtime settings into ctl. The data path, if any, is
// requested as a load.
func (c Config) Apply(ctl *engine.Controls) error {
	mode, err := engine.ParseReadMode(c.Runtime.ReadMode)
	if err != nil {
		return err
	}
	ctl.SetReadMode(mode)
	ctl.ResetOnPlay.Store(c.Runtime.ResetOnPlay)
	ctl.Mute.Store(c.Runtime.Mute)
	ctl.Mono.Store(c.Runtime.Mono)
	if c.Runtime.Clip != nil {
		ctl.Clip.Store(*c.Runtime.Clip)
	}
	if c.Runtime.DataPath != "" {
		ctl.RequestLoad(c.Runtime.DataPath)
	}
	return nil
}
