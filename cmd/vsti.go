//go:build plugin

package cmd

import (
	"path/filepath"
	"time"

	"github.com/mlemrecords/mlem"
	"github.com/mlemrecords/mlem/config"
	"github.com/mlemrecords/mlem/console"
	"github.com/mlemrecords/mlem/engine"
	"github.com/mlemrecords/mlem/version"
	"github.com/rs/zerolog"
	"pipelined.dev/audio/vst2"
)

// Plugin describes one of the VST2 builds.
type Plugin struct {
	ID       int32
	Name     string
	Variant  string
	Category vst2.PluginCategory
	Inputs   int
	Outputs  int
}

const consoleInterval = 100 * time.Millisecond

// Register installs the plugin allocator. Call it from an init function of
// the plugin's main package.
func (p Plugin) Register() {
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		cfg := config.Make()
		if cfg.Log.File == "" {
			if dir, err := config.Dir(); err == nil {
				cfg.Log.File = filepath.Join(dir, "mlem-"+p.Variant+".log")
			}
		}
		logger, logCloser, err := NewLogger(cfg.Log, nil)
		if err != nil {
			logger = zerolog.Nop()
		}
		logger = logger.With().Str("component", p.Variant).Logger()
		if cfg.YmlError != nil {
			logger.Warn().Err(cfg.YmlError).Msg("could not read config, using defaults")
		}
		c := console.New(logger)
		done := make(chan struct{})
		go c.Pump(done, consoleInterval)
		sender := c.Sender()
		sender.Log("%s", version.Banner(p.Variant))

		runtime, err := engine.New(p.Variant, sender)
		if err != nil {
			logger.Error().Err(err).Msg("falling back to the base runtime")
			runtime = engine.NewBase(sender)
		}
		ctl := engine.NewControls()
		if err := cfg.Apply(ctl); err != nil {
			logger.Warn().Err(err).Msg("could not apply config")
		}

		var (
			sampleRate float32
			buf        mlem.AudioBuffer
		)
		return vst2.Plugin{
				UniqueID:       p.ID,
				Version:        100,
				InputChannels:  p.Inputs,
				OutputChannels: p.Outputs,
				Name:           p.Name,
				Vendor:         "mlem records",
				Category:       p.Category,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					playing := false
					if ti := h.GetTimeInfo(vst2.TransportPlaying); ti != nil {
						playing = ti.Flags&vst2.TransportPlaying != 0
						if rate := float32(ti.SampleRate); rate > 0 && rate != sampleRate {
							sampleRate = rate
							runtime.Init(sampleRate)
							runtime.Reset()
						}
					}
					buf = buf.Resize(p.Outputs, out.Frames)
					for ch := range buf {
						if ch < p.Inputs {
							copy(buf[ch], in.Channel(ch))
						} else {
							clear(buf[ch])
						}
					}
					runtime.Run(buf, ctl, mlem.Transport{Playing: playing})
					for ch := range buf {
						copy(out.Channel(ch), buf[ch])
					}
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveTimeInfo:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				CloseFunc: func() {
					close(done)
					if err := runtime.Close(); err != nil {
						logger.Warn().Err(err).Msg("could not close runtime")
					}
					logCloser.Close()
				},
			}
	}
}
