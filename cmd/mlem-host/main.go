package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/mlemrecords/mlem/cmd"
	"github.com/mlemrecords/mlem/config"
	"github.com/mlemrecords/mlem/console"
	"github.com/mlemrecords/mlem/engine"
	"github.com/mlemrecords/mlem/host"
	"github.com/mlemrecords/mlem/oto"
	"github.com/mlemrecords/mlem/version"
	"github.com/rs/zerolog"
)

const consoleInterval = 100 * time.Millisecond

func main() {
	cfg := config.Make()
	flag.StringVar(&cfg.Runtime.Variant, "variant", cfg.Runtime.Variant, fmt.Sprintf("Runtime to host, one of %v.", engine.Variants))
	flag.IntVar(&cfg.Host.SampleRate, "rate", cfg.Host.SampleRate, "Sample rate in Hz.")
	flag.IntVar(&cfg.Host.BlockSize, "block", cfg.Host.BlockSize, "Block size in frames.")
	flag.IntVar(&cfg.Host.Channels, "channels", cfg.Host.Channels, "Number of channels.")
	flag.IntVar(&cfg.Host.Blocks, "blocks", cfg.Host.Blocks, "Number of blocks to process; 0 runs until interrupted or the input ends.")
	flag.DurationVar(&cfg.Host.StatusInterval, "status", cfg.Host.StatusInterval, "Interval between status lines; 0 disables them.")
	flag.StringVar(&cfg.Runtime.DataPath, "data", cfg.Runtime.DataPath, "File to sonify with the data runtime.")
	flag.StringVar(&cfg.Runtime.ReadMode, "readmode", cfg.Runtime.ReadMode, "Read mode of the data runtime: bit8, bit16 or bit32.")
	flag.BoolVar(&cfg.Runtime.Mute, "mute", cfg.Runtime.Mute, "Mute the data runtime.")
	flag.BoolVar(&cfg.Runtime.Mono, "mono", cfg.Runtime.Mono, "Use one data sample per frame.")
	flag.BoolVar(&cfg.Runtime.ResetOnPlay, "resetonplay", cfg.Runtime.ResetOnPlay, "Reset the meter when the transport starts.")
	flag.BoolFunc("clip", "Clip the output to [-1, 1] (default depends on the build).", func(s string) error {
		v, err := strconv.ParseBool(s)
		cfg.Runtime.Clip = &v
		return err
	})
	flag.StringVar(&cfg.Log.Level, "log", cfg.Log.Level, "Log level.")
	input := flag.String("i", "", "Input .wav file. By default, a sine tone is generated.")
	tone := flag.Float64("tone", 997, "Frequency of the generated tone in Hz; 0 gives silence.")
	amplitude := flag.Float64("amp", 0.5, "Peak amplitude of the generated tone.")
	output := flag.String("o", "", "Write the processed audio to this .wav file.")
	play := flag.Bool("p", false, "Play the processed audio in real time.")
	watch := flag.Bool("w", false, "Reload the data file whenever it changes.")
	report := flag.String("report", "", "Write a yaml report of the final state to this file, or - for standard output.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger, logCloser, err := cmd.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	if cfg.YmlError != nil {
		logger.Warn().Err(cfg.YmlError).Msg("could not read config, using defaults")
	}
	if err := run(cfg, logger, options{
		input:     *input,
		tone:      *tone,
		amplitude: *amplitude,
		output:    *output,
		play:      *play,
		watch:     *watch,
		report:    *report,
	}); err != nil {
		logger.Error().Err(err).Msg("mlem-host failed")
		os.Exit(1)
	}
}

type options struct {
	input     string
	tone      float64
	amplitude float64
	output    string
	play      bool
	watch     bool
	report    string
}

func run(cfg config.Config, logger zerolog.Logger, opts options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := console.New(logger.With().Str("component", "console").Logger())
	pumpDone := make(chan struct{})
	var pumpWg sync.WaitGroup
	pumpWg.Add(1)
	go func() {
		defer pumpWg.Done()
		c.Pump(pumpDone, consoleInterval)
	}()
	stopPump := sync.OnceFunc(func() {
		close(pumpDone)
		pumpWg.Wait()
	})
	defer stopPump()

	sender := c.Sender()
	sender.Log("%s", version.Banner(cfg.Runtime.Variant))
	runtime, err := engine.New(cfg.Runtime.Variant, sender)
	if err != nil {
		return err
	}
	defer runtime.Close()
	ctl := engine.NewControls()
	if err := cfg.Apply(ctl); err != nil {
		return err
	}

	source, err := openSource(cfg, opts)
	if err != nil {
		return err
	}
	if closer, ok := source.(io.Closer); ok {
		defer closer.Close()
	}

	driver := &host.Driver{
		Runtime:   runtime,
		Controls:  ctl,
		Source:    source,
		Channels:  cfg.Host.Channels,
		BlockSize: cfg.Host.BlockSize,
		Logger:    logger,
		Playing:   true,
	}
	if opts.output != "" {
		sink, err := host.CreateWav(opts.output, cfg.Host.SampleRate, cfg.Host.Channels)
		if err != nil {
			return err
		}
		defer func() {
			if err := sink.Close(); err != nil {
				logger.Error().Err(err).Str("path", opts.output).Msg("could not finish wav")
			}
		}()
		driver.Sinks = append(driver.Sinks, sink)
	}
	if opts.play {
		audioContext, err := oto.NewContext(cfg.Host.SampleRate, cfg.Host.Channels)
		if err != nil {
			return fmt.Errorf("could not acquire oto AudioContext: %w", err)
		}
		defer audioContext.Close()
		out := audioContext.Output()
		defer out.Close()
		driver.Sinks = append(driver.Sinks, out)
	}
	if opts.watch && cfg.Runtime.DataPath != "" {
		go func() {
			if err := host.Watch(ctx, cfg.Runtime.DataPath, ctl, logger); err != nil {
				logger.Error().Err(err).Msg("could not watch data file")
			}
		}()
	}
	if cfg.Host.StatusInterval > 0 {
		go printStatus(ctx, runtime.Snapshot(), cfg.Host.StatusInterval, logger)
	}

	runtime.Init(float32(cfg.Host.SampleRate))
	runtime.Reset()
	start := time.Now()
	blocks, err := driver.Run(ctx, cfg.Host.Blocks)
	if err != nil {
		return err
	}
	data := runtime.Snapshot().Load()
	logger.Info().
		Int("blocks", blocks).
		Dur("elapsed", time.Since(start)).
		Str("active", engine.FormatActiveTime(data.ActiveTimeMs)).
		Msg(data.Status())

	stopPump()
	if opts.report != "" {
		return writeReport(opts.report, host.MakeReport(blocks, data, c.String()))
	}
	return nil
}

func openSource(cfg config.Config, opts options) (host.Source, error) {
	switch {
	case opts.input != "":
		src, err := host.OpenWav(opts.input)
		if err != nil {
			return nil, err
		}
		if src.SampleRate() != cfg.Host.SampleRate {
			src.Close()
			return nil, fmt.Errorf("%v is sampled at %d Hz, expected %d Hz", opts.input, src.SampleRate(), cfg.Host.SampleRate)
		}
		return src, nil
	case opts.tone > 0:
		return &host.Tone{Frequency: opts.tone, Amplitude: opts.amplitude, SampleRate: float64(cfg.Host.SampleRate)}, nil
	}
	return host.Silence{}, nil
}

func printStatus(ctx context.Context, snapshot *engine.Snapshot, interval time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d := snapshot.Load()
			logger.Info().
				Str("active", engine.FormatActiveTime(d.ActiveTimeMs)).
				Float64("global", d.Loudness.Global).
				Float64("momentary", d.Loudness.Momentary).
				Float64("shortterm", d.Loudness.ShortTerm).
				Float64("range", d.Loudness.Range).
				Float32("level", d.Level).
				Int("clipped", d.Clipped).
				Msg(d.Status())
		}
	}
}

func writeReport(path string, r host.Report) error {
	if path == "-" {
		return r.Write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create report: %w", err)
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "mlem command line host for running the plugin runtimes offline or in real time.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
