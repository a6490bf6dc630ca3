package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// config holds the CLI settings. Environment variables provide the
// defaults; flags override them.
type config struct {
	API         string        `env:"MIDIPLAY_API" envDefault:"synth"`
	Soundfont   string        `env:"MIDIPLAY_SOUNDFONT"`
	Device      string        `env:"MIDIPLAY_DEVICE"`
	Format      string        `env:"MIDIPLAY_FORMAT" envDefault:"f32le"`
	SampleRate  int           `env:"MIDIPLAY_SAMPLE_RATE" envDefault:"44100"`
	Gain        float64       `env:"MIDIPLAY_GAIN" envDefault:"1"`
	Lookahead   time.Duration `env:"MIDIPLAY_LOOKAHEAD" envDefault:"100ms"`
	LoadTimeout time.Duration `env:"MIDIPLAY_LOAD_TIMEOUT" envDefault:"1m"`
	LogLevel    string        `env:"MIDIPLAY_LOG_LEVEL" envDefault:"info"`
	LogFile     string        `env:"MIDIPLAY_LOG_FILE"`

	List        bool
	ListGM      bool
	Instruments []string
	Score       string
}

type instrumentsFlag struct{ names *[]string }

func (f instrumentsFlag) String() string {
	if f.names == nil {
		return ""
	}
	return fmt.Sprint(*f.names)
}

func (f instrumentsFlag) Set(name string) error {
	*f.names = append(*f.names, name)
	return nil
}

func parseConfig(args []string) (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("midiplay", flag.ContinueOnError)
	fs.StringVar(&cfg.API, "api", cfg.API, "engine: synth, native or rtmidi")
	fs.StringVar(&cfg.Soundfont, "soundfont", cfg.Soundfont, "soundfont path or URL for the synth engine")
	fs.StringVar(&cfg.Device, "device", cfg.Device, "MIDI output name prefix")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "audio sample format: f32le, s16le or u8")
	fs.IntVar(&cfg.SampleRate, "rate", cfg.SampleRate, "audio sample rate")
	fs.Float64Var(&cfg.Gain, "gain", cfg.Gain, "master gain")
	fs.DurationVar(&cfg.Lookahead, "lookahead", cfg.Lookahead, "how early events are handed to the engine")
	fs.DurationVar(&cfg.LoadTimeout, "load-timeout", cfg.LoadTimeout, "give up waiting for the engine after this long")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
	fs.BoolVar(&cfg.List, "list", false, "list MIDI outputs of the selected api and exit")
	fs.BoolVar(&cfg.ListGM, "gm", false, "list the General MIDI instrument names and exit")
	fs.Var(instrumentsFlag{&cfg.Instruments}, "instrument", "instrument to preload; repeatable")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: midiplay [flags] score.{mid,yaml}\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	switch {
	case cfg.List, cfg.ListGM:
	case fs.NArg() != 1:
		fs.Usage()
		return config{}, fmt.Errorf("expected one score file, got %d arguments", fs.NArg())
	default:
		cfg.Score = fs.Arg(0)
	}
	return cfg, nil
}
