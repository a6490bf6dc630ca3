// Command midiplay plays a Standard MIDI File or YAML score through a
// soundfont synthesizer or a MIDI output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/leandrodaf/midiplayer/internal/instruments"
	"github.com/leandrodaf/midiplayer/internal/logger"
	"github.com/leandrodaf/midiplayer/internal/score"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"github.com/leandrodaf/midiplayer/sdk/midi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "midiplay:", err)
		os.Exit(1)
	}
}

// run executes one invocation. Extra options are applied after the ones
// derived from the configuration.
func run(ctx context.Context, args []string, out io.Writer, extra ...contracts.Option) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}
	if cfg.ListGM {
		listInstruments(out)
		return nil
	}
	api, err := contracts.ParseAPI(cfg.API)
	if err != nil {
		return err
	}
	if cfg.List {
		return listDevices(api, out)
	}

	format, err := contracts.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	level, ok := contracts.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	sc, err := readScore(cfg.Score)
	if err != nil {
		return err
	}

	log := logger.NewZapLogger()
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithSampleRate(cfg.SampleRate),
		contracts.WithGain(cfg.Gain),
		contracts.WithOutputDevice(cfg.Device),
	}
	if cfg.LogFile != "" {
		opts = append(opts, contracts.WithLogFile(cfg.LogFile))
	}
	player, err := midi.NewPlayer(append(opts, extra...)...)
	if err != nil {
		return err
	}
	defer player.Close()

	pending, err := player.Initialize(contracts.SynthConfig{
		SoundfontURL: cfg.Soundfont,
		Instruments:  append(sc.Instruments, cfg.Instruments...),
		TargetFormat: format,
		API:          api,
	})
	if err != nil {
		return err
	}
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for p := range pending.Progress() {
			fmt.Fprintf(out, "%3.0f%% %s\n", p.Fraction*100, p.Stage)
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()
	if err := pending.Wait(loadCtx); err != nil {
		return fmt.Errorf("load engine: %w", err)
	}
	<-printed
	printCatalog(out, player.Instruments())

	fmt.Fprintf(out, "playing %s (%s, %d events, %s)\n",
		displayName(sc, cfg.Score), player.Capabilities(), len(sc.Events), sc.Duration())
	return score.Play(ctx, player, sc, score.Options{Lookahead: cfg.Lookahead, Logger: log})
}

func readScore(path string) (*score.Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi", ".smf":
		return score.ReadSMF(f)
	case ".yaml", ".yml":
		return score.ReadYAML(f)
	}
	return nil, fmt.Errorf("unsupported score type %q", filepath.Ext(path))
}

func displayName(sc *score.Score, path string) string {
	if sc.Name != "" {
		return sc.Name
	}
	return filepath.Base(path)
}

func listDevices(api contracts.API, out io.Writer) error {
	devices, err := midi.ListDevices(api)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Fprintf(out, "no MIDI outputs for api %s\n", api)
		return nil
	}
	for _, d := range devices {
		fmt.Fprintf(out, "%d\t%s\t%s\n", d.Index, d.Name, d.Manufacturer)
	}
	return nil
}

func printCatalog(out io.Writer, catalog []contracts.Instrument) {
	names := make([]string, 0, len(catalog))
	for _, inst := range catalog {
		names = append(names, instruments.DisplayName(inst.Name))
	}
	fmt.Fprintf(out, "instruments: %s\n", strings.Join(names, ", "))
}

func listInstruments(out io.Writer) {
	for program, name := range instruments.Names() {
		fmt.Fprintf(out, "%3d\t%s\t%s\n", program, name, instruments.DisplayName(name))
	}
	fmt.Fprintf(out, "  -\t%s\t%s\n", instruments.DrumKit, instruments.DisplayName(instruments.DrumKit))
}
