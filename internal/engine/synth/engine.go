// Package synth is an in-process soundfont synthesizer engine. It renders
// with go-meltysynth and plays through an audio Sink.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/leandrodaf/midiplayer/internal/audio/otoaudio"
	"github.com/leandrodaf/midiplayer/internal/fetch"
	"github.com/leandrodaf/midiplayer/internal/instruments"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"github.com/sinshu/go-meltysynth/meltysynth"
	"go.uber.org/multierr"
)

// DefaultSoundfontURL is loaded when the config names no soundfont.
const DefaultSoundfontURL = "soundfont/default.sf2"

// DefaultSampleRate is used when the player options leave it unset.
const DefaultSampleRate = 44100

// MIDI status nibbles understood by meltysynth.
const (
	cmdNoteOff       = 0x80
	cmdNoteOn        = 0x90
	cmdControlChange = 0xB0
	cmdProgramChange = 0xC0
	cmdPitchBend     = 0xE0
)

// Sink plays a PCM stream pulled from r.
type Sink interface {
	Start(r io.Reader) error
	Close() error
}

// SinkFactory opens a Sink for the given stream layout.
type SinkFactory func(sampleRate int, format contracts.Format) (Sink, error)

// OtoSink opens the default audio device.
func OtoSink(sampleRate int, format contracts.Format) (Sink, error) {
	out, err := otoaudio.Open(sampleRate, format)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type presetKey struct {
	bank  int32
	patch int32
}

// Engine implements contracts.Engine with a soundfont synthesizer. It does
// not implement the aftertouch interfaces: meltysynth ignores pressure
// messages.
type Engine struct {
	logger        contracts.Logger
	opts          *contracts.PlayerOptions
	newSink       SinkFactory
	openSoundFont func(data []byte, sampleRate int) (renderer, []*meltysynth.Preset, error)

	mu      sync.Mutex
	presets map[presetKey]*meltysynth.Preset
	stream  *stream
	sink    Sink
	closed  bool
}

var (
	_ contracts.Engine         = (*Engine)(nil)
	_ contracts.ProgramChanger = (*Engine)(nil)
	_ contracts.ControlChanger = (*Engine)(nil)
	_ contracts.PitchBender    = (*Engine)(nil)
)

// New returns an engine that plays through sinks created by newSink.
func New(opts *contracts.PlayerOptions, newSink SinkFactory) *Engine {
	return &Engine{logger: opts.Logger, opts: opts, newSink: newSink, openSoundFont: parseSoundFont}
}

// Load fetches and parses the soundfont, resolves the preload instruments
// against its presets and starts audio output.
func (e *Engine) Load(ctx context.Context, cfg contracts.SynthConfig, progress contracts.ProgressFunc) ([]contracts.Instrument, error) {
	location := cfg.SoundfontURL
	if location == "" {
		location = DefaultSoundfontURL
	}
	sampleRate := e.opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	progress("fetching soundfont", 0)
	data, err := fetch.Fetch(ctx, e.opts.HTTPClient, location, func(read, total int64) {
		if total > 0 {
			progress("fetching soundfont", 0.6*float64(read)/float64(total))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("fetch soundfont: %w", err)
	}

	progress("parsing soundfont", 0.6)
	synthesizer, presets, err := e.openSoundFont(data, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to load soundfont %s: %w", location, err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, contracts.ErrEngineClosed
	}
	e.presets = indexPresets(presets)
	e.stream = newStream(synthesizer, sampleRate, cfg.TargetFormat, float32(e.opts.Gain))
	e.mu.Unlock()

	e.logger.Info("soundfont loaded",
		e.logger.Field().String("soundfont", location),
		e.logger.Field().Int("presets", len(presets)))
	progress("soundfont ready", 0.7)

	loaded := make([]contracts.Instrument, 0, len(cfg.Instruments))
	for i, name := range cfg.Instruments {
		inst, err := e.LoadInstrument(ctx, name)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, inst)
		progress("loading instrument "+inst.Name, 0.7+0.25*float64(i+1)/float64(len(cfg.Instruments)))
	}

	sink, err := e.newSink(sampleRate, cfg.TargetFormat)
	if err != nil {
		return nil, fmt.Errorf("open audio output: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, multierr.Append(contracts.ErrEngineClosed, sink.Close())
	}
	e.sink = sink
	if err := sink.Start(e.stream); err != nil {
		return nil, fmt.Errorf("start audio output: %w", err)
	}
	progress("audio output started", 1)
	return loaded, nil
}

// parseSoundFont builds a synthesizer for a serialized SF2 bank.
func parseSoundFont(data []byte, sampleRate int) (renderer, []*meltysynth.Preset, error) {
	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	synthesizer, err := meltysynth.NewSynthesizer(soundFont, meltysynth.NewSynthesizerSettings(int32(sampleRate)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	return synthesizer, soundFont.Presets, nil
}

func indexPresets(presets []*meltysynth.Preset) map[presetKey]*meltysynth.Preset {
	index := make(map[presetKey]*meltysynth.Preset, len(presets))
	for _, p := range presets {
		key := presetKey{bank: p.BankNumber, patch: p.PatchNumber}
		if _, dup := index[key]; !dup {
			index[key] = p
		}
	}
	return index
}

// LoadInstrument resolves name to a General MIDI program and checks that the
// soundfont carries a preset for it. The preset is the catalog payload.
func (e *Engine) LoadInstrument(ctx context.Context, name string) (contracts.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Instrument{}, err
	}
	inst, err := instruments.Lookup(name)
	if err != nil {
		return contracts.Instrument{}, err
	}

	e.mu.Lock()
	preset, ok := e.presets[presetKey{bank: int32(inst.Bank), patch: int32(inst.Program)}]
	e.mu.Unlock()
	if !ok {
		return contracts.Instrument{}, fmt.Errorf("%w: %s (bank %d, program %d)",
			contracts.ErrInstrumentNotFound, inst.Name, inst.Bank, inst.Program)
	}
	inst.Data = preset
	e.logger.Debug("instrument resolved",
		e.logger.Field().String("instrument", inst.Name),
		e.logger.Field().String("preset", preset.Name))
	return inst, nil
}

func (e *Engine) Capabilities() contracts.Capability {
	return contracts.CapProgramChange | contracts.CapControlChange | contracts.CapPitchBend
}

func (e *Engine) NoteOn(channel, note, velocity uint8, delay time.Duration) error {
	return e.schedule(delay, message{channel: int32(channel), command: cmdNoteOn, data1: int32(note), data2: int32(velocity)})
}

func (e *Engine) NoteOff(channel, note uint8, delay time.Duration) error {
	return e.schedule(delay, message{channel: int32(channel), command: cmdNoteOff, data1: int32(note)})
}

func (e *Engine) ProgramChange(channel, program uint8, delay time.Duration) error {
	return e.schedule(delay, message{channel: int32(channel), command: cmdProgramChange, data1: int32(program)})
}

func (e *Engine) ControlChange(channel, controller, value uint8, delay time.Duration) error {
	return e.schedule(delay, message{channel: int32(channel), command: cmdControlChange, data1: int32(controller), data2: int32(value)})
}

func (e *Engine) PitchBend(channel uint8, value uint16, delay time.Duration) error {
	return e.schedule(delay, message{channel: int32(channel), command: cmdPitchBend, data1: int32(value & 0x7F), data2: int32(value >> 7)})
}

func (e *Engine) schedule(delay time.Duration, m message) error {
	e.mu.Lock()
	s := e.stream
	e.mu.Unlock()
	if s == nil {
		return contracts.ErrNotReady
	}
	return s.schedule(delay, m)
}

// Close stops audio output and drops queued messages.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	s, sink := e.stream, e.sink
	e.stream, e.sink = nil, nil
	e.mu.Unlock()

	var err error
	if sink != nil {
		err = multierr.Append(err, sink.Close())
	}
	if s != nil {
		if dropped := s.close(); dropped > 0 {
			e.logger.Debug("dropped queued synth messages", e.logger.Field().Int("count", dropped))
		}
	}
	return err
}
