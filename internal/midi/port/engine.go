// Package port implements contracts.Engine for hardware and virtual MIDI
// outputs. Platform packages only provide an Output; encoding, scheduling
// and instrument resolution live here.
package port

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/midiplayer/internal/instruments"
	"github.com/leandrodaf/midiplayer/internal/schedule"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/multierr"
)

// ccAllNotesOff is the channel mode message sent to every channel on Close.
const ccAllNotesOff = 123

// Output is an opened MIDI output.
type Output interface {
	Send(msg []byte) error
	Close() error
	String() string
}

// Opener opens the output selected by the player options.
type Opener func(opts *contracts.PlayerOptions) (Output, error)

// Engine sends validated dispatch calls to an Output as MIDI bytes.
type Engine struct {
	logger contracts.Logger
	opts   *contracts.PlayerOptions
	open   Opener

	mu     sync.RWMutex
	out    Output
	sched  *schedule.Scheduler
	closed bool
}

var (
	_ contracts.Engine              = (*Engine)(nil)
	_ contracts.ProgramChanger      = (*Engine)(nil)
	_ contracts.ControlChanger      = (*Engine)(nil)
	_ contracts.PitchBender         = (*Engine)(nil)
	_ contracts.ChannelAftertoucher = (*Engine)(nil)
	_ contracts.PolyAftertoucher    = (*Engine)(nil)
)

// NewEngine returns an engine that opens its output lazily in Load.
func NewEngine(opts *contracts.PlayerOptions, open Opener) *Engine {
	return &Engine{
		logger: opts.Logger,
		opts:   opts,
		open:   open,
		sched:  schedule.New(),
	}
}

// Load opens the output and resolves cfg.Instruments against the General
// MIDI table. The soundfont URL and target format have no meaning for a MIDI
// output and are ignored.
func (e *Engine) Load(ctx context.Context, cfg contracts.SynthConfig, progress contracts.ProgressFunc) ([]contracts.Instrument, error) {
	progress("opening MIDI output", 0)
	out, err := e.open(e.opts)
	if err != nil {
		return nil, fmt.Errorf("open MIDI output: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		out.Close()
		return nil, contracts.ErrEngineClosed
	}
	e.out = out
	e.mu.Unlock()

	e.logger.Info("MIDI output opened", e.logger.Field().String("device", out.String()))
	progress("MIDI output opened", 0.5)

	loaded := make([]contracts.Instrument, 0, len(cfg.Instruments))
	for i, name := range cfg.Instruments {
		inst, err := e.LoadInstrument(ctx, name)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, inst)
		progress("loading instrument "+inst.Name, 0.5+0.5*float64(i+1)/float64(len(cfg.Instruments)))
	}
	return loaded, nil
}

// LoadInstrument resolves name to a General MIDI program. Output devices carry
// their own sounds, so nothing is transferred.
func (e *Engine) LoadInstrument(ctx context.Context, name string) (contracts.Instrument, error) {
	if err := ctx.Err(); err != nil {
		return contracts.Instrument{}, err
	}
	return instruments.Lookup(name)
}

func (e *Engine) Capabilities() contracts.Capability {
	return contracts.CapAll
}

func (e *Engine) NoteOn(channel, note, velocity uint8, delay time.Duration) error {
	return e.send(midi.NoteOn(channel, note, velocity), delay)
}

func (e *Engine) NoteOff(channel, note uint8, delay time.Duration) error {
	return e.send(midi.NoteOff(channel, note), delay)
}

func (e *Engine) ProgramChange(channel, program uint8, delay time.Duration) error {
	e.logger.Debug("program change",
		e.logger.Field().Uint8("channel", channel),
		e.logger.Field().String("instrument", instruments.Name(program)))
	return e.send(midi.ProgramChange(channel, program), delay)
}

func (e *Engine) ControlChange(channel, controller, value uint8, delay time.Duration) error {
	return e.send(midi.ControlChange(channel, controller, value), delay)
}

func (e *Engine) PitchBend(channel uint8, value uint16, delay time.Duration) error {
	return e.send(midi.Pitchbend(channel, int16(int(value)-contracts.PitchBendCenter)), delay)
}

func (e *Engine) ChannelAftertouch(channel, pressure uint8, delay time.Duration) error {
	return e.send(midi.AfterTouch(channel, pressure), delay)
}

func (e *Engine) PolyAftertouch(channel, note, pressure uint8, delay time.Duration) error {
	return e.send(midi.PolyAfterTouch(channel, note, pressure), delay)
}

func (e *Engine) send(msg midi.Message, delay time.Duration) error {
	e.mu.RLock()
	out, closed := e.out, e.closed
	e.mu.RUnlock()
	if closed {
		return contracts.ErrEngineClosed
	}
	if out == nil {
		return contracts.ErrNotReady
	}

	if delay <= 0 {
		return out.Send(msg.Bytes())
	}
	return e.sched.After(delay, func() {
		if err := out.Send(msg.Bytes()); err != nil {
			e.logger.Warn("delayed MIDI send failed",
				e.logger.Field().String("message", msg.String()),
				e.logger.Field().Error("error", err))
		}
	})
}

// Close drops scheduled events, silences every channel and closes the output.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	out := e.out
	e.out = nil
	e.mu.Unlock()

	if dropped := e.sched.Stop(); dropped > 0 {
		e.logger.Debug("dropped scheduled MIDI events", e.logger.Field().Int("count", dropped))
	}
	if out == nil {
		return nil
	}

	var err error
	for ch := uint8(0); ch <= contracts.MaxChannel; ch++ {
		err = multierr.Append(err, out.Send(midi.ControlChange(ch, ccAllNotesOff, 0).Bytes()))
	}
	err = multierr.Append(err, out.Close())
	if err != nil {
		return fmt.Errorf("close MIDI output %s: %w", out, err)
	}
	e.logger.Info("MIDI output closed", e.logger.Field().String("device", out.String()))
	return nil
}
