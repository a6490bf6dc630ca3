// Package miditest provides a scriptable contracts.Engine for tests of code
// built on midi.Player.
package miditest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// Call is one dispatch call received by the fake engine.
type Call struct {
	Op    string
	Args  []int
	Delay time.Duration
}

type step struct {
	stage       string
	fraction    float64
	terminal    bool
	err         error
	instruments []contracts.Instrument
}

// Engine is a fake engine whose Load blocks until the test scripts its
// progress and outcome with Progress, Succeed or Fail. It implements every
// optional dispatch interface; Caps controls what it declares.
type Engine struct {
	Caps contracts.Capability
	// InstrumentErrs makes LoadInstrument fail for the named instruments.
	InstrumentErrs map[string]error
	// FactoryErr makes the factory fail without constructing anything.
	FactoryErr error

	steps   chan step
	started chan struct{}
	once    sync.Once

	mu     sync.Mutex
	calls  []Call
	cfg    contracts.SynthConfig
	loads  int
	closes int
}

var (
	_ contracts.Engine              = (*Engine)(nil)
	_ contracts.ProgramChanger      = (*Engine)(nil)
	_ contracts.ControlChanger      = (*Engine)(nil)
	_ contracts.PitchBender         = (*Engine)(nil)
	_ contracts.ChannelAftertoucher = (*Engine)(nil)
	_ contracts.PolyAftertoucher    = (*Engine)(nil)
)

// New returns a fake engine declaring caps.
func New(caps contracts.Capability) *Engine {
	return &Engine{
		Caps:    caps,
		steps:   make(chan step),
		started: make(chan struct{}),
	}
}

// Factory returns an EngineFactory that always hands out e.
func (e *Engine) Factory() contracts.EngineFactory {
	return func(*contracts.PlayerOptions) (contracts.Engine, error) {
		if e.FactoryErr != nil {
			return nil, e.FactoryErr
		}
		return e, nil
	}
}

// Started is closed once Load has been entered for the first time.
func (e *Engine) Started() <-chan struct{} {
	return e.started
}

// Progress makes the running Load report one notification. It blocks until
// Load consumes it.
func (e *Engine) Progress(stage string, fraction float64) {
	e.steps <- step{stage: stage, fraction: fraction}
}

// Succeed makes the running Load return instruments. Without arguments
// every configured instrument is returned by name.
func (e *Engine) Succeed(instruments ...contracts.Instrument) {
	e.steps <- step{terminal: true, instruments: instruments}
}

// Fail makes the running Load return err.
func (e *Engine) Fail(err error) {
	e.steps <- step{terminal: true, err: err}
}

func (e *Engine) Load(ctx context.Context, cfg contracts.SynthConfig, progress contracts.ProgressFunc) ([]contracts.Instrument, error) {
	e.mu.Lock()
	e.loads++
	e.cfg = cfg
	e.mu.Unlock()
	e.once.Do(func() { close(e.started) })

	for {
		select {
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		case s := <-e.steps:
			if !s.terminal {
				progress(s.stage, s.fraction)
				continue
			}
			if s.err != nil {
				return nil, s.err
			}
			if len(s.instruments) > 0 {
				return s.instruments, nil
			}
			out := make([]contracts.Instrument, 0, len(cfg.Instruments))
			for _, name := range cfg.Instruments {
				out = append(out, contracts.Instrument{Name: name})
			}
			return out, nil
		}
	}
}

func (e *Engine) LoadInstrument(_ context.Context, name string) (contracts.Instrument, error) {
	e.record("load_instrument", 0)
	if err, ok := e.InstrumentErrs[name]; ok {
		return contracts.Instrument{}, err
	}
	return contracts.Instrument{Name: name}, nil
}

func (e *Engine) NoteOn(channel, note, velocity uint8, delay time.Duration) error {
	e.record("note_on", delay, int(channel), int(note), int(velocity))
	return nil
}

func (e *Engine) NoteOff(channel, note uint8, delay time.Duration) error {
	e.record("note_off", delay, int(channel), int(note))
	return nil
}

func (e *Engine) ProgramChange(channel, program uint8, delay time.Duration) error {
	e.record("program_change", delay, int(channel), int(program))
	return nil
}

func (e *Engine) ControlChange(channel, controller, value uint8, delay time.Duration) error {
	e.record("control_change", delay, int(channel), int(controller), int(value))
	return nil
}

func (e *Engine) PitchBend(channel uint8, value uint16, delay time.Duration) error {
	e.record("pitch_bend", delay, int(channel), int(value))
	return nil
}

func (e *Engine) ChannelAftertouch(channel, pressure uint8, delay time.Duration) error {
	e.record("channel_aftertouch", delay, int(channel), int(pressure))
	return nil
}

func (e *Engine) PolyAftertouch(channel, note, pressure uint8, delay time.Duration) error {
	e.record("poly_aftertouch", delay, int(channel), int(note), int(pressure))
	return nil
}

func (e *Engine) Capabilities() contracts.Capability {
	return e.Caps
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closes++
	return nil
}

func (e *Engine) record(op string, delay time.Duration, args ...int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Call{Op: op, Args: args, Delay: delay})
}

// Calls returns the calls received so far, LoadInstrument included.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.calls)
}

// Config returns the configuration passed to the last Load.
func (e *Engine) Config() contracts.SynthConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Loads returns how many times Load was called.
func (e *Engine) Loads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

// Closes returns how many times Close was called.
func (e *Engine) Closes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closes
}
