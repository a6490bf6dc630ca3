package midi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leandrodaf/midiplayer/internal/logger"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"github.com/leandrodaf/midiplayer/sdk/midi/miditest"
)

func newTestPlayer(t *testing.T, engine *miditest.Engine) *Player {
	t.Helper()
	p, err := NewPlayer(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithEngine(contracts.APISynth, engine.Factory()),
	)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func wait(t *testing.T, pending *Pending) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := pending.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("load did not finish")
	}
	return err
}

func readyPlayer(t *testing.T, caps contracts.Capability) (*Player, *miditest.Engine) {
	t.Helper()
	engine := miditest.New(caps)
	p := newTestPlayer(t, engine)
	pending, err := p.Initialize(contracts.SynthConfig{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	engine.Succeed()
	if err := wait(t, pending); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return p, engine
}

func TestInitializeProgressThenSuccess(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	if got := p.State(); got != contracts.StateUninitialized {
		t.Fatalf("state before Initialize = %s", got)
	}
	pending, err := p.Initialize(contracts.SynthConfig{Instruments: []string{"acoustic_grand_piano"}})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := p.State(); got != contracts.StateLoading {
		t.Fatalf("state while loading = %s", got)
	}

	engine.Progress("fetching soundfont", 0.5)
	engine.Succeed()
	if err := wait(t, pending); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	var got []contracts.Progress
	for pr := range pending.Progress() {
		got = append(got, pr)
	}
	if len(got) != 1 || got[0].Fraction != 0.5 || got[0].Stage != "fetching soundfont" {
		t.Fatalf("progress = %+v", got)
	}
	if p.State() != contracts.StateReady {
		t.Fatalf("state after success = %s", p.State())
	}

	if err := p.NoteOn(0, 60, 100, 0); err != nil {
		t.Fatalf("NoteOn: %v", err)
	}
	calls := engine.Calls()
	if len(calls) != 1 || calls[0].Op != "note_on" || calls[0].Args[1] != 60 || calls[0].Args[2] != 100 {
		t.Fatalf("calls = %+v", calls)
	}
	if _, ok := p.Instrument("acoustic_grand_piano"); !ok {
		t.Fatalf("preloaded instrument missing from catalog")
	}
}

func TestInitializeFailure(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	pending, err := p.Initialize(contracts.SynthConfig{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	network := errors.New("network failure")
	engine.Fail(network)

	err = wait(t, pending)
	if !errors.Is(err, network) {
		t.Fatalf("load error = %v, want %v", err, network)
	}
	if p.State() != contracts.StateFailed {
		t.Fatalf("state = %s, want failed", p.State())
	}
	if !errors.Is(p.Err(), network) {
		t.Fatalf("Err() = %v", p.Err())
	}
	if err := p.NoteOn(0, 60, 100, 0); !errors.Is(err, contracts.ErrNotReady) {
		t.Fatalf("NoteOn after failure = %v, want ErrNotReady", err)
	}
	if len(engine.Calls()) != 0 {
		t.Fatalf("engine received calls: %+v", engine.Calls())
	}
	if engine.Closes() != 1 {
		t.Fatalf("failed engine closed %d times", engine.Closes())
	}
}

func TestFactoryFailure(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	engine.FactoryErr = contracts.ErrNoMIDIDevices
	p := newTestPlayer(t, engine)

	pending, err := p.Initialize(contracts.SynthConfig{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := wait(t, pending); !errors.Is(err, contracts.ErrNoMIDIDevices) {
		t.Fatalf("load error = %v", err)
	}
	if p.State() != contracts.StateFailed {
		t.Fatalf("state = %s", p.State())
	}
}

func TestRetryAfterFailure(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	pending, _ := p.Initialize(contracts.SynthConfig{})
	engine.Fail(errors.New("boom"))
	wait(t, pending)

	pending, err := p.Initialize(contracts.SynthConfig{})
	if err != nil {
		t.Fatalf("retry Initialize: %v", err)
	}
	if p.State() != contracts.StateLoading {
		t.Fatalf("state on retry = %s", p.State())
	}
	if p.Err() != nil {
		t.Fatalf("Err() not cleared on retry: %v", p.Err())
	}
	engine.Succeed()
	if err := wait(t, pending); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if p.State() != contracts.StateReady {
		t.Fatalf("state = %s", p.State())
	}
}

func TestDispatchBeforeReady(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	if err := p.NoteOn(0, 60, 100, 0); !errors.Is(err, contracts.ErrNotReady) {
		t.Fatalf("NoteOn uninitialized = %v", err)
	}

	pending, _ := p.Initialize(contracts.SynthConfig{})
	<-engine.Started()
	checks := map[string]func() error{
		"note_on":            func() error { return p.NoteOn(0, 60, 100, 0) },
		"note_off":           func() error { return p.NoteOff(0, 60, 0) },
		"program_change":     func() error { return p.ProgramChange(0, 1, 0) },
		"control_change":     func() error { return p.ControlChange(0, 7, 100, 0) },
		"pitch_bend":         func() error { return p.PitchBend(0, 8192, 0) },
		"channel_aftertouch": func() error { return p.ChannelAftertouch(0, 10, 0) },
		"poly_aftertouch":    func() error { return p.PolyAftertouch(0, 60, 10, 0) },
	}
	for name, call := range checks {
		if err := call(); !errors.Is(err, contracts.ErrNotReady) {
			t.Errorf("%s while loading = %v, want ErrNotReady", name, err)
		}
	}
	if _, err := p.LoadInstrument("violin"); !errors.Is(err, contracts.ErrNotReady) {
		t.Errorf("LoadInstrument while loading = %v", err)
	}

	engine.Succeed()
	wait(t, pending)
	if len(engine.Calls()) != 0 {
		t.Fatalf("engine received calls: %+v", engine.Calls())
	}
}

func TestDispatchRangeValidation(t *testing.T) {
	p, engine := readyPlayer(t, contracts.CapAll)

	tests := []struct {
		name  string
		call  func() error
		param string
	}{
		{"channel 16", func() error { return p.NoteOn(16, 60, 100, 0) }, "channel"},
		{"negative channel", func() error { return p.NoteOff(-1, 60, 0) }, "channel"},
		{"note 128", func() error { return p.NoteOn(0, 128, 100, 0) }, "note"},
		{"velocity 128", func() error { return p.NoteOn(0, 60, 128, 0) }, "velocity"},
		{"negative delay", func() error { return p.NoteOn(0, 60, 100, -time.Millisecond) }, "delay"},
		{"program 128", func() error { return p.ProgramChange(0, 128, 0) }, "program"},
		{"controller 128", func() error { return p.ControlChange(0, 128, 0, 0) }, "controller"},
		{"value 128", func() error { return p.ControlChange(0, 7, 128, 0) }, "value"},
		{"pitch bend 16384", func() error { return p.PitchBend(0, 16384, 0) }, "value"},
		{"negative pitch bend", func() error { return p.PitchBend(0, -1, 0) }, "value"},
		{"pressure 128", func() error { return p.ChannelAftertouch(0, 128, 0) }, "pressure"},
		{"poly note 128", func() error { return p.PolyAftertouch(0, 128, 10, 0) }, "note"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, contracts.ErrOutOfRange) {
				t.Fatalf("err = %v, want ErrOutOfRange", err)
			}
			var rangeErr *contracts.RangeError
			if !errors.As(err, &rangeErr) || rangeErr.Param != tt.param {
				t.Fatalf("err = %#v, want RangeError on %s", err, tt.param)
			}
		})
	}
	if len(engine.Calls()) != 0 {
		t.Fatalf("invalid calls reached the engine: %+v", engine.Calls())
	}
}

func TestDispatchBoundaries(t *testing.T) {
	p, engine := readyPlayer(t, contracts.CapAll)

	if err := p.NoteOn(15, 127, 127, 250*time.Millisecond); err != nil {
		t.Fatalf("NoteOn at upper bounds: %v", err)
	}
	if err := p.PitchBend(15, contracts.MaxPitchBend, 0); err != nil {
		t.Fatalf("PitchBend max: %v", err)
	}
	if err := p.PolyAftertouch(3, 64, 90, 0); err != nil {
		t.Fatalf("PolyAftertouch: %v", err)
	}

	calls := engine.Calls()
	if len(calls) != 3 {
		t.Fatalf("calls = %+v", calls)
	}
	if calls[0].Delay != 250*time.Millisecond {
		t.Fatalf("delay not forwarded: %v", calls[0].Delay)
	}
	if calls[1].Op != "pitch_bend" || calls[1].Args[1] != contracts.MaxPitchBend {
		t.Fatalf("pitch bend call = %+v", calls[1])
	}
	if calls[2].Op != "poly_aftertouch" || calls[2].Args[0] != 3 {
		t.Fatalf("poly aftertouch call = %+v", calls[2])
	}
}

// requiredOnly hides the optional interfaces of the wrapped engine.
type requiredOnly struct {
	contracts.Engine
}

func TestCapabilitiesIntersection(t *testing.T) {
	fake := miditest.New(contracts.CapAll)
	p, err := NewPlayer(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithEngine(contracts.APISynth, func(*contracts.PlayerOptions) (contracts.Engine, error) {
			return requiredOnly{fake}, nil
		}),
	)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer p.Close()

	pending, _ := p.Initialize(contracts.SynthConfig{})
	fake.Succeed()
	if err := wait(t, pending); err != nil {
		t.Fatalf("load: %v", err)
	}

	if p.Capabilities() != contracts.CapNone {
		t.Fatalf("capabilities = %s, want none", p.Capabilities())
	}
	if err := p.PitchBend(0, 8192, 0); !errors.Is(err, contracts.ErrUnsupported) {
		t.Fatalf("PitchBend = %v, want ErrUnsupported", err)
	}
}

func TestUnsupportedOperations(t *testing.T) {
	p, engine := readyPlayer(t, contracts.CapProgramChange|contracts.CapControlChange)

	if !p.Supports(contracts.CapProgramChange) || p.Supports(contracts.CapPitchBend) {
		t.Fatalf("Supports disagrees with capabilities %s", p.Capabilities())
	}
	if err := p.PitchBend(0, 8192, 0); !errors.Is(err, contracts.ErrUnsupported) {
		t.Fatalf("PitchBend = %v", err)
	}
	// Capability is checked before ranges.
	if err := p.PolyAftertouch(99, 60, 10, 0); !errors.Is(err, contracts.ErrUnsupported) {
		t.Fatalf("PolyAftertouch = %v", err)
	}
	if err := p.ProgramChange(1, 40, 0); err != nil {
		t.Fatalf("ProgramChange: %v", err)
	}
	if calls := engine.Calls(); len(calls) != 1 || calls[0].Op != "program_change" {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestLoadInstrument(t *testing.T) {
	p, engine := readyPlayer(t, contracts.CapAll)
	engine.InstrumentErrs = map[string]error{"kazoo": contracts.ErrUnknownInstrument}

	if _, err := p.LoadInstrument(""); !errors.Is(err, contracts.ErrInvalidConfig) {
		t.Fatalf("empty name = %v", err)
	}

	pending, err := p.LoadInstrument("violin")
	if err != nil {
		t.Fatalf("LoadInstrument: %v", err)
	}
	if err := wait(t, pending); err != nil {
		t.Fatalf("violin: %v", err)
	}
	if _, ok := p.Instrument("violin"); !ok {
		t.Fatalf("violin missing from catalog")
	}

	pending, _ = p.LoadInstrument("kazoo")
	if err := wait(t, pending); !errors.Is(err, contracts.ErrUnknownInstrument) {
		t.Fatalf("kazoo = %v", err)
	}
	if p.State() != contracts.StateReady {
		t.Fatalf("state after failed instrument = %s", p.State())
	}
	if len(p.Instruments()) != 2 {
		t.Fatalf("catalog = %+v", p.Instruments())
	}
	if err := p.NoteOn(0, 60, 100, 0); err != nil {
		t.Fatalf("NoteOn after failed instrument: %v", err)
	}

	before := len(engine.Calls())
	pending, _ = p.LoadInstrument("violin")
	select {
	case <-pending.Done():
	default:
		t.Fatalf("already loaded instrument did not resolve immediately")
	}
	if len(engine.Calls()) != before {
		t.Fatalf("already loaded instrument reached the engine")
	}
}

func TestInstrumentsReturnsCopy(t *testing.T) {
	p, _ := readyPlayer(t, contracts.CapAll)

	list := p.Instruments()
	list[0].Name = "mutated"
	if _, ok := p.Instrument(contracts.DefaultInstrument); !ok {
		t.Fatalf("catalog changed through returned slice")
	}
}

func TestInitializeDoesNotMutateConfig(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	names := []string{"violin", "violin", "cello"}
	pending, err := p.Initialize(contracts.SynthConfig{Instruments: names})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	engine.Succeed()
	wait(t, pending)

	if names[0] != "violin" || names[1] != "violin" || names[2] != "cello" {
		t.Fatalf("caller slice mutated: %v", names)
	}
	cfg := engine.Config()
	if len(cfg.Instruments) != 2 || cfg.API != contracts.APISynth || cfg.TargetFormat != contracts.FormatFloat32LE {
		t.Fatalf("engine config = %+v", cfg)
	}
}

func TestInitializeRejections(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	if _, err := p.Initialize(contracts.SynthConfig{API: contracts.API(42)}); !errors.Is(err, contracts.ErrInvalidConfig) {
		t.Fatalf("unknown api = %v", err)
	}
	if _, err := p.Initialize(contracts.SynthConfig{API: contracts.APINative, Instruments: []string{""}}); !errors.Is(err, contracts.ErrInvalidConfig) {
		t.Fatalf("empty instrument = %v", err)
	}
	if p.State() != contracts.StateUninitialized {
		t.Fatalf("rejected config changed state to %s", p.State())
	}

	pending, err := p.Initialize(contracts.SynthConfig{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := p.Initialize(contracts.SynthConfig{}); !errors.Is(err, contracts.ErrLoadInProgress) {
		t.Fatalf("second Initialize = %v", err)
	}
	engine.Succeed()
	wait(t, pending)
}

func TestProgressClamping(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	pending, _ := p.Initialize(contracts.SynthConfig{})
	for _, f := range []float64{-0.5, 0.4, 0.2, 7} {
		engine.Progress("step", f)
	}
	engine.Succeed()
	wait(t, pending)

	want := []float64{0, 0.4, 0.4, 1}
	var got []float64
	for pr := range pending.Progress() {
		got = append(got, pr.Fraction)
	}
	if len(got) != len(want) {
		t.Fatalf("fractions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fractions = %v, want %v", got, want)
		}
	}
}

func TestCloseDuringLoad(t *testing.T) {
	engine := miditest.New(contracts.CapAll)
	p := newTestPlayer(t, engine)

	pending, _ := p.Initialize(contracts.SynthConfig{})
	<-engine.Started()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := wait(t, pending); !errors.Is(err, contracts.ErrClosed) {
		t.Fatalf("load after Close = %v, want ErrClosed", err)
	}
	if p.State() != contracts.StateUninitialized {
		t.Fatalf("state after Close = %s", p.State())
	}
	if engine.Closes() != 1 {
		t.Fatalf("abandoned engine closed %d times", engine.Closes())
	}
}

func TestReinitializeClosesPreviousEngine(t *testing.T) {
	p, engine := readyPlayer(t, contracts.CapAll)

	pending, err := p.Initialize(contracts.SynthConfig{Instruments: []string{"cello"}})
	if err != nil {
		t.Fatalf("re-Initialize: %v", err)
	}
	if engine.Closes() != 1 {
		t.Fatalf("previous engine closed %d times", engine.Closes())
	}
	if _, ok := p.Instrument(contracts.DefaultInstrument); ok {
		t.Fatalf("catalog of previous engine survived re-initialize")
	}
	engine.Succeed()
	if err := wait(t, pending); err != nil {
		t.Fatalf("load: %v", err)
	}
	if engine.Loads() != 2 {
		t.Fatalf("loads = %d", engine.Loads())
	}
}

func TestCloseReleasesEngine(t *testing.T) {
	p, engine := readyPlayer(t, contracts.CapAll)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if engine.Closes() != 1 {
		t.Fatalf("engine closed %d times", engine.Closes())
	}
	if err := p.NoteOn(0, 60, 100, 0); !errors.Is(err, contracts.ErrNotReady) {
		t.Fatalf("NoteOn after Close = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if engine.Closes() != 1 {
		t.Fatalf("second Close reached the engine")
	}
}
