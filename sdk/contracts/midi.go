package contracts

import (
	"context"
	"time"
)

// MIDI value ranges enforced by the player before anything reaches an engine.
const (
	MaxChannel   = 15
	MaxNote      = 127
	MaxVelocity  = 127
	MaxProgram   = 127
	MaxControl   = 127
	MaxPressure  = 127
	MaxPitchBend = 16383
	// PitchBendCenter is the 14-bit pitch bend value for "no bend".
	PitchBendCenter = 8192
)

// Engine is a stateful synthesis or MIDI-output backend driven by a player.
// Dispatch methods receive already validated arguments and must not block;
// a positive delay asks the engine to apply the event that far in the future.
type Engine interface {
	// Load prepares the engine and preloads cfg.Instruments, reporting
	// progress as it goes. It blocks until the engine is usable or fails.
	Load(ctx context.Context, cfg SynthConfig, progress ProgressFunc) ([]Instrument, error)
	// LoadInstrument makes one more instrument available after Load succeeded.
	LoadInstrument(ctx context.Context, name string) (Instrument, error)

	NoteOn(channel, note, velocity uint8, delay time.Duration) error
	NoteOff(channel, note uint8, delay time.Duration) error

	// Capabilities declares the optional operations the engine supports.
	Capabilities() Capability
	// Close releases the engine. Pending delayed events are dropped.
	Close() error
}

// ProgramChanger is implemented by engines supporting CapProgramChange.
type ProgramChanger interface {
	ProgramChange(channel, program uint8, delay time.Duration) error
}

// ControlChanger is implemented by engines supporting CapControlChange.
type ControlChanger interface {
	ControlChange(channel, controller, value uint8, delay time.Duration) error
}

// PitchBender is implemented by engines supporting CapPitchBend. Value is
// the absolute 14-bit bend, PitchBendCenter meaning no bend.
type PitchBender interface {
	PitchBend(channel uint8, value uint16, delay time.Duration) error
}

// ChannelAftertoucher is implemented by engines supporting CapChannelAftertouch.
type ChannelAftertoucher interface {
	ChannelAftertouch(channel, pressure uint8, delay time.Duration) error
}

// PolyAftertoucher is implemented by engines supporting CapPolyAftertouch.
type PolyAftertoucher interface {
	PolyAftertouch(channel, note, pressure uint8, delay time.Duration) error
}

// EngineFactory constructs an engine for one Initialize call.
type EngineFactory func(opts *PlayerOptions) (Engine, error)
