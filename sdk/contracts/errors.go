package contracts

import (
	"errors"
	"fmt"
)

// Validation and lifecycle errors returned synchronously by the player.
var (
	ErrNotReady       = errors.New("player is not ready")
	ErrOutOfRange     = errors.New("parameter out of range")
	ErrUnsupported    = errors.New("operation not supported by the loaded engine")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrLoadInProgress = errors.New("a load is already in progress")
)

// Errors delivered through a Pending load.
var (
	ErrClosed             = errors.New("player closed")
	ErrUnknownInstrument  = errors.New("unknown instrument")
	ErrInstrumentNotFound = errors.New("instrument not present in soundfont")
	ErrUnsupportedOS      = errors.New("unsupported operating system")
	ErrNoMIDIDevices      = errors.New("no MIDI devices found")
	ErrEngineClosed       = errors.New("engine closed")
)

// RangeError reports a dispatch argument outside its valid range.
type RangeError struct {
	Param string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %s=%d not in [%d, %d]", ErrOutOfRange, e.Param, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}
