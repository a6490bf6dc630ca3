package contracts

import (
	"fmt"
	"slices"
)

// Format is the sample encoding an audio-producing engine renders to.
type Format int

const (
	// FormatDefault lets the engine pick; it resolves to FormatFloat32LE.
	FormatDefault Format = iota
	FormatFloat32LE
	FormatInt16LE
	FormatUint8
)

var formatNames = map[Format]string{
	FormatDefault:   "default",
	FormatFloat32LE: "f32le",
	FormatInt16LE:   "s16le",
	FormatUint8:     "u8",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// BytesPerSample is the width of one sample of one channel.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatInt16LE:
		return 2
	case FormatUint8:
		return 1
	}
	return 4
}

// ParseFormat parses the names printed by Format.String.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return FormatDefault, fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, s)
}

// API selects the engine strategy a player drives.
type API int

const (
	// APIDefault resolves to APISynth.
	APIDefault API = iota
	// APISynth renders a soundfont in-process and plays it on the audio device.
	APISynth
	// APINative sends MIDI to an OS output (CoreMIDI on darwin, WinMM on windows).
	APINative
	// APIRtMidi sends MIDI through the RtMidi driver (requires cgo).
	APIRtMidi
)

var apiNames = map[API]string{
	APIDefault: "default",
	APISynth:   "synth",
	APINative:  "native",
	APIRtMidi:  "rtmidi",
}

func (a API) String() string {
	if name, ok := apiNames[a]; ok {
		return name
	}
	return fmt.Sprintf("API(%d)", int(a))
}

// ParseAPI parses the names printed by API.String.
func ParseAPI(s string) (API, error) {
	for a, name := range apiNames {
		if name == s {
			return a, nil
		}
	}
	return APIDefault, fmt.Errorf("%w: unknown api %q", ErrInvalidConfig, s)
}

// DefaultInstrument is preloaded when SynthConfig.Instruments is empty.
const DefaultInstrument = "acoustic_grand_piano"

// SynthConfig describes one engine load. It is consumed by Player.Initialize
// and never mutated afterwards.
type SynthConfig struct {
	SoundfontURL string   // Soundfont location; empty lets the engine choose.
	Instruments  []string // Instruments to preload; empty means DefaultInstrument.
	TargetFormat Format   // Sample encoding for audio output.
	API          API      // Engine strategy.
}

// Normalized validates the configuration and returns a copy with defaults
// applied. The caller's Instruments slice is never aliased.
func (c SynthConfig) Normalized() (SynthConfig, error) {
	if _, ok := formatNames[c.TargetFormat]; !ok {
		return SynthConfig{}, fmt.Errorf("%w: target format %d", ErrInvalidConfig, int(c.TargetFormat))
	}
	if _, ok := apiNames[c.API]; !ok {
		return SynthConfig{}, fmt.Errorf("%w: api %d", ErrInvalidConfig, int(c.API))
	}
	for _, name := range c.Instruments {
		if name == "" {
			return SynthConfig{}, fmt.Errorf("%w: empty instrument name", ErrInvalidConfig)
		}
	}

	out := c
	if out.TargetFormat == FormatDefault {
		out.TargetFormat = FormatFloat32LE
	}
	if out.API == APIDefault {
		out.API = APISynth
	}
	if len(out.Instruments) == 0 {
		out.Instruments = []string{DefaultInstrument}
	} else {
		out.Instruments = make([]string, 0, len(c.Instruments))
		for _, name := range c.Instruments {
			if !slices.Contains(out.Instruments, name) {
				out.Instruments = append(out.Instruments, name)
			}
		}
	}
	return out, nil
}
