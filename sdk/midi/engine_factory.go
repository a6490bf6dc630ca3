package midi

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/midiplayer/internal/engine/synth"
	"github.com/leandrodaf/midiplayer/internal/midi/gomididrv"
	"github.com/leandrodaf/midiplayer/internal/midi/mididarwin"
	"github.com/leandrodaf/midiplayer/internal/midi/midiwindows"
	"github.com/leandrodaf/midiplayer/internal/midi/port"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// ErrUnsupportedOS is returned when no native MIDI output exists for the operating system.
var ErrUnsupportedOS = contracts.ErrUnsupportedOS

// nativeOutputs maps OS names to the native MIDI output of that platform.
var nativeOutputs = map[string]struct {
	open port.Opener
	list func() ([]contracts.DeviceInfo, error)
}{
	"darwin":  {mididarwin.Open, mididarwin.ListDevices},   // macOS CoreMIDI.
	"windows": {midiwindows.Open, midiwindows.ListDevices}, // Windows WinMM.
}

// NewSynthEngine builds the soundfont synthesizer engine.
func NewSynthEngine(opts *contracts.PlayerOptions) (contracts.Engine, error) {
	return synth.New(opts, synth.OtoSink), nil
}

// NewNativeEngine builds an engine on the operating system's MIDI output,
// returning ErrUnsupportedOS where there is none.
func NewNativeEngine(opts *contracts.PlayerOptions) (contracts.Engine, error) {
	if native, exists := nativeOutputs[runtime.GOOS]; exists {
		return port.NewEngine(opts, native.open), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}

// NewRtMidiEngine builds an engine on an RtMidi output.
func NewRtMidiEngine(opts *contracts.PlayerOptions) (contracts.Engine, error) {
	return port.NewEngine(opts, gomididrv.Open), nil
}

func defaultEngines() map[contracts.API]contracts.EngineFactory {
	return map[contracts.API]contracts.EngineFactory{
		contracts.APISynth:  NewSynthEngine,
		contracts.APINative: NewNativeEngine,
		contracts.APIRtMidi: NewRtMidiEngine,
	}
}

// ListDevices lists the MIDI outputs reachable through api. The synth API
// has a single implicit output and lists nothing.
func ListDevices(api contracts.API) ([]contracts.DeviceInfo, error) {
	switch api {
	case contracts.APINative:
		if native, exists := nativeOutputs[runtime.GOOS]; exists {
			return native.list()
		}
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
	case contracts.APIRtMidi:
		return gomididrv.ListDevices()
	}
	return nil, nil
}
