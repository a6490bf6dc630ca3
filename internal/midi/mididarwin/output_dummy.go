//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/midiplayer/internal/midi/port"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// ListDevices reports that CoreMIDI is unavailable on this platform.
func ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, fmt.Errorf("%w: CoreMIDI requires darwin", contracts.ErrUnsupportedOS)
}

// Open reports that CoreMIDI is unavailable on this platform.
func Open(opts *contracts.PlayerOptions) (port.Output, error) {
	opts.Logger.Warn("CoreMIDI output requested on non-macOS system")
	return nil, fmt.Errorf("%w: CoreMIDI requires darwin", contracts.ErrUnsupportedOS)
}
