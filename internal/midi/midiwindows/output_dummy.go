//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/midiplayer/internal/midi/port"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// ListDevices reports that WinMM is unavailable on this platform.
func ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, fmt.Errorf("%w: WinMM requires windows", contracts.ErrUnsupportedOS)
}

// Open reports that WinMM is unavailable on this platform.
func Open(opts *contracts.PlayerOptions) (port.Output, error) {
	opts.Logger.Warn("WinMM output requested on non-Windows system")
	return nil, fmt.Errorf("%w: WinMM requires windows", contracts.ErrUnsupportedOS)
}
