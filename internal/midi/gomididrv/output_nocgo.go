//go:build !cgo

package gomididrv

import (
	"errors"

	"github.com/leandrodaf/midiplayer/internal/midi/port"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// Without cgo there is no RtMidi, so every call fails.
var errNoCgo = errors.New("rtmidi output requires cgo")

// ListDevices reports that RtMidi is unavailable in this build.
func ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, errNoCgo
}

// Open reports that RtMidi is unavailable in this build.
func Open(opts *contracts.PlayerOptions) (port.Output, error) {
	return nil, errNoCgo
}
