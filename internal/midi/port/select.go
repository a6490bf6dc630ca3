package port

import (
	"fmt"
	"strings"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// Select picks the device whose name starts with prefix, or the first one
// when prefix is empty.
func Select(devices []contracts.DeviceInfo, prefix string) (contracts.DeviceInfo, error) {
	if len(devices) == 0 {
		return contracts.DeviceInfo{}, contracts.ErrNoMIDIDevices
	}
	if prefix == "" {
		return devices[0], nil
	}
	for _, d := range devices {
		if strings.HasPrefix(d.Name, prefix) {
			return d, nil
		}
	}
	return contracts.DeviceInfo{}, fmt.Errorf("%w: no output starting with %q", contracts.ErrNoMIDIDevices, prefix)
}
