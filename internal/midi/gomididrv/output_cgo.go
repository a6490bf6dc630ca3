//go:build cgo

// Package gomididrv opens MIDI outputs through RtMidi via gomidi.
package gomididrv

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midiplayer/internal/midi/port"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

// Output wraps one opened RtMidi output and the driver that owns it.
type Output struct {
	mu     sync.Mutex
	driver *rtmididrv.Driver
	out    drivers.Out
}

// ListDevices lists the RtMidi outputs.
func ListDevices() ([]contracts.DeviceInfo, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open rtmidi driver: %w", err)
	}
	defer driver.Close()

	outs, err := driver.Outs()
	if err != nil {
		return nil, fmt.Errorf("list rtmidi outputs: %w", err)
	}
	return describe(outs), nil
}

func describe(outs []drivers.Out) []contracts.DeviceInfo {
	devices := make([]contracts.DeviceInfo, len(outs))
	for i, out := range outs {
		devices[i] = contracts.DeviceInfo{Index: i, Name: out.String(), EntityName: out.String()}
	}
	return devices
}

// Open opens the output selected by opts.OutputDevice.
func Open(opts *contracts.PlayerOptions) (port.Output, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open rtmidi driver: %w", err)
	}
	outs, err := driver.Outs()
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("list rtmidi outputs: %w", err)
	}
	device, err := port.Select(describe(outs), opts.OutputDevice)
	if err != nil {
		driver.Close()
		return nil, err
	}

	out := outs[device.Index]
	if err := out.Open(); err != nil {
		driver.Close()
		return nil, fmt.Errorf("opening MIDI output failed: %w", err)
	}
	return &Output{driver: driver, out: out}, nil
}

// Send writes one raw MIDI message.
func (o *Output) Send(msg []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.out.Send(msg)
}

// Close closes the output and the driver that opened it.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var err error
	if o.out.IsOpen() {
		err = o.out.Close()
	}
	return multierr.Append(err, o.driver.Close())
}

// String returns the RtMidi port name.
func (o *Output) String() string {
	return o.out.String()
}
