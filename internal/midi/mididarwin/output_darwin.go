//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midiplayer/internal/midi/port"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI output handling.
var (
	ErrCreateOutputPort = errors.New("error creating output port")
	ErrOutputClosed     = errors.New("CoreMIDI output closed")
)

// coreMIDIPort is the process-wide client and output port. go-coremidi has
// no way to dispose either, so every Output shares one pair.
type coreMIDIPort struct {
	client coremidi.Client
	port   coremidi.OutputPort
}

var ports = session[coreMIDIPort]{open: openPort}

func openPort(clientName string) (coreMIDIPort, error) {
	client, err := coremidi.NewClient(clientName)
	if err != nil {
		return coreMIDIPort{}, fmt.Errorf("error creating CoreMIDI client: %w", err)
	}
	outputPort, err := coremidi.NewOutputPort(client, "Output Port")
	if err != nil {
		return coreMIDIPort{}, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	return coreMIDIPort{client: client, port: outputPort}, nil
}

// Output sends MIDI packets to one CoreMIDI destination.
type Output struct {
	mu          sync.Mutex
	outputPort  coremidi.OutputPort
	destination coremidi.Destination
	name        string
	closed      bool
}

// ListDevices retrieves the available CoreMIDI destinations.
func ListDevices() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		return nil, contracts.ErrNoMIDIDevices
	}
	return describe(destinations), nil
}

func describe(destinations []coremidi.Destination) []contracts.DeviceInfo {
	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, destination := range destinations {
		// Destinations do not expose their entity; the endpoint name stands in.
		devices[i] = contracts.DeviceInfo{
			Index:        i,
			Name:         destination.Name(),
			EntityName:   destination.Name(),
			Manufacturer: destination.Manufacturer(),
		}
	}
	return devices
}

// Open connects to the destination selected by opts.OutputDevice.
func Open(opts *contracts.PlayerOptions) (port.Output, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	device, err := port.Select(describe(destinations), opts.OutputDevice)
	if err != nil {
		opts.Logger.Warn(err.Error())
		return nil, err
	}

	shared, err := ports.get(opts.ClientName)
	if err != nil {
		opts.Logger.Error("CoreMIDI output port unavailable", opts.Logger.Field().Error("error", err))
		return nil, err
	}

	opts.Logger.Info("MIDI destination selected",
		opts.Logger.Field().Int("deviceID", device.Index),
		opts.Logger.Field().String("deviceName", device.Name))

	return &Output{
		outputPort:  shared.port,
		destination: destinations[device.Index],
		name:        device.Name,
	}, nil
}

// Send writes one MIDI message as a packet stamped "now".
func (o *Output) Send(msg []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrOutputClosed
	}
	packet := coremidi.NewPacket(msg, 0)
	if err := packet.Send(&o.outputPort, &o.destination); err != nil {
		return fmt.Errorf("send to %s: %w", o.name, err)
	}
	return nil
}

// Close stops further sends. The shared port stays open for later Outputs.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// String returns the destination name.
func (o *Output) String() string {
	return o.name
}
