//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/midiplayer/internal/midi/port"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"golang.org/x/sys/windows"
)

// HMIDIOUT is a WinMM MIDI output handle.
type HMIDIOUT windows.Handle

// CALLBACK_NULL opens the device without completion notifications.
const CALLBACK_NULL = 0x00000000

// ErrOutputClosed is returned by Send after Close.
var ErrOutputClosed = errors.New("WinMM output closed")

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutReset      = winmm.NewProc("midiOutReset")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// Output writes short MIDI messages to a WinMM output device.
type Output struct {
	mu     sync.Mutex
	handle HMIDIOUT
	name   string
}

// ListDevices lists the available MIDI output devices
func ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices = append(devices, contracts.DeviceInfo{
			Index:        int(i),
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// Open opens the output device selected by opts.OutputDevice.
func Open(opts *contracts.PlayerOptions) (port.Output, error) {
	devices, err := ListDevices()
	if err != nil {
		return nil, err
	}
	device, err := port.Select(devices, opts.OutputDevice)
	if err != nil {
		opts.Logger.Warn(err.Error())
		return nil, err
	}

	o := &Output{name: device.Name}
	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&o.handle)),
		uintptr(device.Index),
		0,
		0,
		CALLBACK_NULL,
	)
	if r1 != 0 {
		opts.Logger.Error(fmt.Sprintf("Failed to open MIDI output %d: %v", device.Index, err))
		return nil, fmt.Errorf("failed to open MIDI output %d: %v", device.Index, err)
	}

	opts.Logger.Info(fmt.Sprintf("MIDI output %d connected", device.Index))
	return o, nil
}

// Send packs a channel message into a WinMM short message.
func (o *Output) Send(msg []byte) error {
	if len(msg) == 0 || len(msg) > 3 {
		return fmt.Errorf("WinMM short message must be 1-3 bytes, got %d", len(msg))
	}
	var packed uint32
	for i, b := range msg {
		packed |= uint32(b) << (8 * i)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handle == 0 {
		return ErrOutputClosed
	}
	r1, _, err := procMidiOutShortMsg.Call(uintptr(o.handle), uintptr(packed))
	if r1 != 0 {
		return fmt.Errorf("midiOutShortMsg: %v", err)
	}
	return nil
}

// Close resets and releases the device.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.handle == 0 {
		return nil
	}
	procMidiOutReset.Call(uintptr(o.handle))
	r1, _, err := procMidiOutClose.Call(uintptr(o.handle))
	o.handle = 0
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI output: %v", err)
	}
	return nil
}

func (o *Output) String() string {
	return o.name
}
