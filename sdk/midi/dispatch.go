package midi

import (
	"fmt"
	"time"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

// dispatch runs send against the current engine under the read lock after
// checking, in order, the state, the capability and the argument ranges.
// Nothing reaches the engine unless all three pass.
func (p *Player) dispatch(required contracts.Capability, delay time.Duration, args []arg, send func(*operations, contracts.Engine) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != contracts.StateReady {
		return fmt.Errorf("%w: state %s", contracts.ErrNotReady, p.state)
	}
	if required != contracts.CapNone && !p.ops.caps.Has(required) {
		return fmt.Errorf("%w: %s", contracts.ErrUnsupported, required)
	}
	if err := validate(delay, args...); err != nil {
		return err
	}
	return send(&p.ops, p.engine)
}

// NoteOn starts note on channel after delay.
func (p *Player) NoteOn(channel, note, velocity int, delay time.Duration) error {
	return p.dispatch(contracts.CapNone, delay,
		[]arg{channelArg(channel), noteArg(note), velocityArg(velocity)},
		func(_ *operations, e contracts.Engine) error {
			return e.NoteOn(uint8(channel), uint8(note), uint8(velocity), delay)
		})
}

// NoteOff releases note on channel after delay.
func (p *Player) NoteOff(channel, note int, delay time.Duration) error {
	return p.dispatch(contracts.CapNone, delay,
		[]arg{channelArg(channel), noteArg(note)},
		func(_ *operations, e contracts.Engine) error {
			return e.NoteOff(uint8(channel), uint8(note), delay)
		})
}

// ProgramChange selects program on channel.
func (p *Player) ProgramChange(channel, program int, delay time.Duration) error {
	return p.dispatch(contracts.CapProgramChange, delay,
		[]arg{channelArg(channel), {"program", program, contracts.MaxProgram}},
		func(ops *operations, _ contracts.Engine) error {
			return ops.program.ProgramChange(uint8(channel), uint8(program), delay)
		})
}

// ControlChange sets controller to value on channel.
func (p *Player) ControlChange(channel, controller, value int, delay time.Duration) error {
	return p.dispatch(contracts.CapControlChange, delay,
		[]arg{channelArg(channel), {"controller", controller, contracts.MaxControl}, {"value", value, contracts.MaxControl}},
		func(ops *operations, _ contracts.Engine) error {
			return ops.control.ControlChange(uint8(channel), uint8(controller), uint8(value), delay)
		})
}

// PitchBend bends channel to the absolute 14-bit value; contracts.PitchBendCenter
// is no bend.
func (p *Player) PitchBend(channel, value int, delay time.Duration) error {
	return p.dispatch(contracts.CapPitchBend, delay,
		[]arg{channelArg(channel), {"value", value, contracts.MaxPitchBend}},
		func(ops *operations, _ contracts.Engine) error {
			return ops.bend.PitchBend(uint8(channel), uint16(value), delay)
		})
}

// ChannelAftertouch applies pressure to every sounding note of channel.
func (p *Player) ChannelAftertouch(channel, pressure int, delay time.Duration) error {
	return p.dispatch(contracts.CapChannelAftertouch, delay,
		[]arg{channelArg(channel), {"pressure", pressure, contracts.MaxPressure}},
		func(ops *operations, _ contracts.Engine) error {
			return ops.channel.ChannelAftertouch(uint8(channel), uint8(pressure), delay)
		})
}

// PolyAftertouch applies pressure to one note of channel.
func (p *Player) PolyAftertouch(channel, note, pressure int, delay time.Duration) error {
	return p.dispatch(contracts.CapPolyAftertouch, delay,
		[]arg{channelArg(channel), noteArg(note), {"pressure", pressure, contracts.MaxPressure}},
		func(ops *operations, _ contracts.Engine) error {
			return ops.poly.PolyAftertouch(uint8(channel), uint8(note), uint8(pressure), delay)
		})
}
