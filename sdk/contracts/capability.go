package contracts

import "strings"

// Capability is a set of optional dispatch operations.
type Capability uint8

const (
	CapProgramChange Capability = 1 << iota
	CapControlChange
	CapPitchBend
	CapChannelAftertouch
	CapPolyAftertouch

	CapNone Capability = 0
	CapAll             = CapProgramChange | CapControlChange | CapPitchBend | CapChannelAftertouch | CapPolyAftertouch
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapProgramChange, "program_change"},
	{CapControlChange, "control_change"},
	{CapPitchBend, "pitch_bend"},
	{CapChannelAftertouch, "channel_aftertouch"},
	{CapPolyAftertouch, "poly_aftertouch"},
}

// Has reports whether every operation in other is present in c.
func (c Capability) Has(other Capability) bool {
	return other != CapNone && c&other == other
}

func (c Capability) String() string {
	if c == CapNone {
		return "none"
	}
	var parts []string
	for _, n := range capabilityNames {
		if c&n.cap != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
