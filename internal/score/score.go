// Package score reads timed MIDI event lists from Standard MIDI Files or
// YAML documents and plays them through a player.
package score

import (
	"fmt"
	"slices"
	"time"
)

// Kind is the dispatch operation an Event maps to.
type Kind int

const (
	NoteOn Kind = iota
	NoteOff
	ProgramChange
	ControlChange
	PitchBend
	ChannelAftertouch
	PolyAftertouch
)

var kindNames = map[Kind]string{
	NoteOn:            "note_on",
	NoteOff:           "note_off",
	ProgramChange:     "program_change",
	ControlChange:     "control_change",
	PitchBend:         "pitch_bend",
	ChannelAftertouch: "channel_aftertouch",
	PolyAftertouch:    "poly_aftertouch",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func parseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Event is one timed MIDI event. Note is also used for the polyphonic
// aftertouch key; Value carries velocity, program, controller value, bend
// or pressure depending on Kind.
type Event struct {
	At         time.Duration
	Kind       Kind
	Channel    int
	Note       int
	Controller int
	Value      int
}

// Score is a named list of events ordered by time.
type Score struct {
	Name        string
	Instruments []string
	Events      []Event
}

// Duration is the time of the last event.
func (s *Score) Duration() time.Duration {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].At
}

// sort orders events by time, keeping file order for simultaneous events.
func (s *Score) sort() {
	slices.SortStableFunc(s.Events, func(a, b Event) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
}
