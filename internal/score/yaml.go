package score

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

type yamlScore struct {
	Name        string      `yaml:"name"`
	Instruments []string    `yaml:"instruments"`
	Events      []yamlEvent `yaml:"events"`
}

type yamlEvent struct {
	At         string `yaml:"at"`
	Type       string `yaml:"type"`
	Channel    int    `yaml:"channel"`
	Note       int    `yaml:"note"`
	Velocity   int    `yaml:"velocity"`
	Duration   string `yaml:"duration"`
	Program    int    `yaml:"program"`
	Controller int    `yaml:"controller"`
	Value      int    `yaml:"value"`
	Pressure   int    `yaml:"pressure"`
}

// ReadYAML decodes a score document:
//
//	name: scale
//	instruments: [acoustic_grand_piano]
//	events:
//	  - {at: 0s, type: note_on, channel: 0, note: 60, velocity: 100, duration: 500ms}
//	  - {at: 500ms, type: pitch_bend, channel: 0, value: 8192}
//
// A note_on with a duration also produces the matching note_off.
func ReadYAML(r io.Reader) (*Score, error) {
	var doc yamlScore
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode score: %w", err)
	}

	s := &Score{Name: doc.Name, Instruments: doc.Instruments}
	for i, ye := range doc.Events {
		events, err := ye.events()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		s.Events = append(s.Events, events...)
	}
	s.sort()
	return s, nil
}

func (ye yamlEvent) events() ([]Event, error) {
	kind, err := parseKind(ye.Type)
	if err != nil {
		return nil, err
	}
	at, err := parseOffset("at", ye.At)
	if err != nil {
		return nil, err
	}

	ev := Event{At: at, Kind: kind, Channel: ye.Channel, Note: ye.Note}
	switch kind {
	case NoteOn:
		ev.Value = ye.Velocity
	case ProgramChange:
		ev.Value = ye.Program
	case ControlChange:
		ev.Controller = ye.Controller
		ev.Value = ye.Value
	case PitchBend:
		ev.Value = ye.Value
	case ChannelAftertouch, PolyAftertouch:
		ev.Value = ye.Pressure
	}

	if ye.Duration == "" {
		return []Event{ev}, nil
	}
	if kind != NoteOn {
		return nil, fmt.Errorf("duration is only valid on note_on, not %s", kind)
	}
	d, err := parseOffset("duration", ye.Duration)
	if err != nil {
		return nil, err
	}
	off := Event{At: at + d, Kind: NoteOff, Channel: ye.Channel, Note: ye.Note}
	return []Event{ev, off}, nil
}

func parseOffset(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative offset %s", field, s)
	}
	return d, nil
}
