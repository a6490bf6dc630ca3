package score

import (
	"fmt"
	"io"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadSMF reads every track of a Standard MIDI File into one score. Tempo
// changes are applied by the reader; meta and system messages are skipped.
func ReadSMF(r io.Reader) (*Score, error) {
	s := &Score{}
	rd := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		if ev, ok := convert(midi.Message(te.Event.Message)); ok {
			ev.At = time.Duration(te.AbsMicroSeconds) * time.Microsecond
			s.Events = append(s.Events, ev)
		}
	})
	if err := rd.Error(); err != nil {
		return nil, fmt.Errorf("read SMF: %w", err)
	}
	s.sort()
	return s, nil
}

func convert(msg midi.Message) (Event, bool) {
	var channel, key, value uint8
	var relative int16
	var absolute uint16

	switch {
	case msg.GetNoteStart(&channel, &key, &value):
		return Event{Kind: NoteOn, Channel: int(channel), Note: int(key), Value: int(value)}, true
	case msg.GetNoteEnd(&channel, &key):
		return Event{Kind: NoteOff, Channel: int(channel), Note: int(key)}, true
	case msg.GetProgramChange(&channel, &value):
		return Event{Kind: ProgramChange, Channel: int(channel), Value: int(value)}, true
	case msg.GetControlChange(&channel, &key, &value):
		return Event{Kind: ControlChange, Channel: int(channel), Controller: int(key), Value: int(value)}, true
	case msg.GetPitchBend(&channel, &relative, &absolute):
		return Event{Kind: PitchBend, Channel: int(channel), Value: int(absolute)}, true
	case msg.GetAfterTouch(&channel, &value):
		return Event{Kind: ChannelAftertouch, Channel: int(channel), Value: int(value)}, true
	case msg.GetPolyAfterTouch(&channel, &key, &value):
		return Event{Kind: PolyAftertouch, Channel: int(channel), Note: int(key), Value: int(value)}, true
	}
	return Event{}, false
}
