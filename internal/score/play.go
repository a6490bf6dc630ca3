package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"go.uber.org/multierr"
)

// DefaultLookahead is how far ahead of its time an event is handed to the
// dispatcher when Options.Lookahead is zero.
const DefaultLookahead = 100 * time.Millisecond

// Dispatcher receives score events. *midi.Player implements it.
type Dispatcher interface {
	NoteOn(channel, note, velocity int, delay time.Duration) error
	NoteOff(channel, note int, delay time.Duration) error
	ProgramChange(channel, program int, delay time.Duration) error
	ControlChange(channel, controller, value int, delay time.Duration) error
	PitchBend(channel, value int, delay time.Duration) error
	ChannelAftertouch(channel, pressure int, delay time.Duration) error
	PolyAftertouch(channel, note, pressure int, delay time.Duration) error
}

// Options tunes Play.
type Options struct {
	Lookahead time.Duration
	Logger    contracts.Logger
}

type key struct{ channel, note int }

// Play hands every event to d Lookahead before it is due, passing the
// remaining time as the dispatch delay, and returns once the last event is
// due. Events the engine does not support are skipped. When ctx is done,
// every note still sounding is released and ctx's error is returned.
func Play(ctx context.Context, d Dispatcher, s *Score, opts Options) error {
	lookahead := opts.Lookahead
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}

	start := time.Now()
	sounding := make(map[key]struct{})
	skipped := 0

	for _, ev := range s.Events {
		if err := sleepUntil(ctx, start.Add(ev.At-lookahead)); err != nil {
			release(d, sounding, lookahead, opts.Logger)
			return err
		}
		delay := max(time.Until(start.Add(ev.At)), 0)

		err := send(d, ev, delay)
		if errors.Is(err, contracts.ErrUnsupported) {
			skipped++
			continue
		}
		if err != nil {
			release(d, sounding, lookahead, opts.Logger)
			return fmt.Errorf("%s at %s: %w", ev.Kind, ev.At, err)
		}

		k := key{ev.Channel, ev.Note}
		switch {
		case ev.Kind == NoteOn && ev.Value > 0:
			sounding[k] = struct{}{}
		case ev.Kind == NoteOn, ev.Kind == NoteOff:
			delete(sounding, k)
		}
	}

	if err := sleepUntil(ctx, start.Add(s.Duration())); err != nil {
		release(d, sounding, lookahead, opts.Logger)
		return err
	}
	if skipped > 0 && opts.Logger != nil {
		opts.Logger.Warn("skipped unsupported events",
			opts.Logger.Field().String("score", s.Name),
			opts.Logger.Field().Int("count", skipped))
	}
	return nil
}

func send(d Dispatcher, ev Event, delay time.Duration) error {
	switch ev.Kind {
	case NoteOn:
		return d.NoteOn(ev.Channel, ev.Note, ev.Value, delay)
	case NoteOff:
		return d.NoteOff(ev.Channel, ev.Note, delay)
	case ProgramChange:
		return d.ProgramChange(ev.Channel, ev.Value, delay)
	case ControlChange:
		return d.ControlChange(ev.Channel, ev.Controller, ev.Value, delay)
	case PitchBend:
		return d.PitchBend(ev.Channel, ev.Value, delay)
	case ChannelAftertouch:
		return d.ChannelAftertouch(ev.Channel, ev.Value, delay)
	case PolyAftertouch:
		return d.PolyAftertouch(ev.Channel, ev.Note, ev.Value, delay)
	}
	return fmt.Errorf("unknown event kind %d", int(ev.Kind))
}

// release turns off every sounding note now and again after lookahead, so
// note-ons already handed to the engine with a delay are released too.
// Failed note-offs are logged; the caller is already returning an error.
func release(d Dispatcher, sounding map[key]struct{}, lookahead time.Duration, log contracts.Logger) {
	var err error
	for k := range sounding {
		err = multierr.Append(err, d.NoteOff(k.channel, k.note, 0))
		err = multierr.Append(err, d.NoteOff(k.channel, k.note, lookahead))
	}
	if err != nil && log != nil {
		log.Warn("releasing sounding notes",
			log.Field().Int("notes", len(sounding)),
			log.Field().Error("error", err))
	}
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	wait := time.Until(deadline)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
