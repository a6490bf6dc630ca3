package score

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/midiplayer/internal/logger"
	"github.com/leandrodaf/midiplayer/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sent struct {
	kind    Kind
	channel int
	note    int
	delay   time.Duration
}

type recorder struct {
	mu          sync.Mutex
	sent        []sent
	unsupported Kind
}

func (r *recorder) add(k Kind, channel, note int, delay time.Duration) error {
	if k == r.unsupported {
		return contracts.ErrUnsupported
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{k, channel, note, delay})
	return nil
}

func (r *recorder) events() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.sent...)
}

func (r *recorder) NoteOn(channel, note, _ int, delay time.Duration) error {
	return r.add(NoteOn, channel, note, delay)
}

func (r *recorder) NoteOff(channel, note int, delay time.Duration) error {
	return r.add(NoteOff, channel, note, delay)
}

func (r *recorder) ProgramChange(channel, _ int, delay time.Duration) error {
	return r.add(ProgramChange, channel, 0, delay)
}

func (r *recorder) ControlChange(channel, _, _ int, delay time.Duration) error {
	return r.add(ControlChange, channel, 0, delay)
}

func (r *recorder) PitchBend(channel, _ int, delay time.Duration) error {
	return r.add(PitchBend, channel, 0, delay)
}

func (r *recorder) ChannelAftertouch(channel, _ int, delay time.Duration) error {
	return r.add(ChannelAftertouch, channel, 0, delay)
}

func (r *recorder) PolyAftertouch(channel, note, _ int, delay time.Duration) error {
	return r.add(PolyAftertouch, channel, note, delay)
}

func TestPlayPassesRemainingTimeAsDelay(t *testing.T) {
	s := &Score{Events: []Event{
		{At: 0, Kind: NoteOn, Note: 60, Value: 100},
		{At: 20 * time.Millisecond, Kind: PitchBend, Value: 9000},
		{At: 40 * time.Millisecond, Kind: NoteOff, Note: 60},
	}}
	r := &recorder{unsupported: -1}

	start := time.Now()
	if err := Play(context.Background(), r, s, Options{Lookahead: time.Second, Logger: logger.NewNopLogger()}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Fatalf("Play returned after %s, before the last event was due", elapsed)
	}

	got := r.events()
	if len(got) != 3 {
		t.Fatalf("sent = %+v", got)
	}
	for i, ev := range s.Events {
		if got[i].kind != ev.Kind {
			t.Fatalf("event %d kind = %s, want %s", i, got[i].kind, ev.Kind)
		}
		if got[i].delay > ev.At || got[i].delay < 0 {
			t.Fatalf("event %d delay = %s, due at %s", i, got[i].delay, ev.At)
		}
	}
	if got[2].delay == 0 {
		t.Fatalf("look-ahead did not hand the note-off over early")
	}
}

func TestPlaySkipsUnsupported(t *testing.T) {
	s := &Score{Name: "bend", Events: []Event{
		{At: 0, Kind: PitchBend, Value: 9000},
		{At: 0, Kind: NoteOn, Note: 64, Value: 80},
		{At: 0, Kind: NoteOff, Note: 64},
	}}
	r := &recorder{unsupported: PitchBend}

	if err := Play(context.Background(), r, s, Options{Logger: logger.NewNopLogger()}); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := r.events(); len(got) != 2 || got[0].kind != NoteOn {
		t.Fatalf("sent = %+v", got)
	}
}

func TestPlayReleasesNotesOnCancel(t *testing.T) {
	s := &Score{Events: []Event{
		{At: 0, Kind: NoteOn, Channel: 2, Note: 67, Value: 100},
		{At: time.Hour, Kind: NoteOff, Channel: 2, Note: 67},
	}}
	r := &recorder{unsupported: -1}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := Play(ctx, r, s, Options{Lookahead: time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Play = %v, want deadline exceeded", err)
	}

	got := r.events()
	if len(got) != 3 {
		t.Fatalf("sent = %+v", got)
	}
	for _, off := range got[1:] {
		if off.kind != NoteOff || off.channel != 2 || off.note != 67 {
			t.Fatalf("release = %+v", off)
		}
	}
}

type failing struct{ recorder }

func (f *failing) NoteOn(int, int, int, time.Duration) error {
	return &contracts.RangeError{Param: "note", Value: 200, Max: contracts.MaxNote}
}

func TestPlayStopsOnDispatchError(t *testing.T) {
	s := &Score{Events: []Event{{Kind: NoteOn, Note: 200, Value: 1}}}
	err := Play(context.Background(), &failing{recorder{unsupported: -1}}, s, Options{})
	if !errors.Is(err, contracts.ErrOutOfRange) {
		t.Fatalf("Play = %v, want ErrOutOfRange", err)
	}
}

type closedEngine struct{ recorder }

func (c *closedEngine) NoteOff(int, int, time.Duration) error {
	return contracts.ErrEngineClosed
}

func TestPlayLogsFailedRelease(t *testing.T) {
	s := &Score{Events: []Event{
		{At: 0, Kind: NoteOn, Note: 60, Value: 100},
		{At: time.Hour, Kind: NoteOff, Note: 60},
	}}
	core, logs := observer.New(zapcore.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := Play(ctx, &closedEngine{recorder{unsupported: -1}}, s, Options{Lookahead: time.Millisecond, Logger: logger.New(core)})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Play = %v, want deadline exceeded", err)
	}

	entries := logs.FilterMessage("releasing sounding notes").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d release warnings, want 1", len(entries))
	}
	if msg, _ := entries[0].ContextMap()["error"].(string); !strings.Contains(msg, contracts.ErrEngineClosed.Error()) {
		t.Fatalf("release warning error = %q", msg)
	}
}
