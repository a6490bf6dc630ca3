// Package schedule runs delayed MIDI sends for engines that have no clock of
// their own.
package schedule

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by After once Stop has been called.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler fires callbacks after a delay. Callbacks never run after Stop
// returns.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[uint64]*time.Timer
	next    uint64
	stopped bool
	running sync.WaitGroup
}

// New returns a running scheduler.
func New() *Scheduler {
	return &Scheduler{timers: make(map[uint64]*time.Timer)}
}

// After runs fn once delay has elapsed. A non-positive delay runs fn on the
// caller's goroutine before After returns.
func (s *Scheduler) After(delay time.Duration, fn func()) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if delay <= 0 {
		s.running.Add(1)
		s.mu.Unlock()
		defer s.running.Done()
		fn()
		return nil
	}
	id := s.next
	s.next++
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id, fn) })
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) fire(id uint64, fn func()) {
	s.mu.Lock()
	if _, ok := s.timers[id]; !ok || s.stopped {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	fn()
}

// Pending is the number of callbacks waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending callback, waits for callbacks already running
// and reports how many were dropped. Stop is idempotent.
func (s *Scheduler) Stop() int {
	s.mu.Lock()
	s.stopped = true
	dropped := 0
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
		dropped++
	}
	s.mu.Unlock()

	s.running.Wait()
	return dropped
}
