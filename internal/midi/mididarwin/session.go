package mididarwin

import "sync"

// session hands every caller the same lazily opened handle. A failed open is
// retried by the next caller.
type session[T any] struct {
	mu     sync.Mutex
	open   func(name string) (T, error)
	handle T
	opened bool
}

func (s *session[T]) get(name string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return s.handle, nil
	}
	handle, err := s.open(name)
	if err != nil {
		var zero T
		return zero, err
	}
	s.handle, s.opened = handle, true
	return handle, nil
}
