package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution; late arrivals wait and receive the shared result.
type SingleFlight struct {
	mu      sync.Mutex
	pending map[string]*flight
}

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key at a time. The third return reports whether the
// result was shared from another caller's execution.
func (s *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	s.mu.Lock()
	if s.pending == nil {
		s.pending = make(map[string]*flight)
	}
	if f, ok := s.pending[key]; ok {
		s.mu.Unlock()
		<-f.done
		return f.val, f.err, true
	}

	f := &flight{done: make(chan struct{})}
	s.pending[key] = f
	s.mu.Unlock()

	f.val, f.err = fn()
	close(f.done)

	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()

	return f.val, f.err, false
}
