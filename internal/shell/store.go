package shell

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps one Shell per browser session, in memory only.
type Store struct {
	mu      sync.RWMutex
	shells  map[string]*Shell
	factory func() *Shell
}

// NewStore creates a store that builds new shells with factory.
func NewStore(factory func() *Shell) *Store {
	return &Store{
		shells:  make(map[string]*Shell),
		factory: factory,
	}
}

// Get returns the shell for id, if any.
func (s *Store) Get(id string) (*Shell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shells[id]
	return sh, ok
}

// GetOrCreate returns the shell for id, creating it when unknown. A
// well-formed but unknown id (for example a cookie from before a restart) is
// reused; anything else gets a fresh random id. A shell that was closed is
// replaced under the same id. The id actually used is returned alongside the
// shell, which is marked active so Prune does not take it.
func (s *Store) GetOrCreate(id string) (string, *Shell) {
	s.mu.RLock()
	if sh, ok := s.shells[id]; ok && !sh.Closed() {
		sh.touch()
		s.mu.RUnlock()
		return id, sh
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sh, ok := s.shells[id]; ok && !sh.Closed() {
		sh.touch()
		return id, sh
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	sh := s.factory()
	s.shells[id] = sh
	return id, sh
}

// Len returns the number of sessions held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shells)
}

// Prune closes and drops idle shells not touched since cutoff and returns how
// many were removed. Shells with an attempt in flight are kept.
func (s *Store) Prune(cutoff time.Time) int {
	s.mu.Lock()
	var stale []*Shell
	for id, sh := range s.shells {
		last, idle := sh.IdleSince()
		if idle && last.Before(cutoff) {
			delete(s.shells, id)
			stale = append(stale, sh)
		}
	}
	s.mu.Unlock()

	for _, sh := range stale {
		sh.Close()
	}
	return len(stale)
}

// Close closes every shell and empties the store.
func (s *Store) Close() {
	s.mu.Lock()
	shells := s.shells
	s.shells = make(map[string]*Shell)
	s.mu.Unlock()

	for _, sh := range shells {
		sh.Close()
	}
}
