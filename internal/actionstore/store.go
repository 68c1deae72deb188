// Package actionstore holds proposed actions between the turn that
// proposes them and the turn the customer confirms. It is an explicit,
// injected store with a bounded TTL rather than process-global state.
package actionstore

import (
	"sync"
	"time"

	"maitred/internal/engine"

	"github.com/google/uuid"
)

// DefaultTTL is how long a proposed action stays confirmable
const DefaultTTL = 10 * time.Minute

type entry struct {
	action    *engine.CandidateAction
	expiresAt time.Time
}

// Store is a TTL-bounded keyed store of pending actions
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// New creates a store with the given TTL (DefaultTTL if zero) and starts
// its expiry sweep
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Put stores an action and returns its id
func (s *Store) Put(action *engine.CandidateAction) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = entry{action: action, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return id
}

// Get returns the action for id if it exists and has not expired
func (s *Store) Get(id string) (*engine.CandidateAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.entries, id)
		return nil, false
	}
	return e.action, true
}

// Delete removes the action for id
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// Len returns the number of live entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop ends the expiry sweep
func (s *Store) Stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
