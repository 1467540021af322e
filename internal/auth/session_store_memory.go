package auth

import (
	"sync"

	"github.com/kickstart/client/internal/models"
	"github.com/kickstart/client/internal/store"
)

// NewInMemorySessionStore returns a SessionStore backed by memory, for
// tests and ephemeral runs.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{}
}

// InMemorySessionStore implements SessionStore without touching disk.
type InMemorySessionStore struct {
	mu      sync.Mutex
	session models.Session
	saved   bool

	// SaveErr, when set, is returned by SaveSession. Useful for tests.
	SaveErr error
}

// SaveSession stores the session in memory.
func (s *InMemorySessionStore) SaveSession(session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.session = session
	s.saved = true
	return nil
}

// LoadSession returns the stored session or store.ErrNotFound.
func (s *InMemorySessionStore) LoadSession() (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return models.Session{}, store.ErrNotFound
	}
	return s.session, nil
}

// DeleteSession forgets the stored session.
func (s *InMemorySessionStore) DeleteSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.Session{}
	s.saved = false
	return nil
}

// Has reports whether a session is currently stored. Useful for tests.
func (s *InMemorySessionStore) Has() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
