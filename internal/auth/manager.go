// Package auth owns the process-wide session: the bearer credential plus
// the profile it belongs to. The manager is the single writer for every
// credential mutation (login, logout, refresh success, refresh failure)
// and the canonical api.CredentialProvider implementation.
package auth

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/kickstart/client/internal/models"
	"github.com/kickstart/client/internal/store"
)

// ErrNoSession indicates no authenticated session is live.
var ErrNoSession = errors.New("auth: no active session")

// SessionStore persists the session so it survives process restarts.
type SessionStore interface {
	SaveSession(session models.Session) error
	LoadSession() (models.Session, error)
	DeleteSession() error
}

// Manager holds the live session and writes every mutation through to the
// persistent store.
type Manager struct {
	mu         sync.RWMutex
	session    models.Session
	active     bool
	rehydrated bool

	store  SessionStore
	logger *slog.Logger
}

// NewManager constructs a Manager over the given persistent store.
func NewManager(sessions SessionStore, logger *slog.Logger) *Manager {
	if sessions == nil {
		panic("auth: session store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: sessions, logger: logger}
}

// Rehydrate restores the persisted session into memory. It must complete
// before anything routes on authentication state; an absent persisted
// session is not an error. Calling it again is a no-op.
func (m *Manager) Rehydrate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rehydrated {
		return nil
	}

	session, err := m.store.LoadSession()
	switch {
	case err == nil:
		m.session = session
		m.active = true
	case errors.Is(err, store.ErrNotFound):
		// First run or logged out; nothing to restore.
	default:
		return err
	}

	m.rehydrated = true
	return nil
}

// Rehydrated reports whether the persisted session has been restored.
func (m *Manager) Rehydrated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rehydrated
}

// Login installs a freshly issued session and persists it.
func (m *Manager) Login(session models.Session) error {
	if session.Token == "" {
		return errors.New("auth: session token must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveSession(session); err != nil {
		return err
	}
	m.session = session
	m.active = true
	m.rehydrated = true
	m.logger.Info("session established", "userId", session.User.ID)
	return nil
}

// Logout clears the live session and its persisted copy. Logging out
// while unauthenticated is a no-op.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteSession(); err != nil {
		return err
	}
	m.session = models.Session{}
	m.active = false
	m.logger.Info("session cleared")
	return nil
}

// Session returns the live session, or ErrNoSession.
func (m *Manager) Session() (models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.active {
		return models.Session{}, ErrNoSession
	}
	return m.session, nil
}

// UpdateUser replaces the profile half of the session and persists it.
func (m *Manager) UpdateUser(user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return ErrNoSession
	}
	updated := m.session
	updated.User = user
	if err := m.store.SaveSession(updated); err != nil {
		return err
	}
	m.session = updated
	return nil
}

// Token returns the current bearer credential, or the empty string when no
// session is live. Part of api.CredentialProvider.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.active {
		return ""
	}
	return m.session.Token
}

// UpdateToken swaps the bearer credential after a successful refresh and
// persists the updated session. Part of api.CredentialProvider.
func (m *Manager) UpdateToken(token string) {
	if token == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}
	updated := m.session
	updated.Token = token
	if err := m.store.SaveSession(updated); err != nil {
		m.logger.Error("persist refreshed credential", "error", err)
	}
	m.session = updated
}

// Clear drops the session after an irrecoverable refresh failure. Part of
// api.CredentialProvider.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteSession(); err != nil {
		m.logger.Error("delete persisted session", "error", err)
	}
	m.session = models.Session{}
	m.active = false
	m.logger.Warn("session invalidated, re-authentication required")
}
