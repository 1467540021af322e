// Package theme holds the light/dark preference, persisted independently
// of the session.
package theme

import (
	"errors"
	"sync"

	"github.com/kickstart/client/internal/store"
)

// Mode is the active color scheme.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// PreferenceStore persists the theme preference.
type PreferenceStore interface {
	SetPreference(key, value string) error
	Preference(key string) (string, error)
}

// Store keeps the active mode in memory and writes user changes through to
// the preference store. The persisted value is applied exactly once, at
// rehydration; later changes only flow through the explicit setters.
type Store struct {
	mu      sync.Mutex
	mode    Mode
	applied bool

	prefs PreferenceStore
}

// NewStore constructs a Store defaulting to light mode.
func NewStore(prefs PreferenceStore) *Store {
	return &Store{mode: ModeLight, prefs: prefs}
}

// Rehydrate applies the persisted mode. Only the first successful call has
// any effect, so rehydration can never loop with user-initiated changes; a
// store failure leaves the latch open for a retry.
func (s *Store) Rehydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied {
		return nil
	}

	value, err := s.prefs.Preference(store.PrefThemeMode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.applied = true
			return nil
		}
		return err
	}
	if m := Mode(value); m == ModeLight || m == ModeDark {
		s.mode = m
	}
	s.applied = true
	return nil
}

// Mode returns the active mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode applies a user-initiated change and persists it.
func (s *Store) SetMode(mode Mode) error {
	if mode != ModeLight && mode != ModeDark {
		return errors.New("theme: unknown mode")
	}
	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()
	return s.prefs.SetPreference(store.PrefThemeMode, string(mode))
}

// Toggle flips between light and dark and persists the result.
func (s *Store) Toggle() (Mode, error) {
	s.mu.Lock()
	next := ModeLight
	if s.mode == ModeLight {
		next = ModeDark
	}
	s.mode = next
	s.mu.Unlock()
	return next, s.prefs.SetPreference(store.PrefThemeMode, string(next))
}
