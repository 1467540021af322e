package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Preference keys persisted independently of the session.
const (
	PrefThemeMode          = "theme_mode"
	PrefOnboardingComplete = "onboarding_complete"
)

// SetPreference stores a preference value, overwriting any previous one.
func (s *Store) SetPreference(key, value string) error {
	if key == "" {
		return errors.New("preference key is required")
	}
	_, err := s.db.Exec(
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, nowUnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

// Preference retrieves a stored preference value, or ErrNotFound.
func (s *Store) Preference(key string) (string, error) {
	var value string
	row := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, nil
}

// DeletePreference removes a preference; absent keys are a no-op.
func (s *Store) DeletePreference(key string) error {
	if _, err := s.db.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}
	return nil
}

// OnboardingComplete reports whether the first-run flow has finished on
// this device. The flag survives logout.
func (s *Store) OnboardingComplete() (bool, error) {
	value, err := s.Preference(PrefOnboardingComplete)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetOnboardingComplete marks the first-run flow finished.
func (s *Store) SetOnboardingComplete() error {
	return s.SetPreference(PrefOnboardingComplete, "true")
}
