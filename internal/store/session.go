package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kickstart/client/internal/models"
)

const deviceKeyFileName = "device.key"

// loadOrCreateDeviceKey reads the per-device sealing key, generating one on
// first run. The key never leaves the data directory.
func loadOrCreateDeviceKey(dataDir string) ([]byte, error) {
	path := filepath.Join(dataDir, deviceKeyFileName)

	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("device key has invalid length %d", len(key))
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read device key: %w", err)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, fmt.Errorf("write device key: %w", err)
	}
	return key, nil
}

// seal encrypts plaintext with the device key. The random nonce is
// prepended to the ciphertext.
func (s *Store) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) unseal(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("create AEAD: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed blob too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed blob: %w", err)
	}
	return plaintext, nil
}

// SaveSession persists the session, encrypted at rest with the device key.
func (s *Store) SaveSession(session models.Session) error {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sealed, err := s.seal(plaintext)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO session (id, blob, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		sealed, nowUnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession retrieves and decrypts the persisted session. ErrNotFound is
// returned when no session has been saved.
func (s *Store) LoadSession() (models.Session, error) {
	var sealed []byte
	row := s.db.QueryRow(`SELECT blob FROM session WHERE id = 1`)
	if err := row.Scan(&sealed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}

	plaintext, err := s.unseal(sealed)
	if err != nil {
		return models.Session{}, err
	}

	var session models.Session
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return models.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

// DeleteSession removes the persisted session. Deleting an absent session
// is a no-op.
func (s *Store) DeleteSession() error {
	if _, err := s.db.Exec(`DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func nowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
