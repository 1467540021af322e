package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/kickstart/client/internal/models"
)

// EnqueueOutbox journals a pending message so an unacknowledged send
// survives process restarts.
func (s *Store) EnqueueOutbox(msg models.PendingMessage) error {
	if msg.ID == "" {
		return errors.New("message id is required")
	}
	if msg.ReceiverID == "" {
		return errors.New("receiver id is required")
	}
	if msg.MessageType == "" {
		msg.MessageType = models.MessageText
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO outbox (message_id, client_key, receiver_id, content, content_type, created_at, retries)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ClientKey, msg.ReceiverID, msg.Body, string(msg.MessageType),
		msg.Timestamp.UnixMilli(), msg.Retries,
	)
	if err != nil {
		return fmt.Errorf("enqueue outbox message %q: %w", msg.ID, err)
	}
	return nil
}

// Outbox returns all journaled pending messages, oldest first.
func (s *Store) Outbox() ([]models.PendingMessage, error) {
	rows, err := s.db.Query(
		`SELECT message_id, client_key, receiver_id, content, content_type, created_at, retries
		 FROM outbox ORDER BY created_at ASC, message_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list outbox: %w", err)
	}
	defer rows.Close()

	pending := make([]models.PendingMessage, 0)
	for rows.Next() {
		var (
			msg         models.PendingMessage
			contentType string
			createdAt   int64
		)
		if err := rows.Scan(&msg.ID, &msg.ClientKey, &msg.ReceiverID, &msg.Body, &contentType, &createdAt, &msg.Retries); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		msg.MessageType = models.MessageType(contentType)
		msg.Timestamp = time.UnixMilli(createdAt).UTC()
		pending = append(pending, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return pending, nil
}

// IncrementOutboxRetries bumps the retry counter for a journaled message
// and returns the new count.
func (s *Store) IncrementOutboxRetries(messageID string) (int, error) {
	result, err := s.db.Exec(`UPDATE outbox SET retries = retries + 1 WHERE message_id = ?`, messageID)
	if err != nil {
		return 0, fmt.Errorf("increment retries for %q: %w", messageID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("increment retries for %q: %w", messageID, err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	var retries int
	row := s.db.QueryRow(`SELECT retries FROM outbox WHERE message_id = ?`, messageID)
	if err := row.Scan(&retries); err != nil {
		return 0, fmt.Errorf("read retries for %q: %w", messageID, err)
	}
	return retries, nil
}

// DeleteOutbox removes an acknowledged or abandoned message from the
// journal. Absent ids are a no-op.
func (s *Store) DeleteOutbox(messageID string) error {
	if _, err := s.db.Exec(`DELETE FROM outbox WHERE message_id = ?`, messageID); err != nil {
		return fmt.Errorf("delete outbox message %q: %w", messageID, err)
	}
	return nil
}
