// Package notify holds the session-scoped notification state: the
// in-memory list and the unread counter, fed by both the paginated API
// and the realtime stream. Nothing here is persisted; the state is rebuilt
// from the network each session.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kickstart/client/internal/api"
	"github.com/kickstart/client/internal/models"
)

// Store is safe for concurrent use by the stream goroutine and callers.
type Store struct {
	mu            sync.Mutex
	notifications []models.Notification
	unread        int

	client *api.Client
	logger *slog.Logger
}

// NewStore constructs a Store over the given API client.
func NewStore(client *api.Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

// Apply ingests one streamed notification: prepend to the list, bump the
// unread counter by one. This is the realtime.Handler for the channel.
func (s *Store) Apply(notification models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append([]models.Notification{notification}, s.notifications...)
	s.unread++
}

// Notifications returns a copy of the current list, newest first.
func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns the local unread counter.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Refresh replaces the local list with the first page from the server and
// synchronizes the unread counter.
func (s *Store) Refresh(ctx context.Context) error {
	page, err := s.client.Notifications(ctx, 1)
	if err != nil {
		return err
	}
	unread, err := s.client.UnreadNotificationCount(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.notifications = page.Notifications
	s.unread = unread
	s.mu.Unlock()
	return nil
}

// FetchPage returns one page of the listing without touching local state;
// callers append pages as the user scrolls.
func (s *Store) FetchPage(ctx context.Context, page int) (models.NotificationPage, error) {
	return s.client.Notifications(ctx, page)
}

// MarkRead flags a notification as read server-side and mirrors the change
// locally. The unread counter never goes below zero.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	if err := s.client.MarkNotificationRead(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			if s.unread > 0 {
				s.unread--
			}
			break
		}
	}
	return nil
}

// MarkAllRead flags every notification as read and zeroes the counter.
func (s *Store) MarkAllRead(ctx context.Context) error {
	if err := s.client.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		s.notifications[i].IsRead = true
	}
	s.unread = 0
	return nil
}

// Delete removes a notification server-side and drops it from the local
// list. Deleting an unread notification also decrements the counter.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteNotification(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if !s.notifications[i].IsRead && s.unread > 0 {
				s.unread--
			}
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			break
		}
	}
	return nil
}

// Reset drops all session state, for logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nil
	s.unread = 0
}
