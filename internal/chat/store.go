// Package chat gives the user immediate feedback on send: outgoing
// messages appear in the visible list before server acknowledgment and are
// reconciled against the server echo when it arrives on the transport.
package chat

import (
	"strings"
	"sync"

	"github.com/kickstart/client/internal/models"
)

// ReconcileOutcome says what an incoming transport message turned out to be.
type ReconcileOutcome int

const (
	// OutcomeMatched means the message confirmed a pending entry.
	OutcomeMatched ReconcileOutcome = iota
	// OutcomeInbound means the message is new and from another sender.
	OutcomeInbound
	// OutcomeDropped means an own echo matched nothing and was discarded.
	OutcomeDropped
)

// Store holds cross-screen chat state. All methods are safe for concurrent
// use by the transport goroutines and callers.
type Store struct {
	mu sync.Mutex

	selfID               string
	activeConversationID string
	activeOtherUserID    string
	typing               map[string]bool
	pending              []models.PendingMessage
	messages             map[string][]models.ChatMessage
	connected            bool
}

// NewStore constructs a Store for the given local user.
func NewStore(selfID string) *Store {
	return &Store{
		selfID:   selfID,
		typing:   make(map[string]bool),
		messages: make(map[string][]models.ChatMessage),
	}
}

// SetActiveConversation records which conversation the user is viewing.
func (s *Store) SetActiveConversation(conversationID, otherUserID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConversationID = conversationID
	s.activeOtherUserID = otherUserID
}

// ActiveConversation returns the viewed conversation and its counterpart.
func (s *Store) ActiveConversation() (conversationID, otherUserID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConversationID, s.activeOtherUserID
}

// SetTyping records a peer's typing state.
func (s *Store) SetTyping(userID string, isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if isTyping {
		s.typing[userID] = true
		return
	}
	delete(s.typing, userID)
}

// Typing reports whether a peer is currently typing.
func (s *Store) Typing(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.typing[userID]
}

// AddPending performs the optimistic insert: the pending message joins the
// pending list and its view form joins the visible list at once.
func (s *Store) AddPending(conversationID string, msg models.PendingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, msg)
	s.messages[conversationID] = append(s.messages[conversationID], msg.View(s.selfID))
}

// RemovePending drops a pending entry by id, reporting whether it existed.
// The visible entry is left in place marked as failed-or-confirmed by the
// caller's flow.
func (s *Store) RemovePending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pending {
		if s.pending[i].ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns a copy of the pending list.
func (s *Store) Pending() []models.PendingMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PendingMessage, len(s.pending))
	copy(out, s.pending)
	return out
}

// Messages returns a copy of a conversation's visible list.
func (s *Store) Messages(conversationID string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.messages[conversationID]
	out := make([]models.ChatMessage, len(list))
	copy(out, list)
	return out
}

// Reconcile ingests a message that arrived on the transport.
//
// A client-key match is authoritative: the server echoes the key the
// client generated at send time. The content heuristic (equality or one
// string being a suffix of the other, tolerating server-side trimming) is
// kept as a fallback for echoes without a key. First match wins. A match
// collapses the pending entry and its visible twin into the confirmed
// record, leaving the visible list size unchanged. A non-matching message
// from another sender is appended as new inbound; a non-matching own echo
// is dropped.
func (s *Store) Reconcile(conversationID string, msg models.Message) ReconcileOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.matchPendingLocked(msg); i >= 0 {
		pendingID := s.pending[i].ID
		s.pending = append(s.pending[:i], s.pending[i+1:]...)
		s.confirmVisibleLocked(conversationID, pendingID, msg)
		return OutcomeMatched
	}

	if msg.SenderID != s.selfID {
		s.messages[conversationID] = append(s.messages[conversationID], models.ChatMessage{
			ID:        msg.ID,
			SenderID:  msg.SenderID,
			Type:      msg.MessageType,
			Content:   msg.Body,
			Timestamp: msg.CreatedAt,
			IsRead:    msg.IsRead,
		})
		return OutcomeInbound
	}

	return OutcomeDropped
}

func (s *Store) matchPendingLocked(msg models.Message) int {
	if msg.ClientKey != "" {
		for i := range s.pending {
			if s.pending[i].ClientKey == msg.ClientKey {
				return i
			}
		}
		return -1
	}
	for i := range s.pending {
		p := s.pending[i]
		if p.ReceiverID != msg.ReceiverID {
			continue
		}
		if p.Body == msg.Body || strings.HasSuffix(p.Body, msg.Body) || strings.HasSuffix(msg.Body, p.Body) {
			return i
		}
	}
	return -1
}

func (s *Store) confirmVisibleLocked(conversationID, pendingID string, msg models.Message) {
	list := s.messages[conversationID]
	for i := range list {
		if list[i].ID == pendingID {
			list[i].ID = msg.ID
			list[i].IsPending = false
			if !msg.CreatedAt.IsZero() {
				list[i].Timestamp = msg.CreatedAt
			}
			return
		}
	}
}

// LoadHistory replaces a conversation's visible list with fetched records,
// preserving any still-pending entries at the tail.
func (s *Store) LoadHistory(conversationID string, history []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.ChatMessage, 0, len(history))
	for _, msg := range history {
		list = append(list, models.ChatMessage{
			ID:        msg.ID,
			SenderID:  msg.SenderID,
			Type:      msg.MessageType,
			Content:   msg.Body,
			Timestamp: msg.CreatedAt,
			IsRead:    msg.IsRead,
			IsOwn:     msg.SenderID == s.selfID,
		})
	}
	for _, existing := range s.messages[conversationID] {
		if existing.IsPending {
			list = append(list, existing)
		}
	}
	s.messages[conversationID] = list
}

// SetConnected records transport connectivity.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// Connected reports transport connectivity.
func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Reset drops all chat state, for logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConversationID = ""
	s.activeOtherUserID = ""
	s.typing = make(map[string]bool)
	s.pending = nil
	s.messages = make(map[string][]models.ChatMessage)
	s.connected = false
}
