package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kickstart/client/internal/models"
)

// DefaultMaxSendRetries caps how many replays an unacknowledged message
// gets before it is abandoned.
const DefaultMaxSendRetries = 5

// OutboxJournal persists unacknowledged sends across restarts. The sqlite
// store is the production implementation.
type OutboxJournal interface {
	EnqueueOutbox(msg models.PendingMessage) error
	Outbox() ([]models.PendingMessage, error)
	IncrementOutboxRetries(messageID string) (int, error)
	DeleteOutbox(messageID string) error
}

// Session ties the chat store, the outbox journal, and the live transport
// together for one authenticated user.
type Session struct {
	store   *Store
	journal OutboxJournal
	selfID  string

	maxRetries int
	logger     *slog.Logger

	mu        sync.Mutex
	transport Transport
}

// NewSession constructs a Session. The transport is attached separately
// because the socket comes and goes with connectivity.
func NewSession(store *Store, journal OutboxJournal, selfID string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:      store,
		journal:    journal,
		selfID:     selfID,
		maxRetries: DefaultMaxSendRetries,
		logger:     logger,
	}
}

// Attach installs a live transport and replays the journaled outbox over
// it. Messages whose retry budget is exhausted are abandoned and removed
// from both the journal and the pending list.
func (s *Session) Attach(transport Transport) {
	s.mu.Lock()
	s.transport = transport
	s.mu.Unlock()

	s.store.SetConnected(true)
	s.replayOutbox(transport)
}

// Detach forgets the transport, typically after a disconnect.
func (s *Session) Detach() {
	s.mu.Lock()
	s.transport = nil
	s.mu.Unlock()
	s.store.SetConnected(false)
}

func (s *Session) currentTransport() (Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport == nil {
		return nil, errors.New("chat: not connected")
	}
	return s.transport, nil
}

// Send constructs a pending message, inserts it optimistically, journals
// it, and emits it to the transport. The message stays pending until the
// server echo reconciles it.
func (s *Session) Send(conversationID, receiverID, body string, messageType models.MessageType) (models.PendingMessage, error) {
	if receiverID == "" {
		return models.PendingMessage{}, errors.New("chat: receiver is required")
	}
	if body == "" {
		return models.PendingMessage{}, errors.New("chat: message body is required")
	}
	if messageType == "" {
		messageType = models.MessageText
	}

	pending := models.PendingMessage{
		ID:          uuid.NewString(),
		ClientKey:   uuid.NewString(),
		ReceiverID:  receiverID,
		Body:        body,
		MessageType: messageType,
		Timestamp:   time.Now().UTC(),
	}

	s.store.AddPending(conversationID, pending)
	if err := s.journal.EnqueueOutbox(pending); err != nil {
		s.logger.Error("journal pending message", "error", err, "messageId", pending.ID)
	}

	transport, err := s.currentTransport()
	if err != nil {
		// Stays pending; the outbox replay delivers it on reconnect.
		return pending, nil
	}

	if err := transport.Send(s.frameFor(pending)); err != nil {
		s.logger.Warn("emit pending message", "error", err, "messageId", pending.ID)
	}
	return pending, nil
}

// Typing emits a typing indicator; indicators are fire-and-forget and
// never journaled.
func (s *Session) Typing(receiverID string, isTyping bool) error {
	transport, err := s.currentTransport()
	if err != nil {
		return err
	}
	return transport.Send(Frame{
		Event:      eventTyping,
		SenderID:   s.selfID,
		ReceiverID: receiverID,
		IsTyping:   isTyping,
	})
}

// HandleFrame routes one inbound transport frame. This is the socket's
// OnFrame callback.
func (s *Session) HandleFrame(frame Frame) {
	switch frame.Event {
	case eventTyping:
		s.store.SetTyping(frame.SenderID, frame.IsTyping)
	case eventReceiveMessage:
		msg := models.Message{
			ID:          frame.MessageID,
			RoomID:      frame.RoomID,
			SenderID:    frame.SenderID,
			ReceiverID:  frame.ReceiverID,
			Body:        frame.Message,
			MessageType: frame.MessageType,
			ClientKey:   frame.ClientKey,
			CreatedAt:   frame.CreatedAt,
		}
		conversationID := frame.RoomID
		if conversationID == "" {
			conversationID, _ = s.store.ActiveConversation()
		}
		if s.store.Reconcile(conversationID, msg) == OutcomeMatched {
			s.ackJournal(msg)
		}
	default:
		s.logger.Debug("ignoring unknown chat frame", "event", frame.Event)
	}
}

// ackJournal removes the journal entry matching a confirmed echo.
func (s *Session) ackJournal(msg models.Message) {
	entries, err := s.journal.Outbox()
	if err != nil {
		s.logger.Error("read outbox", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.ClientKey == msg.ClientKey || (msg.ClientKey == "" && entry.ReceiverID == msg.ReceiverID && entry.Body == msg.Body) {
			if err := s.journal.DeleteOutbox(entry.ID); err != nil {
				s.logger.Error("ack outbox entry", "error", err, "messageId", entry.ID)
			}
			return
		}
	}
}

// replayOutbox re-emits journaled messages, bumping their retry counters
// and abandoning any that exhausted the budget.
func (s *Session) replayOutbox(transport Transport) {
	entries, err := s.journal.Outbox()
	if err != nil {
		s.logger.Error("read outbox for replay", "error", err)
		return
	}

	for _, entry := range entries {
		retries, err := s.journal.IncrementOutboxRetries(entry.ID)
		if err != nil {
			s.logger.Error("bump outbox retries", "error", err, "messageId", entry.ID)
			continue
		}
		if retries > s.maxRetries {
			s.abandon(entry)
			continue
		}
		if err := transport.Send(s.frameFor(entry)); err != nil {
			s.logger.Warn("replay pending message", "error", err, "messageId", entry.ID)
		}
	}
}

func (s *Session) abandon(entry models.PendingMessage) {
	if err := s.journal.DeleteOutbox(entry.ID); err != nil {
		s.logger.Error("drop abandoned outbox entry", "error", err, "messageId", entry.ID)
	}
	s.store.RemovePending(entry.ID)
	s.logger.Warn("abandoning message after retry exhaustion",
		"messageId", entry.ID, "retries", entry.Retries)
}

func (s *Session) frameFor(pending models.PendingMessage) Frame {
	return Frame{
		Event:       eventSendMessage,
		MessageID:   pending.ID,
		SenderID:    s.selfID,
		ReceiverID:  pending.ReceiverID,
		Message:     pending.Body,
		MessageType: pending.MessageType,
		ClientKey:   pending.ClientKey,
	}
}

// Connect dials the production socket for this session and wires its
// callbacks. The caller owns closing the returned transport.
func (s *Session) Connect(ctx context.Context, opts SocketOptions) (*Socket, error) {
	opts.UserID = s.selfID
	opts.OnFrame = s.HandleFrame
	prior := opts.OnStatus
	opts.OnStatus = func(connected bool) {
		if connected {
			s.store.SetConnected(true)
		} else {
			s.Detach()
		}
		if prior != nil {
			prior(connected)
		}
	}

	socket, err := DialSocket(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect chat: %w", err)
	}
	s.Attach(socket)
	return socket, nil
}
