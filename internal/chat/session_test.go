package chat

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kickstart/client/internal/models"
)

type memJournal struct {
	mu      sync.Mutex
	entries []models.PendingMessage
}

func (j *memJournal) EnqueueOutbox(msg models.PendingMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, msg)
	return nil
}

func (j *memJournal) Outbox() ([]models.PendingMessage, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]models.PendingMessage, len(j.entries))
	copy(out, j.entries)
	return out, nil
}

func (j *memJournal) IncrementOutboxRetries(messageID string) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if j.entries[i].ID == messageID {
			j.entries[i].Retries++
			return j.entries[i].Retries, nil
		}
	}
	return 0, errors.New("not found")
}

func (j *memJournal) DeleteOutbox(messageID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if j.entries[i].ID == messageID {
			j.entries = append(j.entries[:i], j.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (j *memJournal) size() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

type fakeTransport struct {
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (f *fakeTransport) Send(frame Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) sent() []Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Frame, len(f.frames))
	copy(out, f.frames)
	return out
}

func newTestSession(t *testing.T) (*Session, *Store, *memJournal) {
	t.Helper()
	store := NewStore("me")
	journal := &memJournal{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(store, journal, "me", logger), store, journal
}

func TestSessionSendJournalsAndEmits(t *testing.T) {
	session, store, journal := newTestSession(t)
	transport := &fakeTransport{}
	session.Attach(transport)

	pending, err := session.Send("room-1", "them", "hello", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if pending.ID == "" || pending.ClientKey == "" {
		t.Fatalf("expected generated ids, got %+v", pending)
	}
	if pending.MessageType != models.MessageText {
		t.Fatalf("expected text default, got %q", pending.MessageType)
	}

	if journal.size() != 1 {
		t.Fatalf("expected one journal entry, got %d", journal.size())
	}
	frames := transport.sent()
	if len(frames) != 1 {
		t.Fatalf("expected one emitted frame, got %d", len(frames))
	}
	frame := frames[0]
	if frame.Event != eventSendMessage || frame.ClientKey != pending.ClientKey || frame.Message != "hello" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if len(store.Pending()) != 1 {
		t.Fatal("message should stay pending until the echo arrives")
	}
}

func TestSessionSendWithoutTransportStaysPending(t *testing.T) {
	session, store, journal := newTestSession(t)

	pending, err := session.Send("room-1", "them", "offline message", models.MessageText)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if journal.size() != 1 {
		t.Fatal("offline sends must still be journaled")
	}
	if len(store.Pending()) != 1 || store.Pending()[0].ID != pending.ID {
		t.Fatal("offline send should remain pending")
	}
}

func TestSessionSendValidation(t *testing.T) {
	session, _, _ := newTestSession(t)

	if _, err := session.Send("room-1", "", "hello", models.MessageText); err == nil {
		t.Fatal("expected error for missing receiver")
	}
	if _, err := session.Send("room-1", "them", "", models.MessageText); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestSessionEchoConfirmsAndAcksJournal(t *testing.T) {
	session, store, journal := newTestSession(t)
	transport := &fakeTransport{}
	session.Attach(transport)

	pending, err := session.Send("room-1", "them", "hello", models.MessageText)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	session.HandleFrame(Frame{
		Event:      eventReceiveMessage,
		MessageID:  "srv-1",
		RoomID:     "room-1",
		SenderID:   "me",
		ReceiverID: "them",
		Message:    "hello",
		ClientKey:  pending.ClientKey,
		CreatedAt:  time.Now().UTC(),
	})

	if len(store.Pending()) != 0 {
		t.Fatal("echo should collapse the pending entry")
	}
	if journal.size() != 0 {
		t.Fatal("echo should ack the journal entry")
	}
	visible := store.Messages("room-1")
	if len(visible) != 1 || visible[0].ID != "srv-1" {
		t.Fatalf("unexpected visible list: %+v", visible)
	}
}

func TestSessionInboundFrameAppends(t *testing.T) {
	session, store, _ := newTestSession(t)

	session.HandleFrame(Frame{
		Event:     eventReceiveMessage,
		MessageID: "srv-9",
		RoomID:    "room-1",
		SenderID:  "them",
		Message:   "hi there",
	})

	visible := store.Messages("room-1")
	if len(visible) != 1 || visible[0].SenderID != "them" {
		t.Fatalf("unexpected visible list: %+v", visible)
	}
}

func TestSessionTypingFrames(t *testing.T) {
	session, store, _ := newTestSession(t)
	transport := &fakeTransport{}
	session.Attach(transport)

	session.HandleFrame(Frame{Event: eventTyping, SenderID: "them", IsTyping: true})
	if !store.Typing("them") {
		t.Fatal("typing frame should set the flag")
	}

	if err := session.Typing("them", true); err != nil {
		t.Fatalf("typing: %v", err)
	}
	frames := transport.sent()
	if len(frames) != 1 || frames[0].Event != eventTyping || !frames[0].IsTyping {
		t.Fatalf("unexpected frames: %+v", frames)
	}

	session.Detach()
	if err := session.Typing("them", false); err == nil {
		t.Fatal("typing without a transport should fail")
	}
}

func TestSessionAttachReplaysOutbox(t *testing.T) {
	session, store, journal := newTestSession(t)

	// An unacknowledged send from a previous run.
	stale := models.PendingMessage{
		ID:          "p-old",
		ClientKey:   "k-old",
		ReceiverID:  "them",
		Body:        "from last run",
		MessageType: models.MessageText,
		Timestamp:   time.Now().UTC(),
	}
	if err := journal.EnqueueOutbox(stale); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	store.AddPending("room-1", stale)

	transport := &fakeTransport{}
	session.Attach(transport)

	if !store.Connected() {
		t.Fatal("attach should mark the store connected")
	}
	frames := transport.sent()
	if len(frames) != 1 || frames[0].MessageID != "p-old" {
		t.Fatalf("expected replay of the journaled send, got %+v", frames)
	}
	entries, _ := journal.Outbox()
	if entries[0].Retries != 1 {
		t.Fatalf("replay should bump the retry counter, got %d", entries[0].Retries)
	}
}

func TestSessionAbandonsAfterRetryExhaustion(t *testing.T) {
	session, store, journal := newTestSession(t)

	exhausted := models.PendingMessage{
		ID:          "p-doomed",
		ClientKey:   "k-doomed",
		ReceiverID:  "them",
		Body:        "never acked",
		MessageType: models.MessageText,
		Timestamp:   time.Now().UTC(),
		Retries:     DefaultMaxSendRetries,
	}
	if err := journal.EnqueueOutbox(exhausted); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	store.AddPending("room-1", exhausted)

	transport := &fakeTransport{}
	session.Attach(transport)

	if journal.size() != 0 {
		t.Fatal("exhausted entry should leave the journal")
	}
	if len(store.Pending()) != 0 {
		t.Fatal("exhausted entry should leave the pending list")
	}
	if len(transport.sent()) != 0 {
		t.Fatal("exhausted entry must not be re-emitted")
	}
}
