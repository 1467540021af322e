package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kickstart/client/internal/models"
)

// Event names on the chat socket.
const (
	eventSendMessage    = "send_private_message"
	eventReceiveMessage = "receive_private_message"
	eventTyping         = "typing"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxFrame   = 1 << 20
)

// Frame is the JSON envelope exchanged on the chat socket, covering both
// directions; unused fields stay empty.
type Frame struct {
	Event string `json:"event"`

	MessageID   string             `json:"messageId,omitempty"`
	RoomID      string             `json:"roomId,omitempty"`
	SenderID    string             `json:"senderId,omitempty"`
	ReceiverID  string             `json:"receiverId,omitempty"`
	Message     string             `json:"message,omitempty"`
	MessageType models.MessageType `json:"messageType,omitempty"`
	ClientKey   string             `json:"clientKey,omitempty"`
	CreatedAt   time.Time          `json:"createdAt,omitempty"`

	UserID   string `json:"userId,omitempty"`
	IsTyping bool   `json:"isTyping,omitempty"`
}

// Transport moves frames to the server. *Socket is the production
// implementation; tests substitute fakes.
type Transport interface {
	Send(frame Frame) error
	Close() error
}

// SocketOptions configures a chat socket connection.
type SocketOptions struct {
	// BaseURL is the platform API base; the ws:// endpoint is derived
	// from it.
	BaseURL string
	UserID  string
	Token   string

	// OnFrame receives every inbound frame.
	OnFrame func(Frame)
	// OnStatus fires on connect and disconnect.
	OnStatus func(connected bool)

	Logger *slog.Logger
}

// Socket is a websocket chat connection with LessUp-style read/write pumps.
type Socket struct {
	conn   *websocket.Conn
	send   chan Frame
	opts   SocketOptions
	closed chan struct{}
	once   sync.Once
}

// DialSocket connects the chat socket and starts its pumps.
func DialSocket(ctx context.Context, opts SocketOptions) (*Socket, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	endpoint, err := chatEndpoint(opts.BaseURL, opts.UserID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if opts.Token != "" {
		header.Set("Authorization", "Bearer "+opts.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("dial chat socket: %w", err)
	}

	s := &Socket{
		conn:   conn,
		send:   make(chan Frame, 64),
		opts:   opts,
		closed: make(chan struct{}),
	}

	if opts.OnStatus != nil {
		opts.OnStatus(true)
	}

	go s.writePump()
	go s.readPump()

	return s, nil
}

func chatEndpoint(baseURL, userID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/chat/socket"
	q := u.Query()
	q.Set("userId", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Send queues a frame for delivery. It fails once the socket is closed or
// when the write queue is saturated.
func (s *Socket) Send(frame Frame) error {
	select {
	case <-s.closed:
		return fmt.Errorf("chat socket is closed")
	default:
	}

	select {
	case s.send <- frame:
		return nil
	case <-s.closed:
		return fmt.Errorf("chat socket is closed")
	default:
		return fmt.Errorf("chat socket send queue is full")
	}
}

// Close tears down the connection. Idempotent.
func (s *Socket) Close() error {
	s.once.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
		if s.opts.OnStatus != nil {
			s.opts.OnStatus(false)
		}
	})
	return nil
}

func (s *Socket) readPump() {
	defer func() { _ = s.Close() }()

	s.conn.SetReadLimit(maxFrame)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := s.conn.ReadJSON(&frame); err != nil {
			select {
			case <-s.closed:
			default:
				s.opts.Logger.Warn("chat socket read failed", "error", err)
			}
			return
		}
		if s.opts.OnFrame != nil {
			s.opts.OnFrame(frame)
		}
	}
}

func (s *Socket) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(frame); err != nil {
				s.opts.Logger.Warn("chat socket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			return
		}
	}
}
