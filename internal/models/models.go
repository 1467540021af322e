package models

import "time"

// User represents the authenticated account's profile.
type User struct {
	ID                string   `json:"id"`
	Email             string   `json:"email"`
	FullName          string   `json:"fullName,omitempty"`
	Age               int      `json:"age,omitempty"`
	Country           string   `json:"country,omitempty"`
	PreferredLanguage string   `json:"preferredLanguage,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	PrivacyMode       string   `json:"privacyMode,omitempty"`
	ProfilePicture    string   `json:"profilePicture,omitempty"`
	IsGuest           bool     `json:"isGuest,omitempty"`
}

// Session pairs the bearer credential with the profile it belongs to.
// At most one session is live per process; it is persisted locally so the
// client can rehydrate across restarts.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// NotificationCategory tags the origin of a notification.
type NotificationCategory string

const (
	CategoryFriendRequest NotificationCategory = "friend_request"
	CategoryChatMessage   NotificationCategory = "chat_message"
	CategoryNewResponse   NotificationCategory = "new_response"
	CategoryResponseLike  NotificationCategory = "response_like"
	CategoryAccepted      NotificationCategory = "accepted"
	CategoryRejected      NotificationCategory = "rejected"
)

// NotificationMetadata carries the category-specific payload.
type NotificationMetadata struct {
	SenderID        string `json:"senderId,omitempty"`
	SenderName      string `json:"senderName,omitempty"`
	FriendRequestID string `json:"friendRequestId,omitempty"`
	RequesterID     string `json:"requesterId,omitempty"`
	RequesterName   string `json:"requesterName,omitempty"`
	ResponseID      string `json:"responseId,omitempty"`
	QuestionID      string `json:"questionId,omitempty"`
	QuestionTitle   string `json:"questionTitle,omitempty"`
	ProfilePicture  string `json:"profilePicture,omitempty"`
}

// Notification is a server-pushed or fetched notification record.
type Notification struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Category  NotificationCategory `json:"category"`
	Priority  string               `json:"priority,omitempty"`
	IsRead    bool                 `json:"isRead"`
	Metadata  NotificationMetadata `json:"metadata"`
	CreatedAt time.Time            `json:"createdAt"`
}

// NotificationPage is one page of the paginated notification listing.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
	TotalPages    int            `json:"totalPages"`
}

// MessageType enumerates chat payload kinds.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageVideo MessageType = "video"
	MessageAudio MessageType = "audio"
	MessageFile  MessageType = "file"
)

// Message is a server-side chat message record.
type Message struct {
	ID          string      `json:"id"`
	RoomID      string      `json:"roomId"`
	SenderID    string      `json:"senderId"`
	ReceiverID  string      `json:"receiverId"`
	Body        string      `json:"message"`
	Media       string      `json:"media,omitempty"`
	MessageType MessageType `json:"messageType"`
	ClientKey   string      `json:"clientKey,omitempty"`
	IsRead      bool        `json:"isRead"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Conversation summarizes a chat room for the conversation list.
type Conversation struct {
	RoomID           string    `json:"roomId"`
	LastMessage      Message   `json:"lastMessage"`
	OtherParticipant User      `json:"otherParticipant"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ConversationPage is one page of the conversation listing.
type ConversationPage struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	Page          int            `json:"page"`
	TotalPages    int            `json:"totalPages"`
}

// MessagePage is one page of a room's message history.
type MessagePage struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// ChatMessage is the client-side view of a message, covering both
// server-confirmed records and locally pending ones.
type ChatMessage struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"senderId"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	IsRead    bool        `json:"isRead"`
	IsOwn     bool        `json:"isOwn"`
	IsPending bool        `json:"isPending,omitempty"`
}

// PendingMessage is a locally created chat message awaiting server
// acknowledgment. ClientKey is generated at send time, echoed back by the
// server, and is the primary reconciliation key.
type PendingMessage struct {
	ID          string      `json:"id"`
	ClientKey   string      `json:"clientKey"`
	ReceiverID  string      `json:"receiverId"`
	Body        string      `json:"message"`
	MessageType MessageType `json:"messageType"`
	Timestamp   time.Time   `json:"timestamp"`
	Retries     int         `json:"retries"`
}

// View converts a pending message into its optimistic list entry.
func (p PendingMessage) View(selfID string) ChatMessage {
	return ChatMessage{
		ID:        p.ID,
		SenderID:  selfID,
		Type:      p.MessageType,
		Content:   p.Body,
		Timestamp: p.Timestamp,
		IsOwn:     true,
		IsPending: true,
	}
}

// Envelope is the uniform response wrapper used by every platform API
// endpoint: { status, message, data }.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
