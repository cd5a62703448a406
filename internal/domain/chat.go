package domain

import (
	"time"
)

// MaxMessageLength is measured in runes.
const MaxMessageLength = 4000

type Message struct {
	ID          int64      `json:"id"`
	SenderID    int64      `json:"sender_id"`
	ReceiverID  int64      `json:"receiver_id"`
	Text        string     `json:"text"`
	CreatedAt   time.Time  `json:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	ReadAt      *time.Time `json:"read_at"`
}

// Involves reports whether userID is one of the two participants.
func (m *Message) Involves(userID int64) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// PeerOf returns the other participant from userID's point of view.
func (m *Message) PeerOf(userID int64) int64 {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// LiveMessage is the payload of message:new and message:ack.
type LiveMessage struct {
	*Message
	SenderRole string `json:"sender_role"`
}

type ConversationSummary struct {
	Peer        Identity `json:"peer"`
	LastMessage *Message `json:"last_message"`
	UnreadCount int64    `json:"unread_count"`
}

// Delivery is one message that has just transitioned to delivered.
type Delivery struct {
	MessageID   int64     `json:"message_id"`
	SenderID    int64     `json:"-"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// ReadResult lists the messages one read flipped. Delivered holds those that had
// not been delivered yet; their delivered_at is the read time.
type ReadResult struct {
	MessageIDs []int64
	Delivered  []Delivery
}

// Live channel event names.
const (
	EventConnected        = "connected"
	EventMessageSend      = "message:send"
	EventConversationRead = "conversation:read"
	EventMessageNew       = "message:new"
	EventMessageAck       = "message:ack"
	EventMessageDelivered = "message:delivered"
	EventMessageRead      = "message:read"
	EventUnreadCount      = "unread:count"
	EventMessageError     = "message:error"
)

type DeliveredEvent struct {
	MessageID   int64     `json:"message_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type ReadEvent struct {
	MessageIDs []int64   `json:"message_ids"`
	ReadAt     time.Time `json:"read_at"`
	ReaderID   int64     `json:"reader_id"`
}

type UnreadCountEvent struct {
	Total int64 `json:"total"`
}

type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
