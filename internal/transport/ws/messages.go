package ws

import "time"

// Frame types. Clients send message/typing/read/ping; the server emits
// message/typing/read_receipt/pong/error.
const (
	TypeMessage     = "message"
	TypeTyping      = "typing"
	TypeRead        = "read"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeReadReceipt = "read_receipt"
	TypeError       = "error"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// SendPayload is the client's message frame. MessageType defaults to "text".
type SendPayload struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type,omitempty"`
}

// TypingPayload doubles as the inbound frame (is_typing only) and the
// broadcast event.
type TypingPayload struct {
	RoomID   string `json:"room_id,omitempty"`
	UserID   int64  `json:"user_id,omitempty"`
	IsTyping bool   `json:"is_typing"`
	TSUnix   int64  `json:"ts_unix,omitempty"`
}

// ReadPayload marks a single message when message_id is set, otherwise the
// whole room.
type ReadPayload struct {
	MessageID string `json:"message_id,omitempty"`
}

type MessageItem struct {
	ID             string    `json:"id"`
	RoomID         string    `json:"room_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	CreatedAt      time.Time `json:"created_at"`
	IsRead         bool      `json:"is_read"`
	SenderUsername *string   `json:"sender_username,omitempty"`
}

type MessagePayload struct {
	Message MessageItem `json:"message"`
	TSUnix  int64       `json:"ts_unix"`
}

type ReadReceiptPayload struct {
	RoomID    string `json:"room_id"`
	UserID    int64  `json:"user_id"`
	MessageID string `json:"message_id,omitempty"`
	ReadCount int64  `json:"read_count,omitempty"`
	TSUnix    int64  `json:"ts_unix"`
}

type PongPayload struct {
	TSUnix int64 `json:"ts_unix"`
}

type ErrorPayload struct {
	Error  string `json:"error"`
	TSUnix int64  `json:"ts_unix"`
}
