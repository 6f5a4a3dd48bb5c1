package domain

import "time"

type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageSystem:
		return true
	}
	return false
}

type Message struct {
	ID        string      `db:"id"`
	RoomID    string      `db:"room_id"`
	SenderID  int64       `db:"sender_id"`
	Content   string      `db:"content"`
	Type      MessageType `db:"message_type"`
	CreatedAt time.Time   `db:"created_at"`
	IsRead    bool        `db:"is_read"`

	// Resolved from the users table when the query joins the sender.
	SenderUsername *string `db:"-"`
}
