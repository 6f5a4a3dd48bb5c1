package domain

import "errors"

var (
	ErrRoomNotFound    = errors.New("chat room not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrNotParticipant     = errors.New("user is not a participant of the room")
	ErrNotAdmin           = errors.New("only admins can manage group participants")
	ErrAlreadyParticipant = errors.New("user is already a participant of the room")

	ErrSelfChat       = errors.New("cannot open a private chat with yourself")
	ErrPrivateRoom    = errors.New("operation is not allowed on private rooms")
	ErrEmptyMessage   = errors.New("empty message")
	ErrMessageTooLong = errors.New("message too long")
	ErrBadMessageType = errors.New("unknown message type")
)
