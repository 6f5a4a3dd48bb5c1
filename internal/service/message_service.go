package service

import (
	"context"
	"strings"

	"github.com/realReloadTime/web-development/internal/domain"
)

const (
	defaultMaxMessageLen = 4000
	defaultPageLimit     = 50
	maxPageLimit         = 200
)

type MessageStore interface {
	Append(ctx context.Context, roomID string, senderID int64, content string, msgType domain.MessageType) (*domain.Message, error)
	Page(ctx context.Context, roomID string, limit, offset int) ([]domain.Message, error)
	MarkRoomRead(ctx context.Context, roomID string, readerID int64) (int64, error)
	MarkMessageRead(ctx context.Context, messageID string, readerID int64) (bool, error)
	UnreadCount(ctx context.Context, readerID int64, roomID *string) (int64, error)
}

// MessageService validates and persists messages and keeps the read-state
// bookkeeping. Membership of the sender is re-checked inside the append
// transaction, so validation here is about the payload only.
type MessageService struct {
	msgRepo MessageStore

	maxMessageLen int
}

func NewMessageService(msgRepo MessageStore) *MessageService {
	return &MessageService{msgRepo: msgRepo, maxMessageLen: defaultMaxMessageLen}
}

func (s *MessageService) SetMaxMessageLen(n int) {
	if n > 0 {
		s.maxMessageLen = n
	}
}

func (s *MessageService) Send(ctx context.Context, roomID string, senderID int64, content string, msgType domain.MessageType) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}
	if len(content) > s.maxMessageLen {
		return nil, domain.ErrMessageTooLong
	}
	if msgType == "" {
		msgType = domain.MessageText
	}
	if !msgType.Valid() {
		return nil, domain.ErrBadMessageType
	}

	return s.msgRepo.Append(ctx, roomID, senderID, content, msgType)
}

// History returns the newest messages first. The limit is clamped to keep a
// single page query bounded.
func (s *MessageService) History(ctx context.Context, roomID string, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.msgRepo.Page(ctx, roomID, limit, offset)
}

func (s *MessageService) MarkRoomRead(ctx context.Context, roomID string, readerID int64) (int64, error) {
	return s.msgRepo.MarkRoomRead(ctx, roomID, readerID)
}

func (s *MessageService) MarkMessageRead(ctx context.Context, messageID string, readerID int64) (bool, error) {
	return s.msgRepo.MarkMessageRead(ctx, messageID, readerID)
}

func (s *MessageService) UnreadCount(ctx context.Context, readerID int64, roomID *string) (int64, error) {
	return s.msgRepo.UnreadCount(ctx, readerID, roomID)
}
