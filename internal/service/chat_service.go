package service

import (
	"context"
	"time"

	"github.com/realReloadTime/web-development/internal/domain"
	"github.com/realReloadTime/web-development/internal/postgres"

	"github.com/samber/lo"
)

// Presence is the live-connection registry as the orchestrator sees it:
// ids and timestamps only, no storage references.
type Presence interface {
	ListOnline(roomID string) []domain.Presence
}

// Response views. Every field is declared upfront; nothing is attached to a
// view after assembly.

type RoomView struct {
	ID               string
	Name             *string
	IsGroup          bool
	CreatedAt        time.Time
	ParticipantCount int64
	UnreadCount      int64
}

type MessageView struct {
	ID             string
	RoomID         string
	SenderID       int64
	Content        string
	Type           domain.MessageType
	CreatedAt      time.Time
	IsRead         bool
	SenderUsername *string
}

type ParticipantView struct {
	RoomID   string
	UserID   int64
	IsAdmin  bool
	JoinedAt time.Time
	Username *string
	Email    string
}

// ChatService composes the directory, the message log and the connection
// registry into the externally visible chat operations. Access is always
// resolved through GetRoomForUser first; a room the caller cannot see is
// reported as not found.
type ChatService struct {
	directory *DirectoryService
	messages  *MessageService
	presence  Presence
}

func NewChatService(directory *DirectoryService, messages *MessageService, presence Presence) *ChatService {
	return &ChatService{directory: directory, messages: messages, presence: presence}
}

func (s *ChatService) CreatePrivateChat(ctx context.Context, userID, otherID int64) (*RoomView, error) {
	room, err := s.directory.CreatePrivate(ctx, userID, otherID)
	if err != nil {
		return nil, err
	}
	return s.roomView(ctx, room, userID)
}

func (s *ChatService) CreateGroupChat(ctx context.Context, name string, creatorID int64, participantIDs []int64) (*RoomView, error) {
	room, err := s.directory.CreateGroup(ctx, name, creatorID, participantIDs)
	if err != nil {
		return nil, err
	}
	return s.roomView(ctx, room, creatorID)
}

func (s *ChatService) ListMyRooms(ctx context.Context, userID int64) ([]RoomView, error) {
	rooms, err := s.directory.ListUserRooms(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]RoomView, 0, len(rooms))
	for _, rc := range rooms {
		unread, err := s.messages.UnreadCount(ctx, userID, &rc.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, RoomView{
			ID:               rc.ID,
			Name:             rc.Name,
			IsGroup:          rc.IsGroup,
			CreatedAt:        rc.CreatedAt,
			ParticipantCount: rc.ParticipantCount,
			UnreadCount:      unread,
		})
	}
	return out, nil
}

// ListMessages returns a page of history and, as a side effect, marks the
// room read for the caller. The returned items carry the read flags as they
// were at query time.
func (s *ChatService) ListMessages(ctx context.Context, roomID string, userID int64, limit, offset int) ([]MessageView, error) {
	if _, err := s.directory.GetRoomForUser(ctx, roomID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.History(ctx, roomID, limit, offset)
	if err != nil {
		return nil, err
	}

	if _, err := s.messages.MarkRoomRead(ctx, roomID, userID); err != nil {
		return nil, err
	}

	return lo.Map(msgs, func(m domain.Message, _ int) MessageView {
		return messageView(&m)
	}), nil
}

// SendMessage persists and returns the message with its sender resolved.
// Membership is enforced inside the append transaction.
func (s *ChatService) SendMessage(ctx context.Context, roomID string, senderID int64, content string, msgType domain.MessageType) (*domain.Message, error) {
	return s.messages.Send(ctx, roomID, senderID, content, msgType)
}

func (s *ChatService) GetRoomForUser(ctx context.Context, roomID string, userID int64) (*domain.Room, error) {
	return s.directory.GetRoomForUser(ctx, roomID, userID)
}

func (s *ChatService) ListParticipants(ctx context.Context, roomID string, userID int64) ([]ParticipantView, error) {
	rows, err := s.directory.ListParticipants(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r postgres.ParticipantDetailedRow, _ int) ParticipantView {
		return ParticipantView{
			RoomID:   r.RoomID,
			UserID:   r.UserID,
			IsAdmin:  r.IsAdmin,
			JoinedAt: r.JoinedAt,
			Username: r.Username,
			Email:    r.Email,
		}
	}), nil
}

func (s *ChatService) AddParticipant(ctx context.Context, roomID string, actorID, targetID int64) error {
	return s.directory.AddParticipant(ctx, roomID, actorID, targetID)
}

func (s *ChatService) RemoveParticipant(ctx context.Context, roomID string, actorID, targetID int64) error {
	return s.directory.RemoveParticipant(ctx, roomID, actorID, targetID)
}

func (s *ChatService) DeleteRoom(ctx context.Context, roomID string, actorID int64) error {
	return s.directory.DeleteRoom(ctx, roomID, actorID)
}

func (s *ChatService) MarkRoomRead(ctx context.Context, roomID string, readerID int64) (int64, error) {
	return s.messages.MarkRoomRead(ctx, roomID, readerID)
}

func (s *ChatService) MarkMessageRead(ctx context.Context, messageID string, readerID int64) (bool, error) {
	return s.messages.MarkMessageRead(ctx, messageID, readerID)
}

func (s *ChatService) UnreadCount(ctx context.Context, userID int64, roomID *string) (int64, error) {
	if roomID != nil {
		if _, err := s.directory.GetRoomForUser(ctx, *roomID, userID); err != nil {
			return 0, err
		}
	}
	return s.messages.UnreadCount(ctx, userID, roomID)
}

func (s *ChatService) OnlineUsers(ctx context.Context, roomID string, userID int64) ([]domain.Presence, error) {
	if _, err := s.directory.GetRoomForUser(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.presence.ListOnline(roomID), nil
}

func (s *ChatService) roomView(ctx context.Context, room *domain.Room, userID int64) (*RoomView, error) {
	count, err := s.directory.ParticipantCount(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.UnreadCount(ctx, userID, &room.ID)
	if err != nil {
		return nil, err
	}
	return &RoomView{
		ID:               room.ID,
		Name:             room.Name,
		IsGroup:          room.IsGroup,
		CreatedAt:        room.CreatedAt,
		ParticipantCount: count,
		UnreadCount:      unread,
	}, nil
}

func messageView(m *domain.Message) MessageView {
	return MessageView{
		ID:             m.ID,
		RoomID:         m.RoomID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Type:           m.Type,
		CreatedAt:      m.CreatedAt,
		IsRead:         m.IsRead,
		SenderUsername: m.SenderUsername,
	}
}
