package service

import (
	"context"
	"strings"

	"github.com/realReloadTime/web-development/internal/domain"
	"github.com/realReloadTime/web-development/internal/postgres"

	"github.com/samber/lo"
)

type RoomStore interface {
	CreatePrivate(ctx context.Context, userA, userB int64) (*domain.Room, bool, error)
	CreateGroup(ctx context.Context, name string, creatorID int64, participantIDs []int64) (*domain.Room, error)
	GetForUser(ctx context.Context, roomID string, userID int64) (*domain.Room, error)
	ListForUser(ctx context.Context, userID int64) ([]postgres.RoomWithCount, error)
	Delete(ctx context.Context, roomID string) error
}

type ParticipantStore interface {
	Add(ctx context.Context, roomID string, userID int64, isAdmin bool) (*domain.Participant, error)
	Remove(ctx context.Context, roomID string, userID int64) error
	IsAdmin(ctx context.Context, roomID string, userID int64) (bool, error)
	CountInRoom(ctx context.Context, roomID string) (int64, error)
	ListDetailed(ctx context.Context, roomID string) ([]postgres.ParticipantDetailedRow, error)
}

// UserStore is the read-only view into the identity table; rooms are only
// ever opened towards users that actually exist.
type UserStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// DirectoryService owns the room/participant rules: private-chat uniqueness,
// group admin permissions, and the membership check everything else relies on.
type DirectoryService struct {
	roomRepo RoomStore
	partRepo ParticipantStore
	userRepo UserStore
}

func NewDirectoryService(roomRepo RoomStore, partRepo ParticipantStore, userRepo UserStore) *DirectoryService {
	return &DirectoryService{roomRepo: roomRepo, partRepo: partRepo, userRepo: userRepo}
}

func (s *DirectoryService) requireUser(ctx context.Context, id int64) error {
	ok, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreatePrivate returns the private room for the pair, creating it on first use.
func (s *DirectoryService) CreatePrivate(ctx context.Context, userA, userB int64) (*domain.Room, error) {
	if userA == userB {
		return nil, domain.ErrSelfChat
	}
	if err := s.requireUser(ctx, userB); err != nil {
		return nil, err
	}
	room, _, err := s.roomRepo.CreatePrivate(ctx, userA, userB)
	return room, err
}

func (s *DirectoryService) CreateGroup(ctx context.Context, name string, creatorID int64, participantIDs []int64) (*domain.Room, error) {
	name = strings.TrimSpace(name)

	ids := lo.Uniq(participantIDs)
	ids = lo.Filter(ids, func(id int64, _ int) bool { return id != creatorID })

	for _, id := range ids {
		if err := s.requireUser(ctx, id); err != nil {
			return nil, err
		}
	}

	return s.roomRepo.CreateGroup(ctx, name, creatorID, ids)
}

// GetRoomForUser is the access-control primitive: the room is visible only
// to its current participants.
func (s *DirectoryService) GetRoomForUser(ctx context.Context, roomID string, userID int64) (*domain.Room, error) {
	return s.roomRepo.GetForUser(ctx, roomID, userID)
}

func (s *DirectoryService) ListUserRooms(ctx context.Context, userID int64) ([]postgres.RoomWithCount, error) {
	return s.roomRepo.ListForUser(ctx, userID)
}

// AddParticipant lets a group admin add a new member. Private rooms never
// accept extra participants.
func (s *DirectoryService) AddParticipant(ctx context.Context, roomID string, actorID, targetID int64) error {
	room, err := s.roomRepo.GetForUser(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !room.IsGroup {
		return domain.ErrPrivateRoom
	}

	isAdmin, err := s.partRepo.IsAdmin(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return domain.ErrNotAdmin
	}

	if err := s.requireUser(ctx, targetID); err != nil {
		return err
	}

	_, err = s.partRepo.Add(ctx, roomID, targetID, false)
	return err
}

// RemoveParticipant requires admin rights in group rooms. In a private room
// either side may remove, which effectively ends the chat for both.
func (s *DirectoryService) RemoveParticipant(ctx context.Context, roomID string, actorID, targetID int64) error {
	room, err := s.roomRepo.GetForUser(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if room.IsGroup {
		isAdmin, err := s.partRepo.IsAdmin(ctx, roomID, actorID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return domain.ErrNotAdmin
		}
	}

	return s.partRepo.Remove(ctx, roomID, targetID)
}

func (s *DirectoryService) ListParticipants(ctx context.Context, roomID string, userID int64) ([]postgres.ParticipantDetailedRow, error) {
	if _, err := s.roomRepo.GetForUser(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.partRepo.ListDetailed(ctx, roomID)
}

func (s *DirectoryService) ParticipantCount(ctx context.Context, roomID string) (int64, error) {
	return s.partRepo.CountInRoom(ctx, roomID)
}

// DeleteRoom removes a group room with everything it owns. Admin only.
func (s *DirectoryService) DeleteRoom(ctx context.Context, roomID string, actorID int64) error {
	room, err := s.roomRepo.GetForUser(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !room.IsGroup {
		return domain.ErrPrivateRoom
	}

	isAdmin, err := s.partRepo.IsAdmin(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return domain.ErrNotAdmin
	}

	return s.roomRepo.Delete(ctx, roomID)
}
