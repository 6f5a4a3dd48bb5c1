package service

import (
	"context"
	"testing"
	"time"

	"github.com/realReloadTime/web-development/internal/domain"

	"github.com/stretchr/testify/require"
)

type fakePresence struct {
	online map[string][]domain.Presence
}

func (f *fakePresence) ListOnline(roomID string) []domain.Presence {
	return f.online[roomID]
}

func newChat() (*ChatService, *memStore, *fakeMessageStore, *fakePresence) {
	store := newMemStore()
	msgs := newFakeMessageStore()
	presence := &fakePresence{online: make(map[string][]domain.Presence)}
	svc := NewChatService(
		NewDirectoryService(store, store, store),
		NewMessageService(msgs),
		presence,
	)
	return svc, store, msgs, presence
}

func TestChat_CreatePrivateChatView(t *testing.T) {
	svc, _, msgs, _ := newChat()
	ctx := context.Background()

	view, err := svc.CreatePrivateChat(ctx, 1, 2)
	require.NoError(t, err)
	require.False(t, view.IsGroup)
	require.Equal(t, int64(2), view.ParticipantCount)
	require.Zero(t, view.UnreadCount)

	msgs.unread[view.ID] = 3
	again, err := svc.CreatePrivateChat(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, view.ID, again.ID)
	require.Equal(t, int64(3), again.UnreadCount)
}

func TestChat_ListMyRoomsCarriesUnread(t *testing.T) {
	svc, _, msgs, _ := newChat()
	ctx := context.Background()

	private, err := svc.CreatePrivateChat(ctx, 1, 2)
	require.NoError(t, err)
	group, err := svc.CreateGroupChat(ctx, "staff", 1, []int64{2, 3})
	require.NoError(t, err)

	msgs.unread[private.ID] = 2
	msgs.unread[group.ID] = 5

	rooms, err := svc.ListMyRooms(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	byID := make(map[string]RoomView, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}
	require.Equal(t, int64(2), byID[private.ID].UnreadCount)
	require.Equal(t, int64(5), byID[group.ID].UnreadCount)
	require.Equal(t, int64(3), byID[group.ID].ParticipantCount)
}

func TestChat_ListMessagesMarksRead(t *testing.T) {
	svc, _, msgs, _ := newChat()
	ctx := context.Background()

	room, err := svc.CreatePrivateChat(ctx, 1, 2)
	require.NoError(t, err)

	sender := "alice"
	msgs.history = []domain.Message{
		{ID: "m-2", RoomID: room.ID, SenderID: 2, Content: "second", Type: domain.MessageText, CreatedAt: time.Now(), SenderUsername: &sender},
		{ID: "m-1", RoomID: room.ID, SenderID: 2, Content: "first", Type: domain.MessageText, CreatedAt: time.Now().Add(-time.Minute)},
	}

	views, err := svc.ListMessages(ctx, room.ID, 1, 0, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "m-2", views[0].ID)
	require.Equal(t, &sender, views[0].SenderUsername)

	// fetching history marks the room read for the caller
	require.Equal(t, []string{room.ID}, msgs.roomReads)

	// outsiders get not-found, and no read state is touched for them
	_, err = svc.ListMessages(ctx, room.ID, 9, 0, 0)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
	require.Len(t, msgs.roomReads, 1)
}

func TestChat_UnreadCountScopedNeedsAccess(t *testing.T) {
	svc, _, msgs, _ := newChat()
	ctx := context.Background()

	room, err := svc.CreatePrivateChat(ctx, 1, 2)
	require.NoError(t, err)
	msgs.unread[room.ID] = 4
	msgs.allRead = 9

	n, err := svc.UnreadCount(ctx, 1, &room.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4), n)

	_, err = svc.UnreadCount(ctx, 9, &room.ID)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)

	// the global count needs no room access check
	n, err = svc.UnreadCount(ctx, 9, nil)
	require.NoError(t, err)
	require.Equal(t, int64(9), n)
}

func TestChat_OnlineUsersNeedsAccess(t *testing.T) {
	svc, _, _, presence := newChat()
	ctx := context.Background()

	room, err := svc.CreatePrivateChat(ctx, 1, 2)
	require.NoError(t, err)
	presence.online[room.ID] = []domain.Presence{{UserID: 2, ConnectedAt: time.Now()}}

	online, err := svc.OnlineUsers(ctx, room.ID, 1)
	require.NoError(t, err)
	require.Len(t, online, 1)
	require.Equal(t, int64(2), online[0].UserID)

	_, err = svc.OnlineUsers(ctx, room.ID, 9)
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestChat_ListParticipantsViews(t *testing.T) {
	svc, _, _, _ := newChat()
	ctx := context.Background()

	group, err := svc.CreateGroupChat(ctx, "staff", 1, []int64{2})
	require.NoError(t, err)

	views, err := svc.ListParticipants(ctx, group.ID, 2)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		require.Equal(t, group.ID, v.RoomID)
		require.NotNil(t, v.Username)
		require.NotEmpty(t, v.Email)
	}
}
