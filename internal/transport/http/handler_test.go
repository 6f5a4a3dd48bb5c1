package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/realReloadTime/web-development/internal/domain"
	"github.com/realReloadTime/web-development/internal/postgres"
	"github.com/realReloadTime/web-development/internal/service"
	"github.com/realReloadTime/web-development/internal/transport/ws"

	"github.com/stretchr/testify/require"
)

// memStore backs the handler tests with the repository contracts in memory.
type memStore struct {
	nextRoom int
	nextMsg  int
	rooms    map[string]*domain.Room
	parts    map[string]map[int64]*domain.Participant
	messages map[string][]domain.Message
	missing  map[int64]bool
}

func newMemStore() *memStore {
	return &memStore{
		rooms:    make(map[string]*domain.Room),
		parts:    make(map[string]map[int64]*domain.Participant),
		messages: make(map[string][]domain.Message),
		missing:  make(map[int64]bool),
	}
}

func (m *memStore) Exists(_ context.Context, id int64) (bool, error) {
	return !m.missing[id], nil
}

func (m *memStore) newRoom(name *string, isGroup bool) *domain.Room {
	m.nextRoom++
	r := &domain.Room{ID: fmt.Sprintf("room-%d", m.nextRoom), Name: name, IsGroup: isGroup, CreatedAt: time.Now()}
	m.rooms[r.ID] = r
	m.parts[r.ID] = make(map[int64]*domain.Participant)
	return r
}

func (m *memStore) CreatePrivate(_ context.Context, userA, userB int64) (*domain.Room, bool, error) {
	for id, r := range m.rooms {
		if r.IsGroup {
			continue
		}
		_, hasA := m.parts[id][userA]
		_, hasB := m.parts[id][userB]
		if hasA && hasB {
			return r, false, nil
		}
	}
	r := m.newRoom(nil, false)
	m.parts[r.ID][userA] = &domain.Participant{RoomID: r.ID, UserID: userA, JoinedAt: time.Now()}
	m.parts[r.ID][userB] = &domain.Participant{RoomID: r.ID, UserID: userB, JoinedAt: time.Now()}
	return r, true, nil
}

func (m *memStore) CreateGroup(_ context.Context, name string, creatorID int64, participantIDs []int64) (*domain.Room, error) {
	r := m.newRoom(&name, true)
	m.parts[r.ID][creatorID] = &domain.Participant{RoomID: r.ID, UserID: creatorID, IsAdmin: true, JoinedAt: time.Now()}
	for _, id := range participantIDs {
		m.parts[r.ID][id] = &domain.Participant{RoomID: r.ID, UserID: id, JoinedAt: time.Now()}
	}
	return r, nil
}

func (m *memStore) GetForUser(_ context.Context, roomID string, userID int64) (*domain.Room, error) {
	r, ok := m.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if _, ok := m.parts[roomID][userID]; !ok {
		return nil, domain.ErrRoomNotFound
	}
	return r, nil
}

func (m *memStore) ListForUser(_ context.Context, userID int64) ([]postgres.RoomWithCount, error) {
	var out []postgres.RoomWithCount
	for id, r := range m.rooms {
		if _, ok := m.parts[id][userID]; ok {
			out = append(out, postgres.RoomWithCount{Room: *r, ParticipantCount: int64(len(m.parts[id]))})
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, roomID string) error {
	if _, ok := m.rooms[roomID]; !ok {
		return domain.ErrRoomNotFound
	}
	delete(m.rooms, roomID)
	delete(m.parts, roomID)
	delete(m.messages, roomID)
	return nil
}

func (m *memStore) Add(_ context.Context, roomID string, userID int64, isAdmin bool) (*domain.Participant, error) {
	if _, ok := m.parts[roomID][userID]; ok {
		return nil, domain.ErrAlreadyParticipant
	}
	p := &domain.Participant{RoomID: roomID, UserID: userID, IsAdmin: isAdmin, JoinedAt: time.Now()}
	m.parts[roomID][userID] = p
	return p, nil
}

func (m *memStore) Remove(_ context.Context, roomID string, userID int64) error {
	if _, ok := m.parts[roomID][userID]; !ok {
		return domain.ErrNotParticipant
	}
	delete(m.parts[roomID], userID)
	return nil
}

func (m *memStore) IsAdmin(_ context.Context, roomID string, userID int64) (bool, error) {
	p, ok := m.parts[roomID][userID]
	return ok && p.IsAdmin, nil
}

func (m *memStore) CountInRoom(_ context.Context, roomID string) (int64, error) {
	return int64(len(m.parts[roomID])), nil
}

func (m *memStore) ListDetailed(_ context.Context, roomID string) ([]postgres.ParticipantDetailedRow, error) {
	var out []postgres.ParticipantDetailedRow
	for _, p := range m.parts[roomID] {
		username := fmt.Sprintf("user-%d", p.UserID)
		out = append(out, postgres.ParticipantDetailedRow{
			RoomID: p.RoomID, UserID: p.UserID, IsAdmin: p.IsAdmin, JoinedAt: p.JoinedAt,
			Username: &username, Email: fmt.Sprintf("user-%d@example.com", p.UserID),
		})
	}
	return out, nil
}

func (m *memStore) Append(_ context.Context, roomID string, senderID int64, content string, msgType domain.MessageType) (*domain.Message, error) {
	if _, ok := m.parts[roomID][senderID]; !ok {
		return nil, domain.ErrNotParticipant
	}
	m.nextMsg++
	msg := domain.Message{
		ID: fmt.Sprintf("msg-%d", m.nextMsg), RoomID: roomID, SenderID: senderID,
		Content: content, Type: msgType, CreatedAt: time.Now(),
	}
	m.messages[roomID] = append(m.messages[roomID], msg)
	return &msg, nil
}

func (m *memStore) Page(_ context.Context, roomID string, limit, offset int) ([]domain.Message, error) {
	msgs := m.messages[roomID]
	var out []domain.Message
	for i := len(msgs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (m *memStore) MarkRoomRead(_ context.Context, roomID string, readerID int64) (int64, error) {
	var n int64
	for i := range m.messages[roomID] {
		msg := &m.messages[roomID][i]
		if msg.SenderID != readerID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memStore) MarkMessageRead(_ context.Context, messageID string, readerID int64) (bool, error) {
	for roomID := range m.messages {
		for i := range m.messages[roomID] {
			msg := &m.messages[roomID][i]
			if msg.ID == messageID {
				if msg.SenderID != readerID && !msg.IsRead {
					msg.IsRead = true
					return true, nil
				}
				return false, nil
			}
		}
	}
	return false, domain.ErrMessageNotFound
}

func (m *memStore) UnreadCount(_ context.Context, readerID int64, roomID *string) (int64, error) {
	var n int64
	for id, msgs := range m.messages {
		if roomID != nil && id != *roomID {
			continue
		}
		if _, ok := m.parts[id][readerID]; !ok {
			continue
		}
		for _, msg := range msgs {
			if msg.SenderID != readerID && !msg.IsRead {
				n++
			}
		}
	}
	return n, nil
}

func newTestAPI(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	store := newMemStore()
	chatSvc := service.NewChatService(
		service.NewDirectoryService(store, store, store),
		service.NewMessageService(store),
		ws.NewHub(),
	)

	h := NewHandler(chatSvc)
	router := NewRouter(h, ws.NewServer(ws.NewHub(), chatSvc))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, userID int64, body any) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer test-token")
	if userID > 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, data
}

func TestAPI_AuthRequired(t *testing.T) {
	srv, _ := newTestAPI(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/chat/rooms", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// bearer present but no user id
	resp2, _ := doJSON(t, srv, http.MethodGet, "/chat/rooms", 0, nil)
	require.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestAPI_PrivateChatLifecycle(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/chat/private/2", 1, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var room RoomItem
	require.NoError(t, json.Unmarshal(body, &room))
	require.False(t, room.IsGroup)
	require.Equal(t, int64(2), room.ParticipantCount)

	// repeating the request returns the same room
	resp, body = doJSON(t, srv, http.MethodPost, "/chat/private/2", 1, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var again RoomItem
	require.NoError(t, json.Unmarshal(body, &again))
	require.Equal(t, room.ID, again.ID)

	resp, _ = doJSON(t, srv, http.MethodPost, "/chat/private/1", 1, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/chat/private/abc", 1, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_PrivateChatWithUnknownUser(t *testing.T) {
	srv, store := newTestAPI(t)
	store.missing[42] = true

	resp, _ := doJSON(t, srv, http.MethodPost, "/chat/private/42", 1, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GroupChatValidation(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, _ := doJSON(t, srv, http.MethodPost, "/chat/group", 1, map[string]any{
		"participant_ids": []int64{2},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/chat/group", 1, map[string]any{
		"name":            "staff",
		"participant_ids": []int64{},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, srv, http.MethodPost, "/chat/group", 1, map[string]any{
		"name":            "staff",
		"participant_ids": []int64{2, 3},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var room RoomItem
	require.NoError(t, json.Unmarshal(body, &room))
	require.True(t, room.IsGroup)
	require.Equal(t, int64(3), room.ParticipantCount)
}

func TestAPI_MessagesAndUnread(t *testing.T) {
	srv, store := newTestAPI(t)
	ctx := context.Background()

	resp, body := doJSON(t, srv, http.MethodPost, "/chat/private/2", 1, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var room RoomItem
	require.NoError(t, json.Unmarshal(body, &room))

	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, room.ID, 2, fmt.Sprintf("hello %d", i), domain.MessageText)
		require.NoError(t, err)
	}

	resp, body = doJSON(t, srv, http.MethodGet, "/chat/unread", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var unread UnreadCountResponse
	require.NoError(t, json.Unmarshal(body, &unread))
	require.Equal(t, int64(3), unread.UnreadCount)

	// listing history marks the room read
	resp, body = doJSON(t, srv, http.MethodGet, "/chat/rooms/"+room.ID+"/messages?limit=2", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msgs MessagesResponse
	require.NoError(t, json.Unmarshal(body, &msgs))
	require.Len(t, msgs.Items, 2)
	require.Equal(t, "hello 2", msgs.Items[0].Content)

	resp, body = doJSON(t, srv, http.MethodGet, "/chat/unread?room_id="+room.ID, 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &unread))
	require.Zero(t, unread.UnreadCount)

	// outsiders cannot read the room
	resp, _ = doJSON(t, srv, http.MethodGet, "/chat/rooms/"+room.ID+"/messages", 9, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ParticipantRules(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/chat/group", 1, map[string]any{
		"name":            "staff",
		"participant_ids": []int64{2},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var room RoomItem
	require.NoError(t, json.Unmarshal(body, &room))

	// non-admin cannot add
	resp, _ = doJSON(t, srv, http.MethodPost, "/chat/rooms/"+room.ID+"/participants/3", 2, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodPost, "/chat/rooms/"+room.ID+"/participants/3", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// adding the same user again conflicts
	resp, _ = doJSON(t, srv, http.MethodPost, "/chat/rooms/"+room.ID+"/participants/3", 1, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = doJSON(t, srv, http.MethodGet, "/chat/rooms/"+room.ID+"/participants", 3, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var parts ParticipantsResponse
	require.NoError(t, json.Unmarshal(body, &parts))
	require.Len(t, parts.Items, 3)

	resp, _ = doJSON(t, srv, http.MethodDelete, "/chat/rooms/"+room.ID+"/participants/3", 1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// removed users lose access
	resp, _ = doJSON(t, srv, http.MethodGet, "/chat/rooms/"+room.ID+"/participants", 3, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_DeleteRoom(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, body := doJSON(t, srv, http.MethodPost, "/chat/group", 1, map[string]any{
		"name":            "staff",
		"participant_ids": []int64{2},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var room RoomItem
	require.NoError(t, json.Unmarshal(body, &room))

	resp, _ = doJSON(t, srv, http.MethodDelete, "/chat/rooms/"+room.ID, 2, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodDelete, "/chat/rooms/"+room.ID, 1, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, srv, http.MethodGet, "/chat/rooms/"+room.ID+"/participants", 1, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Healthz(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
