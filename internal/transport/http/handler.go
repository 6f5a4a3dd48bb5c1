package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/realReloadTime/web-development/internal/domain"
	"github.com/realReloadTime/web-development/internal/service"
	httpmw "github.com/realReloadTime/web-development/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Handler struct {
	chatSvc  *service.ChatService
	validate *validator.Validate
}

func NewHandler(chat *service.ChatService) *Handler {
	return &Handler{
		chatSvc:  chat,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrMessageNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotAdmin),
		errors.Is(err, domain.ErrNotParticipant):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyParticipant):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrSelfChat),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrBadMessageType):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrPrivateRoom):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		slog.Error("handler."+op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// POST /chat/private/{user_id}
func (h *Handler) CreatePrivateChat(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())
	other, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || other <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	room, err := h.chatSvc.CreatePrivateChat(r.Context(), me, other)
	if err != nil {
		writeErr(w, "CreatePrivateChat", err)
		return
	}

	writeJSON(w, http.StatusCreated, roomItem(room))
}

// POST /chat/group
func (h *Handler) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	room, err := h.chatSvc.CreateGroupChat(r.Context(), req.Name, me, req.ParticipantIDs)
	if err != nil {
		writeErr(w, "CreateGroupChat", err)
		return
	}

	writeJSON(w, http.StatusCreated, roomItem(room))
}

// GET /chat/rooms
func (h *Handler) ListMyRooms(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())

	rooms, err := h.chatSvc.ListMyRooms(r.Context(), me)
	if err != nil {
		writeErr(w, "ListMyRooms", err)
		return
	}

	writeJSON(w, http.StatusOK, RoomsListResponse{
		Items: lo.Map(rooms, func(v service.RoomView, _ int) RoomItem { return roomItem(&v) }),
	})
}

// GET /chat/rooms/{id}/messages?limit=&offset=
//
// Listing a page marks the room read for the caller; the items keep the
// read flags they had when queried.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	msgs, err := h.chatSvc.ListMessages(r.Context(), roomID, me, limit, offset)
	if err != nil {
		writeErr(w, "ListMessages", err)
		return
	}

	writeJSON(w, http.StatusOK, MessagesResponse{
		Items: lo.Map(msgs, func(m service.MessageView, _ int) MessageItem {
			return MessageItem{
				ID:             m.ID,
				RoomID:         m.RoomID,
				SenderID:       m.SenderID,
				Content:        m.Content,
				MessageType:    string(m.Type),
				CreatedAt:      m.CreatedAt,
				IsRead:         m.IsRead,
				SenderUsername: m.SenderUsername,
			}
		}),
	})
}

// GET /chat/rooms/{id}/participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	parts, err := h.chatSvc.ListParticipants(r.Context(), roomID, me)
	if err != nil {
		writeErr(w, "ListParticipants", err)
		return
	}

	writeJSON(w, http.StatusOK, ParticipantsResponse{
		Items: lo.Map(parts, func(p service.ParticipantView, _ int) ParticipantItem {
			return ParticipantItem{
				RoomID:   p.RoomID,
				UserID:   p.UserID,
				IsAdmin:  p.IsAdmin,
				JoinedAt: p.JoinedAt,
				Username: p.Username,
				Email:    p.Email,
			}
		}),
	})
}

// POST /chat/rooms/{id}/participants/{user_id}
func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")
	target, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || target <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.chatSvc.AddParticipant(r.Context(), roomID, me, target); err != nil {
		writeErr(w, "AddParticipant", err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Message: "participant added"})
}

// DELETE /chat/rooms/{id}/participants/{user_id}
func (h *Handler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")
	target, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || target <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.chatSvc.RemoveParticipant(r.Context(), roomID, me, target); err != nil {
		writeErr(w, "RemoveParticipant", err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Message: "participant removed"})
}

// DELETE /chat/rooms/{id}
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	if err := h.chatSvc.DeleteRoom(r.Context(), roomID, me); err != nil {
		writeErr(w, "DeleteRoom", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /chat/unread?room_id=
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())

	var roomID *string
	if s := r.URL.Query().Get("room_id"); s != "" {
		roomID = &s
	}

	count, err := h.chatSvc.UnreadCount(r.Context(), me, roomID)
	if err != nil {
		writeErr(w, "GetUnreadCount", err)
		return
	}

	writeJSON(w, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// GET /chat/rooms/{id}/online
func (h *Handler) GetOnlineUsers(w http.ResponseWriter, r *http.Request) {
	me := httpmw.UserIDFromCtx(r.Context())
	roomID := chi.URLParam(r, "id")

	online, err := h.chatSvc.OnlineUsers(r.Context(), roomID, me)
	if err != nil {
		writeErr(w, "GetOnlineUsers", err)
		return
	}

	writeJSON(w, http.StatusOK, OnlineUsersResponse{
		OnlineUsers: lo.Map(online, func(p domain.Presence, _ int) OnlineUserItem {
			return OnlineUserItem{UserID: p.UserID, ConnectedAt: p.ConnectedAt}
		}),
	})
}

func roomItem(v *service.RoomView) RoomItem {
	return RoomItem{
		ID:               v.ID,
		Name:             v.Name,
		IsGroup:          v.IsGroup,
		CreatedAt:        v.CreatedAt,
		ParticipantCount: v.ParticipantCount,
		UnreadCount:      v.UnreadCount,
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}
