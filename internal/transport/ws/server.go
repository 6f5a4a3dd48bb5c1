package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/realReloadTime/web-development/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type ChatSvc interface {
	GetRoomForUser(ctx context.Context, roomID string, userID int64) (*domain.Room, error)
	SendMessage(ctx context.Context, roomID string, senderID int64, content string, msgType domain.MessageType) (*domain.Message, error)
	MarkRoomRead(ctx context.Context, roomID string, readerID int64) (int64, error)
	MarkMessageRead(ctx context.Context, messageID string, readerID int64) (bool, error)
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	chatSvc  ChatSvc

	pingEvery   time.Duration
	sendTimeout time.Duration
}

func NewServer(hub *Hub, chat ChatSvc) *Server {
	return &Server{
		hub:     hub,
		chatSvc: chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery:   15 * time.Second,
		sendTimeout: 5 * time.Second,
	}
}

func (s *Server) SetTimings(pingEvery, sendTimeout time.Duration) {
	if pingEvery > 0 {
		s.pingEvery = pingEvery
	}
	if sendTimeout > 0 {
		s.sendTimeout = sendTimeout
	}
}

// WS endpoint: GET /ws/chat/{id}?access_token=...&user_id=...
//
// A session is admitted into the registry only after the directory confirms
// the user is a participant of the room; otherwise the channel is closed
// with a policy-violation code and the session never becomes visible.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accessToken := strings.TrimSpace(q.Get("access_token"))
	if accessToken == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	uid, err := strconv.ParseInt(strings.TrimSpace(q.Get("user_id")), 10, 64)
	if err != nil || uid <= 0 {
		http.Error(w, "invalid user_id", http.StatusUnauthorized)
		return
	}
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	if _, err := s.chatSvc.GetRoomForUser(r.Context(), roomID, uid); err != nil {
		s.closeWith(conn, websocket.ClosePolicyViolation, "not a participant")
		return
	}

	c := newWsSession(conn, roomID, uid, s.sendTimeout)
	if !s.hub.Admit(c) {
		s.closeWith(conn, websocket.CloseServiceRestart, "shutting down")
		return
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), c)

	// Exactly one eviction per session, whatever ended the read loop.
	s.hub.Evict(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", uid, "err", err)
	}
}

func (s *Server) closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(s.sendTimeout)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

// readLoop processes the session's frames sequentially, so one client's
// frames apply in the order they were sent. A frame that fails validation
// or persistence is answered with an error frame; the session stays up.
func (s *Server) readLoop(ctx context.Context, c *wsSession) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, "malformed frame")
			continue
		}
		s.handleFrame(ctx, c, msg)
	}
}

func (s *Server) handleFrame(ctx context.Context, c *wsSession, msg Message) {
	switch msg.Type {
	case TypeMessage:
		var p SendPayload
		if err := decode(msg.Payload, &p); err != nil {
			s.sendError(c, "malformed frame")
			return
		}
		saved, err := s.chatSvc.SendMessage(ctx, c.roomID, c.userID, p.Content, domain.MessageType(p.MessageType))
		if err != nil {
			s.sendError(c, reason(err))
			return
		}
		// Broadcast strictly after commit: everyone, sender included.
		s.hub.Broadcast(c.roomID, Message{
			Type: TypeMessage,
			Payload: MessagePayload{
				Message: messageItem(saved),
				TSUnix:  time.Now().Unix(),
			},
		}, 0)

	case TypeTyping:
		var p TypingPayload
		if err := decode(msg.Payload, &p); err != nil {
			s.sendError(c, "malformed frame")
			return
		}
		s.hub.Broadcast(c.roomID, Message{
			Type: TypeTyping,
			Payload: TypingPayload{
				RoomID:   c.roomID,
				UserID:   c.userID,
				IsTyping: p.IsTyping,
				TSUnix:   time.Now().Unix(),
			},
		}, c.userID)

	case TypeRead:
		var p ReadPayload
		if err := decode(msg.Payload, &p); err != nil {
			s.sendError(c, "malformed frame")
			return
		}
		receipt := ReadReceiptPayload{
			RoomID: c.roomID,
			UserID: c.userID,
			TSUnix: time.Now().Unix(),
		}
		if p.MessageID != "" {
			if _, err := s.chatSvc.MarkMessageRead(ctx, p.MessageID, c.userID); err != nil {
				s.sendError(c, reason(err))
				return
			}
			receipt.MessageID = p.MessageID
		} else {
			count, err := s.chatSvc.MarkRoomRead(ctx, c.roomID, c.userID)
			if err != nil {
				s.sendError(c, reason(err))
				return
			}
			receipt.ReadCount = count
		}
		s.hub.Broadcast(c.roomID, Message{Type: TypeReadReceipt, Payload: receipt}, c.userID)

	case TypePing:
		s.hub.Unicast(c, Message{Type: TypePong, Payload: PongPayload{TSUnix: time.Now().Unix()}})

	default:
		s.sendError(c, "unknown frame type")
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsSession) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.sendTimeout))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func (s *Server) sendError(c *wsSession, why string) {
	s.hub.Unicast(c, Message{
		Type:    TypeError,
		Payload: ErrorPayload{Error: why, TSUnix: time.Now().Unix()},
	})
}

// reason turns an error into the human-readable text of an error frame.
// Domain errors speak for themselves; anything else stays opaque.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrBadMessageType),
		errors.Is(err, domain.ErrNotParticipant),
		errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		return err.Error()
	default:
		return "internal error"
	}
}

func messageItem(m *domain.Message) MessageItem {
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
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}

type wsSession struct {
	conn        *websocket.Conn
	roomID      string
	userID      int64
	connectedAt time.Time
	sendTimeout time.Duration
	sendMu      chan struct{}
	closeOnce   sync.Once
	closed      chan struct{}
}

func newWsSession(c *websocket.Conn, roomID string, userID int64, sendTimeout time.Duration) *wsSession {
	return &wsSession{
		conn:        c,
		roomID:      roomID,
		userID:      userID,
		connectedAt: time.Now(),
		sendTimeout: sendTimeout,
		sendMu:      make(chan struct{}, 1),
		closed:      make(chan struct{}),
	}
}

func (c *wsSession) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout))

	return c.conn.WriteJSON(msg)
}

func (c *wsSession) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	return c.conn.Close()
}

func (c *wsSession) UserID() int64          { return c.userID }
func (c *wsSession) RoomID() string         { return c.roomID }
func (c *wsSession) ConnectedAt() time.Time { return c.connectedAt }
