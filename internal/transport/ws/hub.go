package ws

import (
	"sync"
	"time"

	"github.com/realReloadTime/web-development/internal/domain"
)

type Session interface {
	Send(msg Message) error
	Close() error
	UserID() int64
	RoomID() string
	ConnectedAt() time.Time
}

// Hub is the process-wide connection registry: room id -> set of live
// sessions. It holds channel handles and ids only, never references into
// persisted storage, so it cannot block on store transactions.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Session]struct{} // roomID -> set of sessions
	closed bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Session]struct{})}
}

// Admit registers the session. The first session of a room lazily creates
// its set entry. Returns false once the hub has been shut down.
func (h *Hub) Admit(s Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	rs, ok := h.rooms[s.RoomID()]
	if !ok {
		rs = make(map[Session]struct{})
		h.rooms[s.RoomID()] = rs
	}
	rs[s] = struct{}{}
	return true
}

// Evict removes the session. The last eviction for a room drops the set
// entry to bound memory. Safe to call more than once.
func (h *Hub) Evict(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[s.RoomID()]; ok {
		delete(rs, s)
		if len(rs) == 0 {
			delete(h.rooms, s.RoomID())
		}
	}
}

// Broadcast fans msg out to every live session in the room, skipping
// sessions of excludeUser when non-zero. Sends are best-effort: a failed
// recipient does not abort delivery to the rest, it is presumed dead and
// evicted.
func (h *Hub) Broadcast(roomID string, msg Message, excludeUser int64) {
	h.mu.RLock()
	targets := make([]Session, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		if excludeUser != 0 && s.UserID() == excludeUser {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	var dead []Session
	for _, s := range targets {
		if err := s.Send(msg); err != nil {
			dead = append(dead, s)
		}
	}
	for _, s := range dead {
		h.Evict(s)
		_ = s.Close()
	}
}

// Unicast is a best-effort single send; a failure means the session is
// already being torn down and is swallowed.
func (h *Hub) Unicast(s Session, msg Message) {
	_ = s.Send(msg)
}

// ListOnline snapshots who is connected to the room right now.
func (h *Hub) ListOnline(roomID string) []domain.Presence {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Presence, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		out = append(out, domain.Presence{UserID: s.UserID(), ConnectedAt: s.ConnectedAt()})
	}
	return out
}

func (h *Hub) SessionCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[roomID])
}

// Shutdown drains the registry: no new admissions, every live session is
// closed. Closing unblocks each session's read loop, which finishes its own
// eviction path.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	var all []Session
	for _, rs := range h.rooms {
		for s := range rs {
			all = append(all, s)
		}
	}
	h.rooms = make(map[string]map[Session]struct{})
	h.mu.Unlock()

	for _, s := range all {
		_ = s.Close()
	}
}
