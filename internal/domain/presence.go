package domain

import "time"

// Presence is a point-in-time snapshot of one live connection in a room.
// It is never persisted; the connection registry owns the underlying session.
type Presence struct {
	UserID      int64     `json:"user_id"`
	ConnectedAt time.Time `json:"connected_at"`
}
