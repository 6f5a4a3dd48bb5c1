package domain

import "time"

type Participant struct {
	RoomID   string    `db:"room_id"`
	UserID   int64     `db:"user_id"`
	IsAdmin  bool      `db:"is_admin"`
	JoinedAt time.Time `db:"joined_at"`
}
