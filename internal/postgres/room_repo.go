package postgres

import (
	"context"
	"fmt"

	"github.com/realReloadTime/web-development/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

// CreatePrivate returns the existing private room for the pair if one exists,
// otherwise creates the room together with both participant rows in one
// transaction. The second return value reports whether a new room was created.
func (r *RoomRepository) CreatePrivate(ctx context.Context, userA, userB int64) (*domain.Room, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var rm domain.Room
	err = tx.QueryRow(ctx, `
		SELECT r.id, r.name, r.is_group, r.created_at
		FROM chat_rooms r
		JOIN chat_participants pa ON pa.room_id = r.id AND pa.user_id = $1
		JOIN chat_participants pb ON pb.room_id = r.id AND pb.user_id = $2
		WHERE r.is_group = FALSE
		LIMIT 1
	`, userA, userB).Scan(&rm.ID, &rm.Name, &rm.IsGroup, &rm.CreatedAt)
	if err == nil {
		return &rm, false, tx.Commit(ctx)
	}
	if err != pgx.ErrNoRows {
		return nil, false, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO chat_rooms (is_group)
		VALUES (FALSE)
		RETURNING id, name, is_group, created_at
	`).Scan(&rm.ID, &rm.Name, &rm.IsGroup, &rm.CreatedAt)
	if err != nil {
		return nil, false, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_participants (room_id, user_id)
		VALUES ($1, $2), ($1, $3)
	`, rm.ID, userA, userB); err != nil {
		return nil, false, err
	}

	return &rm, true, tx.Commit(ctx)
}

// CreateGroup creates a group room, the creator as admin and the remaining
// ids as regular participants, all in one transaction. Ids must already be
// deduplicated and not contain the creator.
func (r *RoomRepository) CreateGroup(ctx context.Context, name string, creatorID int64, participantIDs []int64) (*domain.Room, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var rm domain.Room
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_rooms (name, is_group)
		VALUES ($1, TRUE)
		RETURNING id, name, is_group, created_at
	`, name).Scan(&rm.ID, &rm.Name, &rm.IsGroup, &rm.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_participants (room_id, user_id, is_admin)
		VALUES ($1, $2, TRUE)
	`, rm.ID, creatorID); err != nil {
		return nil, err
	}

	for _, uid := range participantIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_participants (room_id, user_id)
			VALUES ($1, $2)
		`, rm.ID, uid); err != nil {
			return nil, fmt.Errorf("add participant %d: %w", uid, err)
		}
	}

	return &rm, tx.Commit(ctx)
}

// GetForUser returns the room only if the user is a current participant.
// A room that exists but is not visible to the user is indistinguishable
// from a missing one: both are ErrRoomNotFound.
func (r *RoomRepository) GetForUser(ctx context.Context, roomID string, userID int64) (*domain.Room, error) {
	var rm domain.Room
	err := r.db.QueryRow(ctx, `
		SELECT r.id, r.name, r.is_group, r.created_at
		FROM chat_rooms r
		JOIN chat_participants p ON p.room_id = r.id
		WHERE r.id = $1 AND p.user_id = $2
	`, roomID, userID).Scan(&rm.ID, &rm.Name, &rm.IsGroup, &rm.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

type RoomWithCount struct {
	domain.Room
	ParticipantCount int64
}

func (r *RoomRepository) ListForUser(ctx context.Context, userID int64) ([]RoomWithCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.name, r.is_group, r.created_at,
		       (SELECT COUNT(*) FROM chat_participants c WHERE c.room_id = r.id)
		FROM chat_rooms r
		JOIN chat_participants p ON p.room_id = r.id
		WHERE p.user_id = $1
		ORDER BY r.created_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoomWithCount
	for rows.Next() {
		var rc RoomWithCount
		if err := rows.Scan(&rc.ID, &rc.Name, &rc.IsGroup, &rc.CreatedAt, &rc.ParticipantCount); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Delete removes the room; participants and messages go with it (FK cascade).
func (r *RoomRepository) Delete(ctx context.Context, roomID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM chat_rooms WHERE id=$1`, roomID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
