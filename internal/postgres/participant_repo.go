package postgres

import (
	"context"
	"time"

	"github.com/realReloadTime/web-development/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Add inserts the (room, user) row. The primary key on (room_id, user_id)
// makes duplicate joins a conflict, not a second row.
func (r *ParticipantRepository) Add(ctx context.Context, roomID string, userID int64, isAdmin bool) (*domain.Participant, error) {
	p := domain.Participant{RoomID: roomID, UserID: userID, IsAdmin: isAdmin}
	err := r.db.QueryRow(ctx, `
		INSERT INTO chat_participants (room_id, user_id, is_admin)
		VALUES ($1, $2, $3)
		RETURNING joined_at
	`, roomID, userID, isAdmin).Scan(&p.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyParticipant
		}
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) Remove(ctx context.Context, roomID string, userID int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM chat_participants WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotParticipant
	}
	return nil
}

func (r *ParticipantRepository) Exists(ctx context.Context, roomID string, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE room_id=$1 AND user_id=$2)`,
		roomID, userID).Scan(&exists)
	return exists, err
}

func (r *ParticipantRepository) IsAdmin(ctx context.Context, roomID string, userID int64) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE room_id=$1 AND user_id=$2 AND is_admin)`,
		roomID, userID).Scan(&isAdmin)
	return isAdmin, err
}

func (r *ParticipantRepository) CountInRoom(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM chat_participants WHERE room_id=$1`, roomID).Scan(&count)
	return count, err
}

type ParticipantDetailedRow struct {
	RoomID   string
	UserID   int64
	IsAdmin  bool
	JoinedAt time.Time
	Username *string
	Email    string
}

// ListDetailed returns the room's participants with their user display fields.
func (r *ParticipantRepository) ListDetailed(ctx context.Context, roomID string) ([]ParticipantDetailedRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.room_id, p.user_id, p.is_admin, p.joined_at, u.username, u.email
		FROM chat_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1
		ORDER BY p.joined_at ASC, p.user_id ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ParticipantDetailedRow, 0, 16)
	for rows.Next() {
		var row ParticipantDetailedRow
		if err := rows.Scan(&row.RoomID, &row.UserID, &row.IsAdmin, &row.JoinedAt, &row.Username, &row.Email); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
