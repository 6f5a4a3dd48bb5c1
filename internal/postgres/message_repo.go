package postgres

import (
	"context"

	"github.com/realReloadTime/web-development/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append persists a message. The membership check runs in the same
// transaction as the insert so a concurrent removal of the sender cannot
// slip a message into a room they just left.
func (r *MessageRepository) Append(ctx context.Context, roomID string, senderID int64, content string, msgType domain.MessageType) (*domain.Message, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var isMember bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE room_id=$1 AND user_id=$2)`,
		roomID, senderID).Scan(&isMember); err != nil {
		return nil, err
	}
	if !isMember {
		return nil, domain.ErrNotParticipant
	}

	m := domain.Message{RoomID: roomID, SenderID: senderID, Content: content, Type: msgType}
	if err := tx.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender_id, content, message_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, is_read
	`, roomID, senderID, content, string(msgType)).Scan(&m.ID, &m.CreatedAt, &m.IsRead); err != nil {
		return nil, err
	}

	if err := tx.QueryRow(ctx, `SELECT username FROM users WHERE id=$1`, senderID).
		Scan(&m.SenderUsername); err != nil {
		return nil, err
	}

	return &m, tx.Commit(ctx)
}

// Page returns the room's messages newest first. Ties on created_at are
// broken by id descending so the order is stable.
func (r *MessageRepository) Page(ctx context.Context, roomID string, limit, offset int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.id, m.room_id, m.sender_id, m.content, m.message_type, m.created_at, m.is_read, u.username
		FROM chat_messages m
		LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Content, &m.Type,
			&m.CreatedAt, &m.IsRead, &m.SenderUsername); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkRoomRead flips every unread message in the room that the reader did
// not send. Returns the number of messages flipped; zero when there was
// nothing left to read, so the call is idempotent.
func (r *MessageRepository) MarkRoomRead(ctx context.Context, roomID string, readerID int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE chat_messages
		SET is_read = TRUE
		WHERE room_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, roomID, readerID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// MarkMessageRead flips one message under the same sender<>reader, unread
// precondition. Reports whether the flag actually flipped.
func (r *MessageRepository) MarkMessageRead(ctx context.Context, messageID string, readerID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE chat_messages
		SET is_read = TRUE
		WHERE id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, messageID, readerID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// UnreadCount counts unread messages addressed to the reader across the
// rooms they participate in, optionally scoped to one room.
func (r *MessageRepository) UnreadCount(ctx context.Context, readerID int64, roomID *string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM chat_messages m
		JOIN chat_participants p ON p.room_id = m.room_id AND p.user_id = $1
		WHERE m.sender_id <> $1
		  AND m.is_read = FALSE
		  AND ($2::uuid IS NULL OR m.room_id = $2::uuid)
	`, readerID, roomID).Scan(&count)
	return count, err
}
