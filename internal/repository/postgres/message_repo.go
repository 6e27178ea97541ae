package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpavlovic/whisper/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, chat_id, sender_id, sender_name, sender_avatar_url,
			content, type, read, file_url, file_name, file_size, file_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, 0), NULLIF($12, ''), $13)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ChatID, msg.SenderID, msg.SenderName, msg.SenderAvatarURL,
		msg.Content, msg.Type, msg.Read,
		msg.FileURL, msg.FileName, msg.FileSize, msg.FileType, msg.CreatedAt,
	)
	return err
}

func (r *MessageRepo) ListRecent(ctx context.Context, chatID string, limit int) ([]domain.Message, error) {
	// Most recent first, then reversed to chronological order. Ties on
	// created_at break by id so the order is stable across reads.
	query := `
		SELECT id, chat_id, sender_id, sender_name, sender_avatar_url, content, type, read,
			COALESCE(file_url, ''), COALESCE(file_name, ''), COALESCE(file_size, 0), COALESCE(file_type, ''),
			created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID, &m.ChatID, &m.SenderID, &m.SenderName, &m.SenderAvatarURL,
			&m.Content, &m.Type, &m.Read,
			&m.FileURL, &m.FileName, &m.FileSize, &m.FileType, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepo) MarkRead(ctx context.Context, chatID string, readerID uuid.UUID, scan int) error {
	query := `
		UPDATE messages SET read = TRUE
		WHERE id IN (
			SELECT id FROM messages
			WHERE chat_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)
		AND sender_id <> $3 AND read = FALSE`
	_, err := r.pool.Exec(ctx, query, chatID, scan, readerID)
	return err
}
