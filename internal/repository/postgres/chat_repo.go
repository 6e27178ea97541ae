package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpavlovic/whisper/internal/domain"
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

func (r *ChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	query := `
		INSERT INTO chats (id, participant1_id, participant2_id, last_message, last_message_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		chat.ID, chat.Participant1ID, chat.Participant2ID,
		chat.LastMessage, chat.LastMessageTime, chat.CreatedAt,
	)
	return err
}

func (r *ChatRepo) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	query := `
		SELECT id, participant1_id, participant2_id, last_message, last_message_time, created_at
		FROM chats
		WHERE id = $1`
	return r.scanChat(r.pool.QueryRow(ctx, query, id))
}

func (r *ChatRepo) GetByParticipants(ctx context.Context, a, b uuid.UUID) (*domain.Chat, error) {
	query := `
		SELECT id, participant1_id, participant2_id, last_message, last_message_time, created_at
		FROM chats
		WHERE (participant1_id = $1 AND participant2_id = $2)
		   OR (participant1_id = $2 AND participant2_id = $1)`
	return r.scanChat(r.pool.QueryRow(ctx, query, a, b))
}

func (r *ChatRepo) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	query := `
		SELECT id, participant1_id, participant2_id, last_message, last_message_time, created_at
		FROM chats
		WHERE participant1_id = $1 OR participant2_id = $1
		ORDER BY last_message_time DESC NULLS LAST, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(
			&c.ID, &c.Participant1ID, &c.Participant2ID,
			&c.LastMessage, &c.LastMessageTime, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	return chats, rows.Err()
}

func (r *ChatRepo) UpdateSummary(ctx context.Context, chatID, lastMessage string, at time.Time) error {
	query := `UPDATE chats SET last_message = $1, last_message_time = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, lastMessage, at, chatID)
	return err
}

func (r *ChatRepo) scanChat(row pgx.Row) (*domain.Chat, error) {
	var c domain.Chat
	err := row.Scan(
		&c.ID, &c.Participant1ID, &c.Participant2ID,
		&c.LastMessage, &c.LastMessageTime, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
