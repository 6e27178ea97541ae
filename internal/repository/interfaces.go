package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	// SearchByNameRange returns users whose lowercase display name falls in
	// [lo, hi), used for prefix search.
	SearchByNameRange(ctx context.Context, lo, hi string, limit int) ([]domain.User, error)
}

type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByID(ctx context.Context, id string) (*domain.Chat, error)
	GetByParticipants(ctx context.Context, a, b uuid.UUID) (*domain.Chat, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error)
	UpdateSummary(ctx context.Context, chatID, lastMessage string, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListRecent returns up to limit most recent messages of a chat in
	// ascending timestamp order, ties broken by message ID.
	ListRecent(ctx context.Context, chatID string, limit int) ([]domain.Message, error)
	// MarkRead flips the read flag on the scan most recent messages of the
	// chat that were not sent by readerID and are still unread.
	MarkRead(ctx context.Context, chatID string, readerID uuid.UUID, scan int) error
}
