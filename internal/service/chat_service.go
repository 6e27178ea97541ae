package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/repository"
)

var (
	ErrCannotChatSelf = errors.New("cannot start a conversation with yourself")
	ErrUserNotFound   = errors.New("user not found")
)

// ChatEntry is a conversation annotated for display: the other
// participant's profile plus the last-message summary.
type ChatEntry struct {
	ChatID          string         `json:"chat_id"`
	OtherUser       domain.Profile `json:"other_user"`
	LastMessage     string         `json:"last_message"`
	LastMessageTime *time.Time     `json:"last_message_time,omitempty"`
}

// ChatService resolves and creates two-party conversations.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{chatRepo: chatRepo, userRepo: userRepo}
}

// GetOrCreate finds or creates the conversation between two users. The
// lookup goes through an existence query while creation derives the ID
// from the sorted participant pair, so concurrent first contact from both
// sides can still race into a duplicate. Known gap, kept as is: the
// deterministic ID makes the second insert fail on the direct path, and a
// duplicate chat is a cosmetic artifact, not data loss.
func (s *ChatService) GetOrCreate(ctx context.Context, userID, otherUserID uuid.UUID) (*domain.Chat, error) {
	if userID == otherUserID {
		return nil, ErrCannotChatSelf
	}

	other, err := s.userRepo.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, ErrUserNotFound
	}

	chat, err := s.chatRepo.GetByParticipants(ctx, userID, otherUserID)
	if err != nil {
		return nil, err
	}
	if chat != nil {
		return chat, nil
	}

	chat = &domain.Chat{
		ID:             domain.ChatID(userID, otherUserID),
		Participant1ID: userID,
		Participant2ID: otherUserID,
		CreatedAt:      time.Now(),
	}
	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	return chat, nil
}

// Get returns a conversation the user participates in.
func (s *ChatService) Get(ctx context.Context, userID uuid.UUID, chatID string) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if chat.Participant1ID != userID && chat.Participant2ID != userID {
		return nil, ErrNotParticipant
	}
	return chat, nil
}

// List returns the user's conversations annotated with the other
// participant's profile, most recent summary first. An unresolvable
// participant degrades to the placeholder profile rather than an error.
func (s *ChatService) List(ctx context.Context, userID uuid.UUID) ([]ChatEntry, error) {
	chats, err := s.chatRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]ChatEntry, 0, len(chats))
	for _, chat := range chats {
		entry := ChatEntry{
			ChatID:          chat.ID,
			LastMessage:     chat.LastMessage,
			LastMessageTime: chat.LastMessageTime,
			OtherUser:       domain.UnknownProfile(uuid.Nil),
		}
		if other, ok := chat.OtherParticipant(userID); ok {
			entry.OtherUser = domain.UnknownProfile(other)
			if u, err := s.userRepo.GetByID(ctx, other); err == nil && u != nil {
				entry.OtherUser = u.Profile()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
