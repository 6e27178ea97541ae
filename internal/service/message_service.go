package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/logger"
	"github.com/mpavlovic/whisper/internal/repository"
)

var (
	ErrNotAuthenticated = errors.New("user is not authenticated")
	ErrEmptyMessage     = errors.New("message content is empty")
	ErrSendInFlight     = errors.New("a send for this conversation is already in flight")
	ErrChatNotFound     = errors.New("chat not found")
	ErrNotParticipant   = errors.New("you are not a participant of this conversation")
	ErrFileTooLarge     = errors.New("file size must be less than 10MB")
	ErrFileType         = errors.New("file type not supported")
	ErrUploadFailed     = errors.New("failed to upload file")
)

const (
	// MaxFileSize caps attachments at 10 MiB.
	MaxFileSize = 10 * 1024 * 1024
	// ReadScanLimit is how many recent messages a mark-read pass inspects.
	ReadScanLimit = 50
)

var allowedFileTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// BlobStore is the attachment storage the composer writes to.
type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DownloadURL(ctx context.Context, key string) (string, error)
}

// MessageNotifier announces message-set changes to live subscribers.
type MessageNotifier interface {
	NotifyMessagesChanged(chatID string)
}

// Attachment describes a file being sent.
type Attachment struct {
	Name        string
	Size        int64
	ContentType string
	Data        io.Reader
}

// MessageService is the outbound composer and read-state tracker: it
// validates and submits messages, keeps the chat's denormalized summary
// fresh, and flips read flags when a conversation is opened.
type MessageService struct {
	messageRepo repository.MessageRepository
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	blobs       BlobStore
	notifier    MessageNotifier
	log         *logger.Logger

	// inFlight serializes sends per chat: a second send while one is in
	// progress is rejected, not queued.
	mu       stdsync.Mutex
	inFlight map[string]struct{}
}

func NewMessageService(messageRepo repository.MessageRepository, chatRepo repository.ChatRepository, userRepo repository.UserRepository, blobs BlobStore, log *logger.Logger) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		blobs:       blobs,
		log:         log,
		inFlight:    make(map[string]struct{}),
	}
}

func (s *MessageService) SetNotifier(n MessageNotifier) {
	s.notifier = n
}

// SendText submits a text message. Blank bodies are rejected before any
// store access, and concurrent duplicate sends on the same chat are
// rejected by the single-flight guard.
func (s *MessageService) SendText(ctx context.Context, senderID uuid.UUID, chatID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	release, err := s.acquire(chatID)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.send(ctx, senderID, chatID, func(msg *domain.Message) {
		msg.Content = content
		msg.Type = domain.MessageTypeText
	})
}

// SendFile validates, uploads and submits a file message. The upload
// completes before any message record is created, so an upload failure
// never leaves a partial message behind.
func (s *MessageService) SendFile(ctx context.Context, senderID uuid.UUID, chatID string, file Attachment) (*domain.Message, error) {
	if err := ValidateAttachment(file.Size, file.ContentType); err != nil {
		return nil, err
	}

	release, err := s.acquire(chatID)
	if err != nil {
		return nil, err
	}
	defer release()

	key := attachmentKey(chatID, file.Name)
	if err := s.blobs.Upload(ctx, key, file.Data, file.Size, file.ContentType); err != nil {
		s.log.Error("attachment upload failed", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	fileURL, err := s.blobs.DownloadURL(ctx, key)
	if err != nil {
		s.log.Error("attachment url failed", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	msgType := domain.MessageTypeFile
	content := "📎 " + file.Name
	if strings.HasPrefix(file.ContentType, "image/") {
		msgType = domain.MessageTypeImage
		content = "📷 Image"
	}

	return s.send(ctx, senderID, chatID, func(msg *domain.Message) {
		msg.Content = content
		msg.Type = msgType
		msg.FileURL = fileURL
		msg.FileName = file.Name
		msg.FileSize = file.Size
		msg.FileType = file.ContentType
	})
}

// ListRecent returns the most recent messages of a chat the user
// participates in, oldest first.
func (s *MessageService) ListRecent(ctx context.Context, userID uuid.UUID, chatID string, limit int) ([]domain.Message, error) {
	if err := s.checkParticipant(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	messages, err := s.messageRepo.ListRecent(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// MarkRead flips the read flag on the most recent unread messages not
// authored by readerID. It runs once per invocation (one pass over the
// last 50 messages) and is idempotent; messages arriving afterwards stay
// unread until the conversation is opened again.
func (s *MessageService) MarkRead(ctx context.Context, readerID uuid.UUID, chatID string) error {
	if readerID == uuid.Nil {
		return ErrNotAuthenticated
	}
	if err := s.checkParticipant(ctx, readerID, chatID); err != nil {
		return err
	}
	if err := s.messageRepo.MarkRead(ctx, chatID, readerID, ReadScanLimit); err != nil {
		// Degrade: an unread flag that stays set is a display artifact,
		// not a correctness problem.
		s.log.Error("mark read failed", "chat_id", chatID, "error", err)
		return nil
	}
	if s.notifier != nil {
		s.notifier.NotifyMessagesChanged(chatID)
	}
	return nil
}

// ValidateAttachment checks the size cap and MIME allowlist.
func ValidateAttachment(size int64, contentType string) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	if _, ok := allowedFileTypes[contentType]; !ok {
		return ErrFileType
	}
	return nil
}

// send creates the message record, then best-effort updates the chat
// summary. The two writes are deliberately not atomic: a summary that
// lags behind is an acceptable display artifact.
func (s *MessageService) send(ctx context.Context, senderID uuid.UUID, chatID string, fill func(*domain.Message)) (*domain.Message, error) {
	if senderID == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	if err := s.checkParticipant(ctx, senderID, chatID); err != nil {
		return nil, err
	}

	sender := domain.UnknownProfile(senderID)
	if u, err := s.userRepo.GetByID(ctx, senderID); err == nil && u != nil {
		sender = u.Profile()
	}

	msg := &domain.Message{
		ID:              uuid.New(),
		ChatID:          chatID,
		SenderID:        senderID,
		SenderName:      sender.DisplayName,
		SenderAvatarURL: sender.AvatarURL,
		Read:            false,
		CreatedAt:       time.Now(),
	}
	fill(msg)

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if err := s.chatRepo.UpdateSummary(ctx, chatID, msg.Content, time.Now()); err != nil {
		s.log.Error("chat summary update failed", "chat_id", chatID, "error", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyMessagesChanged(chatID)
	}
	return msg, nil
}

func (s *MessageService) acquire(chatID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[chatID]; busy {
		return nil, ErrSendInFlight
	}
	s.inFlight[chatID] = struct{}{}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.inFlight, chatID)
	}, nil
}

func (s *MessageService) checkParticipant(ctx context.Context, userID uuid.UUID, chatID string) error {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}
	if chat.Participant1ID != userID && chat.Participant2ID != userID {
		return ErrNotParticipant
	}
	return nil
}

// attachmentKey namespaces uploads by chat and prefixes the name with a
// timestamp to avoid collisions between same-named files.
func attachmentKey(chatID, name string) string {
	return path.Join("chat-files", chatID, fmt.Sprintf("%d_%s", time.Now().UnixMilli(), path.Base(name)))
}
