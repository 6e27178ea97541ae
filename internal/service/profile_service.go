package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/logger"
	"github.com/mpavlovic/whisper/internal/repository"
)

// Search modes for FindUsers.
const (
	SearchByName  = "name"
	SearchByEmail = "email"
	SearchByID    = "id"
)

const searchLimit = 20

// searchUpperBound closes a prefix range: every string with the given
// prefix sorts below prefix + a maximal trailing code point.
const searchUpperBound = "\uf8ff"

var ErrInvalidSearchMode = errors.New("invalid search mode")

// ProfileNotifier announces profile changes to live subscribers.
type ProfileNotifier interface {
	NotifyProfileChanged(p domain.Profile)
}

// ProfileService owns user profiles: reads, edits, avatar uploads and
// the user search behind "start a new conversation".
type ProfileService struct {
	userRepo repository.UserRepository
	blobs    BlobStore
	notifier ProfileNotifier
	log      *logger.Logger
}

func NewProfileService(userRepo repository.UserRepository, blobs BlobStore, log *logger.Logger) *ProfileService {
	return &ProfileService{userRepo: userRepo, blobs: blobs, log: log}
}

func (s *ProfileService) SetNotifier(n ProfileNotifier) {
	s.notifier = n
}

// Get returns the user's full record.
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Save updates display name, avatar and bio, keeping the lowercase
// display-name projection in step for prefix search.
func (s *ProfileService) Save(ctx context.Context, userID uuid.UUID, displayName, avatarURL, bio string) (*domain.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.DisplayName = strings.TrimSpace(displayName)
	u.DisplayNameLower = strings.ToLower(u.DisplayName)
	u.AvatarURL = avatarURL
	u.Bio = bio
	u.UpdatedAt = time.Now()

	if err := s.userRepo.UpdateProfile(ctx, u); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyProfileChanged(u.Profile())
	}
	return u, nil
}

// UploadAvatar stores the image and returns its URL. The object key is
// fixed per user, so re-uploading replaces the previous avatar.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uuid.UUID, data io.Reader, size int64, contentType string) (string, error) {
	if size > MaxFileSize {
		return "", ErrFileTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrFileType
	}

	key := fmt.Sprintf("profile-pictures/%s.jpg", userID)
	if err := s.blobs.Upload(ctx, key, data, size, contentType); err != nil {
		s.log.Error("avatar upload failed", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	url, err := s.blobs.DownloadURL(ctx, key)
	if err != nil {
		s.log.Error("avatar url failed", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return url, nil
}

// FindUsers searches users in one of three exclusive modes: name prefix
// (over the lowercase projection), exact email, exact ID. Queries shorter
// than two characters return empty without touching the store, which
// keeps per-keystroke search cheap.
func (s *ProfileService) FindUsers(ctx context.Context, mode, query string, excludeID uuid.UUID) ([]domain.Profile, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []domain.Profile{}, nil
	}

	var users []domain.User
	switch mode {
	case SearchByName:
		lo := strings.ToLower(query)
		found, err := s.userRepo.SearchByNameRange(ctx, lo, lo+searchUpperBound, searchLimit)
		if err != nil {
			return nil, err
		}
		users = found
	case SearchByEmail:
		u, err := s.userRepo.GetByEmail(ctx, query)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = []domain.User{*u}
		}
	case SearchByID:
		id, err := uuid.Parse(query)
		if err != nil {
			return []domain.Profile{}, nil
		}
		u, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			users = []domain.User{*u}
		}
	default:
		return nil, ErrInvalidSearchMode
	}

	profiles := make([]domain.Profile, 0, len(users))
	for i := range users {
		if users[i].ID == excludeID {
			continue
		}
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}
