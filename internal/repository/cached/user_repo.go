// Package cached decorates repositories with a read-through cache.
package cached

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/cache"
	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/repository"
)

const userTTL = 5 * time.Minute

// UserRepo wraps a UserRepository with a per-ID cache. Profile lookups are
// the hottest read path (every directory entry and resolver watch), so only
// GetByID is cached; writes invalidate. Cached entries round-trip through
// the user's JSON form, so fields tagged "-" (password hash, lowercase
// projection) are absent on a hit — callers of GetByID only read display
// fields.
type UserRepo struct {
	repository.UserRepository
	cache cache.Cache
}

func NewUserRepo(inner repository.UserRepository, c cache.Cache) *UserRepo {
	return &UserRepo{UserRepository: inner, cache: c}
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := userKey(id)

	if raw, err := r.cache.Get(ctx, key); err == nil {
		var u domain.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			return &u, nil
		}
		// Unparsable entry: drop it and fall through to the store.
		_ = r.cache.Del(ctx, key)
	}

	u, err := r.UserRepository.GetByID(ctx, id)
	if err != nil || u == nil {
		return u, err
	}

	if raw, err := json.Marshal(u); err == nil {
		_ = r.cache.Set(ctx, key, string(raw), userTTL)
	}
	return u, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	if err := r.UserRepository.UpdateProfile(ctx, user); err != nil {
		return err
	}
	_ = r.cache.Del(ctx, userKey(user.ID))
	return nil
}

func userKey(id uuid.UUID) string {
	return "user:" + id.String()
}
