package cached

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpavlovic/whisper/internal/cache"
	"github.com/mpavlovic/whisper/internal/domain"
)

type memCache struct {
	data map[string]string
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.data[key] = value
	c.sets++
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func (c *memCache) Close() error { return nil }

type countingStore struct {
	user *domain.User
	gets int
}

func (s *countingStore) Create(context.Context, *domain.User) error { return nil }

func (s *countingStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.gets++
	if s.user != nil && s.user.ID == id {
		return s.user, nil
	}
	return nil, nil
}

func (s *countingStore) GetByEmail(context.Context, string) (*domain.User, error) { return nil, nil }

func (s *countingStore) UpdateProfile(_ context.Context, user *domain.User) error {
	s.user = user
	return nil
}

func (s *countingStore) SearchByNameRange(context.Context, string, string, int) ([]domain.User, error) {
	return nil, nil
}

func TestUserRepo_GetByIDReadThrough(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Email: "alice@example.com", DisplayName: "Alice"}
	store := &countingStore{user: u}
	c := newMemCache()
	repo := NewUserRepo(store, c)

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, 1, store.gets)

	// Second read is served from cache.
	got, err = repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, 1, store.gets)
}

func TestUserRepo_MissIsNotCached(t *testing.T) {
	store := &countingStore{}
	c := newMemCache()
	repo := NewUserRepo(store, c)

	id := uuid.New()
	got, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, c.sets)

	_, _ = repo.GetByID(context.Background(), id)
	assert.Equal(t, 2, store.gets)
}

func TestUserRepo_UpdateInvalidates(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Email: "alice@example.com", DisplayName: "Alice"}
	store := &countingStore{user: u}
	repo := NewUserRepo(store, newMemCache())

	_, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)

	updated := *u
	updated.DisplayName = "Alice B"
	require.NoError(t, repo.UpdateProfile(context.Background(), &updated))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", got.DisplayName)
}

func TestUserRepo_CorruptEntryFallsThrough(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Email: "alice@example.com", DisplayName: "Alice"}
	store := &countingStore{user: u}
	c := newMemCache()
	repo := NewUserRepo(store, c)

	c.data["user:"+u.ID.String()] = "{not json"

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, 1, store.gets)
}
