package sync

import (
	"context"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
)

// ProfileSource is the one-shot profile read the resolver needs from the
// store. A nil user with nil error means the profile does not exist.
type ProfileSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Resolver maps participant IDs to display profiles, with "Unknown" and a
// placeholder avatar when the profile is absent or unreadable.
type Resolver struct {
	source ProfileSource
	feed   Feed
}

func NewResolver(source ProfileSource, feed Feed) *Resolver {
	return &Resolver{source: source, feed: feed}
}

// Resolve returns the current display profile for id. Absence and read
// failures both degrade to the placeholder profile.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) domain.Profile {
	u, err := r.source.GetByID(ctx, id)
	if err != nil || u == nil {
		return domain.UnknownProfile(id)
	}
	return u.Profile()
}

// Watch delivers the current profile immediately, then every subsequent
// update, until the returned subscription is canceled.
func (r *Resolver) Watch(ctx context.Context, id uuid.UUID, fn func(domain.Profile)) *Subscription {
	sub := r.feed.SubscribeProfile(id, fn)
	fn(r.Resolve(ctx, id))
	return sub
}
