package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBroker_MessagesFanout(t *testing.T) {
	b := NewBroker()

	var got int
	sub := b.SubscribeMessages("chat-1", func() { got++ })

	b.NotifyMessagesChanged("chat-1")
	b.NotifyMessagesChanged("chat-2")
	assert.Equal(t, 1, got, "only the subscribed chat's notifications are delivered")

	sub.Cancel()
	b.NotifyMessagesChanged("chat-1")
	assert.Equal(t, 1, got, "no delivery after cancel")
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	b := NewBroker()

	var got int
	first := b.SubscribeMessages("chat-1", func() { got++ })
	second := b.SubscribeMessages("chat-1", func() { got++ })

	first.Cancel()
	first.Cancel()

	b.NotifyMessagesChanged("chat-1")
	assert.Equal(t, 1, got, "double cancel must not tear down other subscriptions")

	second.Cancel()
}

func TestBroker_ProfileCarriesPayload(t *testing.T) {
	b := NewBroker()
	userID := uuid.New()

	var got domain.Profile
	sub := b.SubscribeProfile(userID, func(p domain.Profile) { got = p })
	defer sub.Cancel()

	b.NotifyProfileChanged(domain.Profile{ID: userID, DisplayName: "Ana", AvatarURL: "a.png"})
	assert.Equal(t, "Ana", got.DisplayName)
	assert.Equal(t, "a.png", got.AvatarURL)

	b.NotifyProfileChanged(domain.Profile{ID: uuid.New(), DisplayName: "Other"})
	assert.Equal(t, "Ana", got.DisplayName, "updates for other users are not delivered")
}
