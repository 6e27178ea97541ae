package sync

import (
	stdsync "sync"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
)

// Feed delivers change notifications for live subscriptions. Message
// notifications carry no payload: subscribers re-read the store and
// rebuild their snapshot, so repeated or out-of-order delivery is
// harmless. Profile notifications carry the fresh profile.
type Feed interface {
	SubscribeMessages(chatID string, fn func()) *Subscription
	SubscribeProfile(userID uuid.UUID, fn func(domain.Profile)) *Subscription
}

// Broker is an in-process Feed. Services publish after each store write;
// callbacks run synchronously on the publishing goroutine, so subscribers
// guard their own state.
type Broker struct {
	mu   stdsync.RWMutex
	next int
	subs map[string]map[int]func(any)
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]func(any))}
}

var _ Feed = (*Broker)(nil)

func (b *Broker) SubscribeMessages(chatID string, fn func()) *Subscription {
	return b.subscribe("messages:"+chatID, func(any) { fn() })
}

func (b *Broker) SubscribeProfile(userID uuid.UUID, fn func(domain.Profile)) *Subscription {
	return b.subscribe("profile:"+userID.String(), func(v any) {
		if p, ok := v.(domain.Profile); ok {
			fn(p)
		}
	})
}

// NotifyMessagesChanged announces that a chat's message set changed.
func (b *Broker) NotifyMessagesChanged(chatID string) {
	b.publish("messages:"+chatID, nil)
}

// NotifyProfileChanged announces a profile update.
func (b *Broker) NotifyProfileChanged(p domain.Profile) {
	b.publish("profile:"+p.ID.String(), p)
}

func (b *Broker) subscribe(topic string, fn func(any)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]func(any))
	}
	b.subs[topic][id] = fn

	return NewSubscription(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
	})
}

func (b *Broker) publish(topic string, payload any) {
	b.mu.RLock()
	fns := make([]func(any), 0, len(b.subs[topic]))
	for _, fn := range b.subs[topic] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(payload)
	}
}
