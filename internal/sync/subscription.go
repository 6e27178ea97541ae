// Package sync implements the real-time conversation view core: a
// selector gating one live message stream, a directory of conversations
// with live participant profiles, and the subscription handles tying
// their lifecycles together. It is written against narrow store and feed
// interfaces so any pub/sub-capable document store can back it.
package sync

import "sync"

// Subscription is an open registration on a live feed. Cancel releases it
// and is safe to call more than once; only the first call has effect.
// Every owner must cancel on every exit path, otherwise the registered
// callback keeps firing for a view that no longer exists.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// NewSubscription wraps a cancel function in a cancel-once handle.
func NewSubscription(cancel func()) *Subscription {
	return &Subscription{cancel: cancel}
}

// Cancel releases the subscription.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.once.Do(s.cancel)
}
