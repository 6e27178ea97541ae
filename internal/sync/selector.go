package sync

import (
	"sort"
	stdsync "sync"
)

// Selector holds the single "currently open conversation" value. Changes
// are broadcast synchronously to observers in registration order, so by
// the time Select returns every observer has already torn down and
// rebuilt whatever state it derives from the selection.
type Selector struct {
	mu        stdsync.Mutex
	chatID    string
	selected  bool
	next      int
	observers map[int]func(chatID string, selected bool)
}

func NewSelector() *Selector {
	return &Selector{observers: make(map[int]func(string, bool))}
}

// Select makes chatID the open conversation.
func (s *Selector) Select(chatID string) {
	s.set(chatID, true)
}

// Clear deselects any open conversation.
func (s *Selector) Clear() {
	s.set("", false)
}

// Current returns the open conversation, if any.
func (s *Selector) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatID, s.selected
}

// OnChange registers an observer. It is not called with the current value;
// callers read Current first if they need it.
func (s *Selector) OnChange(fn func(chatID string, selected bool)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.observers[id] = fn

	return NewSubscription(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	})
}

func (s *Selector) set(chatID string, selected bool) {
	s.mu.Lock()
	s.chatID = chatID
	s.selected = selected
	fns := make([]func(string, bool), 0, len(s.observers))
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	// Map iteration order is random; deliver in registration order.
	sort.Ints(ids)
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(chatID, selected)
	}
}
