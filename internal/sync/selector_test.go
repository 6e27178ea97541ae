package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector_BroadcastsSynchronously(t *testing.T) {
	s := NewSelector()

	var seen []string
	sub := s.OnChange(func(chatID string, selected bool) {
		if selected {
			seen = append(seen, chatID)
		} else {
			seen = append(seen, "<none>")
		}
	})
	defer sub.Cancel()

	s.Select("a")
	s.Select("b")
	s.Clear()

	assert.Equal(t, []string{"a", "b", "<none>"}, seen)

	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSelector_ObserverRemoval(t *testing.T) {
	s := NewSelector()

	var calls int
	sub := s.OnChange(func(string, bool) { calls++ })

	s.Select("a")
	sub.Cancel()
	s.Select("b")

	assert.Equal(t, 1, calls)
}

func TestSelector_Current(t *testing.T) {
	s := NewSelector()

	_, ok := s.Current()
	assert.False(t, ok, "nothing selected initially")

	s.Select("chat-9")
	id, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "chat-9", id)
}
