package sync

import (
	"context"
	stdsync "sync"

	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/logger"
)

// StreamLimit bounds the live message view to the most recent messages.
const StreamLimit = 100

// MessageSource is the one-shot message read the stream needs from the
// store: up to limit most recent messages in ascending timestamp order.
type MessageSource interface {
	ListRecent(ctx context.Context, chatID string, limit int) ([]domain.Message, error)
}

// Stream maintains the live, bounded, time-ascending message view of the
// open conversation. Every change notification replaces the whole
// snapshot with a fresh store read; there is no incremental patching.
// At most one live subscription is open at a time: opening a new chat
// (or closing) always cancels the previous subscription first.
//
// Read failures on a notification are logged and leave the previous
// snapshot in place; the stream does not retry on its own.
type Stream struct {
	source MessageSource
	feed   Feed
	log    *logger.Logger

	mu       stdsync.Mutex
	chatID   string
	open     bool
	sub      *Subscription
	snapshot []domain.Message
	onChange func([]domain.Message)
}

// NewStream creates a stream. onChange receives every snapshot
// replacement, including the empty snapshot emitted on Close.
func NewStream(source MessageSource, feed Feed, log *logger.Logger, onChange func([]domain.Message)) *Stream {
	if onChange == nil {
		onChange = func([]domain.Message) {}
	}
	return &Stream{source: source, feed: feed, log: log, onChange: onChange}
}

// Follow binds the stream to a selector: selecting a chat opens it here,
// clearing closes it. Cancel the returned subscription to unbind.
func (st *Stream) Follow(ctx context.Context, sel *Selector) *Subscription {
	return sel.OnChange(func(chatID string, selected bool) {
		if selected {
			st.Open(ctx, chatID)
		} else {
			st.Close()
		}
	})
}

// Open switches the stream to chatID. The previous subscription, if any,
// is canceled before the new one is registered.
func (st *Stream) Open(ctx context.Context, chatID string) {
	st.mu.Lock()
	if st.sub != nil {
		st.sub.Cancel()
		st.sub = nil
	}
	st.chatID = chatID
	st.open = true
	st.sub = st.feed.SubscribeMessages(chatID, func() {
		st.reload(ctx, chatID)
	})
	st.mu.Unlock()

	st.reload(ctx, chatID)
}

// Close cancels the live subscription and empties the view.
func (st *Stream) Close() {
	st.mu.Lock()
	if st.sub != nil {
		st.sub.Cancel()
		st.sub = nil
	}
	st.chatID = ""
	st.open = false
	st.snapshot = nil
	fn := st.onChange
	st.mu.Unlock()

	fn(nil)
}

// Snapshot returns the current view.
func (st *Stream) Snapshot() []domain.Message {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]domain.Message, len(st.snapshot))
	copy(out, st.snapshot)
	return out
}

func (st *Stream) reload(ctx context.Context, chatID string) {
	messages, err := st.source.ListRecent(ctx, chatID, StreamLimit)
	if err != nil {
		st.log.Error("message stream reload failed", "chat_id", chatID, "error", err)
		return
	}

	st.mu.Lock()
	// A stale notification for a chat that is no longer open must not
	// leak into the current view.
	if !st.open || st.chatID != chatID {
		st.mu.Unlock()
		return
	}
	st.snapshot = messages
	fn := st.onChange
	st.mu.Unlock()

	fn(messages)
}
