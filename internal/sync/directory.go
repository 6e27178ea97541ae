package sync

import (
	"context"
	"sort"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/logger"
	"golang.org/x/sync/errgroup"
)

// ChatSource is the one-shot conversation read the directory needs.
type ChatSource interface {
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error)
}

// Entry is one conversation in the directory, annotated with the other
// participant's display profile and the denormalized last-message summary.
type Entry struct {
	ChatID          string     `json:"chat_id"`
	OtherUserID     uuid.UUID  `json:"other_user_id"`
	DisplayName     string     `json:"display_name"`
	AvatarURL       string     `json:"avatar_url"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
}

// Directory keeps a user's conversation list. The conversation set itself
// is a snapshot read taken at Open (refreshed only by calling Open
// again); the other participants' profiles are live, one watch per
// conversation. Merges are keyed by chat ID and idempotent, so repeated
// or out-of-order profile notifications never duplicate an entry.
type Directory struct {
	chats    ChatSource
	resolver *Resolver
	log      *logger.Logger

	mu       stdsync.Mutex
	userID   uuid.UUID
	entries  map[string]Entry
	watches  []*Subscription
	onChange func([]Entry)
}

// NewDirectory creates a directory for userID. onChange receives the full
// entry list after every merge.
func NewDirectory(chats ChatSource, resolver *Resolver, log *logger.Logger, userID uuid.UUID, onChange func([]Entry)) *Directory {
	if onChange == nil {
		onChange = func([]Entry) {}
	}
	return &Directory{
		chats:    chats,
		resolver: resolver,
		log:      log,
		userID:   userID,
		entries:  make(map[string]Entry),
		onChange: onChange,
	}
}

// Open (re)loads the conversation list and opens one profile watch per
// other participant. A fetch failure is logged and leaves an empty list;
// there is no automatic retry. Open is safe to call again: previous
// watches are released first.
func (d *Directory) Open(ctx context.Context) {
	d.Close()

	chats, err := d.chats.ListByParticipant(ctx, d.userID)
	if err != nil {
		d.log.Error("directory fetch failed", "user_id", d.userID, "error", err)
		d.onChange(nil)
		return
	}

	d.mu.Lock()
	for _, chat := range chats {
		entry := Entry{
			ChatID:          chat.ID,
			LastMessage:     chat.LastMessage,
			LastMessageTime: chat.LastMessageTime,
			DisplayName:     domain.UnknownDisplayName,
			AvatarURL:       domain.DefaultAvatarURL,
		}
		if other, ok := chat.OtherParticipant(d.userID); ok {
			entry.OtherUserID = other
		}
		d.entries[chat.ID] = entry
	}
	d.mu.Unlock()

	// Resolve initial profiles concurrently, then keep each one live.
	g, gctx := errgroup.WithContext(ctx)
	for _, chat := range chats {
		other, ok := chat.OtherParticipant(d.userID)
		if !ok {
			continue
		}
		chatID := chat.ID
		g.Go(func() error {
			sub := d.resolver.Watch(gctx, other, func(p domain.Profile) {
				d.merge(chatID, p)
			})
			d.mu.Lock()
			d.watches = append(d.watches, sub)
			d.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	d.emit()
}

// Close releases every profile watch and clears the list.
func (d *Directory) Close() {
	d.mu.Lock()
	watches := d.watches
	d.watches = nil
	d.entries = make(map[string]Entry)
	d.mu.Unlock()

	for _, sub := range watches {
		sub.Cancel()
	}
}

// Entries returns the current list, most recent summary first.
func (d *Directory) Entries() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sortedLocked()
}

// merge applies a profile update to the entry for chatID. Replace-by-key:
// an update for an already-merged chat overwrites its display fields and
// never appends a duplicate.
func (d *Directory) merge(chatID string, p domain.Profile) {
	d.mu.Lock()
	entry, ok := d.entries[chatID]
	if !ok {
		d.mu.Unlock()
		return
	}
	entry.DisplayName = p.DisplayName
	entry.AvatarURL = p.AvatarURL
	d.entries[chatID] = entry
	d.mu.Unlock()

	d.emit()
}

func (d *Directory) emit() {
	d.mu.Lock()
	out := d.sortedLocked()
	fn := d.onChange
	d.mu.Unlock()
	fn(out)
}

func (d *Directory) sortedLocked() []Entry {
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].LastMessageTime, out[j].LastMessageTime
		switch {
		case ti == nil && tj == nil:
			return out[i].ChatID < out[j].ChatID
		case ti == nil:
			return false
		case tj == nil:
			return true
		case ti.Equal(*tj):
			return out[i].ChatID < out[j].ChatID
		default:
			return ti.After(*tj)
		}
	})
	return out
}
