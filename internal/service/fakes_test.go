package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errors.New("no such user")
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SearchByNameRange(_ context.Context, lo, hi string, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.DisplayNameLower >= lo && u.DisplayNameLower < hi {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayNameLower < out[j].DisplayNameLower })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeChatRepo struct {
	mu      sync.Mutex
	chats   map[string]*domain.Chat
	summary map[string]string
}

func newFakeChatRepo(chats ...*domain.Chat) *fakeChatRepo {
	r := &fakeChatRepo{chats: map[string]*domain.Chat{}, summary: map[string]string{}}
	for _, c := range chats {
		r.chats[c.ID] = c
	}
	return r
}

func (r *fakeChatRepo) Create(_ context.Context, chat *domain.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.ID]; ok {
		return errors.New("duplicate chat id")
	}
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) GetByID(_ context.Context, id string) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chats[id], nil
}

func (r *fakeChatRepo) GetByParticipants(_ context.Context, a, b uuid.UUID) (*domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.chats {
		if (c.Participant1ID == a && c.Participant2ID == b) || (c.Participant1ID == b && c.Participant2ID == a) {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) ListByParticipant(_ context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Chat
	for _, c := range r.chats {
		if c.Participant1ID == userID || c.Participant2ID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) UpdateSummary(_ context.Context, chatID, lastMessage string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.chats[chatID]
	if !ok {
		return errors.New("no such chat")
	}
	c.LastMessage = lastMessage
	c.LastMessageTime = &at
	r.summary[chatID] = lastMessage
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*domain.Message
	created  int
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *msg
	r.messages = append(r.messages, &copied)
	r.created++
	return nil
}

func (r *fakeMessageRepo) ListRecent(_ context.Context, chatID string, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, chatID string, readerID uuid.UUID, scan int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var inChat []*domain.Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			inChat = append(inChat, m)
		}
	}
	sort.Slice(inChat, func(i, j int) bool { return inChat[i].CreatedAt.After(inChat[j].CreatedAt) })
	if len(inChat) > scan {
		inChat = inChat[:scan]
	}
	for _, m := range inChat {
		if m.SenderID != readerID && !m.Read {
			m.Read = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) byChat(chatID string) []domain.Message {
	out, _ := r.ListRecent(context.Background(), chatID, 1<<30)
	return out
}

type fakeBlobStore struct {
	mu       sync.Mutex
	uploads  map[string][]byte
	failPut  bool
	lastType string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: map[string][]byte{}}
}

func (b *fakeBlobStore) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failPut {
		return errors.New("blob store unavailable")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	b.uploads[key] = data
	b.lastType = contentType
	return nil
}

func (b *fakeBlobStore) DownloadURL(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.uploads[key]; !ok {
		return "", errors.New("no such object")
	}
	return "https://blobs.test/" + key, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	chats    []string
	profiles []domain.Profile
}

func (n *recordingNotifier) NotifyMessagesChanged(chatID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.chats = append(n.chats, chatID)
}

func (n *recordingNotifier) NotifyProfileChanged(p domain.Profile) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.profiles = append(n.profiles, p)
}

// blockingReader hands out its payload only after release is closed,
// keeping an upload (and its single-flight slot) in flight.
type blockingReader struct {
	release chan struct{}
	data    *strings.Reader
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.release
	return r.data.Read(p)
}
