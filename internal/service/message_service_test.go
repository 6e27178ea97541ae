package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/logger"
)

func newTestMessageService(t *testing.T) (*MessageService, *fakeMessageRepo, *fakeChatRepo, *fakeBlobStore, *recordingNotifier, uuid.UUID, uuid.UUID, string) {
	t.Helper()

	alice := &domain.User{ID: uuid.New(), Email: "alice@example.com", DisplayName: "Alice", AvatarURL: "https://avatars.test/alice.png"}
	bob := &domain.User{ID: uuid.New(), Email: "bob@example.com", DisplayName: "Bob"}

	chatID := domain.ChatID(alice.ID, bob.ID)
	chats := newFakeChatRepo(&domain.Chat{ID: chatID, Participant1ID: alice.ID, Participant2ID: bob.ID, CreatedAt: time.Now()})
	messages := &fakeMessageRepo{}
	blobs := newFakeBlobStore()
	notifier := &recordingNotifier{}

	svc := NewMessageService(messages, chats, newFakeUserRepo(alice, bob), blobs, logger.New(0))
	svc.SetNotifier(notifier)
	return svc, messages, chats, blobs, notifier, alice.ID, bob.ID, chatID
}

func TestMessageService_SendText(t *testing.T) {
	svc, messages, chats, _, notifier, alice, _, chatID := newTestMessageService(t)

	before := time.Now()
	msg, err := svc.SendText(context.Background(), alice, chatID, "  hello bob  ")
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, "hello bob", msg.Content)
	assert.Equal(t, domain.MessageTypeText, msg.Type)
	assert.Equal(t, "Alice", msg.SenderName)
	assert.False(t, msg.Read)
	assert.Equal(t, 1, messages.created)

	chat, err := chats.GetByID(context.Background(), chatID)
	require.NoError(t, err)
	assert.Equal(t, "hello bob", chat.LastMessage)
	require.NotNil(t, chat.LastMessageTime)
	assert.False(t, chat.LastMessageTime.Before(before))

	assert.Equal(t, []string{chatID}, notifier.chats)
}

func TestMessageService_SendTextBlank(t *testing.T) {
	svc, messages, _, _, notifier, alice, _, chatID := newTestMessageService(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendText(context.Background(), alice, chatID, content)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Equal(t, 0, messages.created)
	assert.Empty(t, notifier.chats)
}

func TestMessageService_SendRequiresParticipant(t *testing.T) {
	svc, messages, _, _, _, alice, _, chatID := newTestMessageService(t)

	_, err := svc.SendText(context.Background(), uuid.New(), chatID, "hi")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = svc.SendText(context.Background(), alice, "nope_nope", "hi")
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = svc.SendText(context.Background(), uuid.Nil, chatID, "hi")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Equal(t, 0, messages.created)
}

func TestMessageService_SendSingleFlight(t *testing.T) {
	svc, messages, _, _, _, alice, _, chatID := newTestMessageService(t)

	// A file send blocked mid-upload holds the chat's single-flight slot.
	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		_, err := svc.SendFile(context.Background(), alice, chatID, Attachment{
			Name:        "photo.jpg",
			Size:        4,
			ContentType: "image/jpeg",
			Data:        &blockingReader{release: release, data: strings.NewReader("data")},
		})
		assert.NoError(t, err)
	}()

	<-started
	// Wait until the slot is actually held.
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		_, busy := svc.inFlight[chatID]
		return busy
	}, time.Second, time.Millisecond)

	_, err := svc.SendText(context.Background(), alice, chatID, "second")
	assert.ErrorIs(t, err, ErrSendInFlight)

	close(release)
	wg.Wait()

	// Slot released: the retry goes through.
	_, err = svc.SendText(context.Background(), alice, chatID, "second")
	require.NoError(t, err)
	assert.Equal(t, 2, messages.created)
}

func TestMessageService_SendFile(t *testing.T) {
	svc, messages, _, blobs, _, alice, _, chatID := newTestMessageService(t)

	msg, err := svc.SendFile(context.Background(), alice, chatID, Attachment{
		Name:        "vacation.png",
		Size:        9,
		ContentType: "image/png",
		Data:        strings.NewReader("pngpixels"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MessageTypeImage, msg.Type)
	assert.Equal(t, "📷 Image", msg.Content)
	assert.Equal(t, "vacation.png", msg.FileName)
	assert.Contains(t, msg.FileURL, "chat-files/"+chatID+"/")
	assert.Len(t, blobs.uploads, 1)

	doc, err := svc.SendFile(context.Background(), alice, chatID, Attachment{
		Name:        "notes.pdf",
		Size:        5,
		ContentType: "application/pdf",
		Data:        strings.NewReader("%PDF-"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeFile, doc.Type)
	assert.Equal(t, "📎 notes.pdf", doc.Content)

	assert.Equal(t, 2, messages.created)
}

func TestMessageService_SendFileUploadFailure(t *testing.T) {
	svc, messages, _, blobs, notifier, alice, _, chatID := newTestMessageService(t)
	blobs.failPut = true

	_, err := svc.SendFile(context.Background(), alice, chatID, Attachment{
		Name:        "photo.jpg",
		Size:        4,
		ContentType: "image/jpeg",
		Data:        strings.NewReader("data"),
	})
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Equal(t, 0, messages.created, "a failed upload must not leave a message behind")
	assert.Empty(t, notifier.chats)
}

func TestValidateAttachment(t *testing.T) {
	tests := []struct {
		name        string
		size        int64
		contentType string
		wantErr     error
	}{
		{"small jpeg", 1024, "image/jpeg", nil},
		{"exactly at cap", MaxFileSize, "image/png", nil},
		{"over cap", 12 * 1024 * 1024, "image/jpeg", ErrFileTooLarge},
		{"zip archive", 1024, "application/zip", ErrFileType},
		{"executable", 1024, "application/x-msdownload", ErrFileType},
		{"pdf", 2048, "application/pdf", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAttachment(tt.size, tt.contentType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessageService_ListRecent(t *testing.T) {
	svc, _, _, _, _, alice, bob, chatID := newTestMessageService(t)

	for _, body := range []string{"one", "two", "three"} {
		_, err := svc.SendText(context.Background(), alice, chatID, body)
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	msgs, err := svc.ListRecent(context.Background(), bob, chatID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Content)
	assert.Equal(t, "three", msgs[1].Content)

	_, err = svc.ListRecent(context.Background(), uuid.New(), chatID, 10)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestMessageService_MarkRead(t *testing.T) {
	svc, messages, _, _, notifier, alice, bob, chatID := newTestMessageService(t)

	_, err := svc.SendText(context.Background(), alice, chatID, "for bob")
	require.NoError(t, err)
	_, err = svc.SendText(context.Background(), bob, chatID, "for alice")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), bob, chatID))

	for _, m := range messages.byChat(chatID) {
		if m.SenderID == alice {
			assert.True(t, m.Read, "incoming message should be marked read")
		} else {
			assert.False(t, m.Read, "own message must stay untouched")
		}
	}

	// Idempotent: a second pass changes nothing and still notifies.
	require.NoError(t, svc.MarkRead(context.Background(), bob, chatID))
	assert.Equal(t, []string{chatID, chatID, chatID, chatID}, notifier.chats)

	assert.ErrorIs(t, svc.MarkRead(context.Background(), uuid.New(), chatID), ErrNotParticipant)
	assert.ErrorIs(t, svc.MarkRead(context.Background(), uuid.Nil, chatID), ErrNotAuthenticated)
}
