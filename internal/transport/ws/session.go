package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/logger"
	"github.com/mpavlovic/whisper/internal/service"
	"github.com/mpavlovic/whisper/internal/sync"
)

// Session wires one connected client to the sync core: a directory of the
// user's conversations, a selector for the open chat, and the message
// stream that follows it. Close releases every live subscription the
// session acquired, on every path.
type Session struct {
	userID    uuid.UUID
	directory *sync.Directory
	selector  *sync.Selector
	stream    *sync.Stream
	follow    *sync.Subscription
	messages  *service.MessageService

	ctx    context.Context
	cancel context.CancelFunc
	client *Client
}

func NewSession(userID uuid.UUID, client *Client, chats sync.ChatSource, messageSource sync.MessageSource, resolver *sync.Resolver, feed sync.Feed, messages *service.MessageService, lg *logger.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		userID:   userID,
		messages: messages,
		ctx:      ctx,
		cancel:   cancel,
		client:   client,
	}

	s.directory = sync.NewDirectory(chats, resolver, lg, userID, s.pushDirectory)
	s.selector = sync.NewSelector()
	s.stream = sync.NewStream(messageSource, feed, lg, s.pushMessages)
	s.follow = s.stream.Follow(ctx, s.selector)

	return s
}

// Start loads the initial directory snapshot.
func (s *Session) Start() {
	s.directory.Open(s.ctx)
}

// Close releases the stream, its selector binding and all directory
// watches. Safe to call more than once.
func (s *Session) Close() {
	s.selector.Clear()
	s.follow.Cancel()
	s.directory.Close()
	s.cancel()
}

// HandleEvent routes one client event.
func (s *Session) HandleEvent(event *Event) {
	switch event.Type {
	case EventTypeChatSelect:
		var p ChatSelectPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.ChatID == "" {
			s.client.sendError("INVALID_PAYLOAD", "chat.select requires a chat_id")
			return
		}
		s.selector.Select(p.ChatID)
		// Opening a conversation is the read-receipt trigger: one pass
		// over the recent messages, nothing continuous.
		if err := s.messages.MarkRead(s.ctx, s.userID, p.ChatID); err != nil {
			log.Printf("ws: mark read for %s: %v", s.userID, err)
		}

	case EventTypeChatDeselect:
		s.selector.Clear()

	case EventTypeDirectoryRefresh:
		s.directory.Open(s.ctx)

	case EventTypePing:
		s.client.sendPong()

	default:
		s.client.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (s *Session) pushDirectory(entries []sync.Entry) {
	if entries == nil {
		entries = []sync.Entry{}
	}
	s.push(EventTypeDirectorySnapshot, DirectoryPayload{Chats: entries})
}

func (s *Session) pushMessages(messages []domain.Message) {
	chatID, _ := s.selector.Current()
	if messages == nil {
		messages = []domain.Message{}
	}
	s.push(EventTypeMessagesSnapshot, MessagesPayload{ChatID: chatID, Messages: messages})
}

func (s *Session) push(eventType string, payload any) {
	evt, err := NewEvent(eventType, payload)
	if err != nil {
		log.Printf("ws: marshal %s: %v", eventType, err)
		return
	}
	s.client.Send(evt)
}
