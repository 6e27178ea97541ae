package ws

import (
	"encoding/json"
	"time"

	"github.com/mpavlovic/whisper/internal/domain"
	"github.com/mpavlovic/whisper/internal/sync"
)

// Event types - Client → Server
const (
	EventTypeChatSelect       = "chat.select"
	EventTypeChatDeselect     = "chat.deselect"
	EventTypeDirectoryRefresh = "directory.refresh"
	EventTypePing             = "ping"
)

// Event types - Server → Client
const (
	EventTypeDirectorySnapshot = "directory.snapshot"
	EventTypeMessagesSnapshot  = "messages.snapshot"
	EventTypePong              = "pong"
	EventTypeError             = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ChatSelectPayload struct {
	ChatID string `json:"chat_id"`
}

// --- Server → Client payloads ---

// DirectoryPayload carries the full conversation list; the client
// replaces its copy wholesale.
type DirectoryPayload struct {
	Chats []sync.Entry `json:"chats"`
}

// MessagesPayload carries the full message snapshot of the open chat. An
// empty ChatID means no chat is selected.
type MessagesPayload struct {
	ChatID   string           `json:"chat_id"`
	Messages []domain.Message `json:"messages"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
