package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Message is a single chat message. SenderName and SenderAvatarURL are a
// snapshot of the sender's profile at send time and are never updated.
type Message struct {
	ID        uuid.UUID `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	// Sender snapshot
	SenderName      string `json:"sender_name"`
	SenderAvatarURL string `json:"sender_avatar_url,omitempty"`
	// Attachment metadata, set for image and file messages.
	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	FileType string `json:"file_type,omitempty"`
}
