package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chat is a two-party conversation. The participant pair is immutable
// after creation. LastMessage and LastMessageTime are denormalized
// display hints, updated best-effort on every send.
type Chat struct {
	ID              string     `json:"chat_id"`
	Participant1ID  uuid.UUID  `json:"participant1_id"`
	Participant2ID  uuid.UUID  `json:"participant2_id"`
	LastMessage     string     `json:"last_message"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ChatID derives the deterministic conversation ID for a pair of users:
// both IDs sorted lexically and joined. Direct first contact always goes
// through here, so the same pair maps to the same chat.
func ChatID(a, b uuid.UUID) string {
	if a.String() > b.String() {
		a, b = b, a
	}
	return fmt.Sprintf("%s_%s", a, b)
}

// OtherParticipant returns the participant that is not userID. The second
// return is false for malformed data or self-chats where no distinct
// other participant exists.
func (c *Chat) OtherParticipant(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case c.Participant1ID:
		if c.Participant2ID == userID || c.Participant2ID == uuid.Nil {
			return uuid.Nil, false
		}
		return c.Participant2ID, true
	case c.Participant2ID:
		if c.Participant1ID == uuid.Nil {
			return uuid.Nil, false
		}
		return c.Participant1ID, true
	default:
		return uuid.Nil, false
	}
}
