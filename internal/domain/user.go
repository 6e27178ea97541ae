package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAvatarURL is shown for users without an avatar and for
// unresolvable participants.
const DefaultAvatarURL = "https://cdn-icons-png.flaticon.com/512/3135/3135715.png"

// UnknownDisplayName is the fallback for unresolvable participants.
const UnknownDisplayName = "Unknown"

type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"display_name"`
	DisplayNameLower string    `json:"-"`
	PasswordHash     string    `json:"-"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Profile is the display slice of a user shared with other participants.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
}

// Profile returns the user's display profile, with placeholder defaults
// for missing fields.
func (u *User) Profile() Profile {
	p := Profile{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
	if p.DisplayName == "" {
		p.DisplayName = UnknownDisplayName
	}
	if p.AvatarURL == "" {
		p.AvatarURL = DefaultAvatarURL
	}
	return p
}

// UnknownProfile is the profile used when a participant cannot be resolved.
func UnknownProfile(id uuid.UUID) Profile {
	return Profile{ID: id, DisplayName: UnknownDisplayName, AvatarURL: DefaultAvatarURL}
}
