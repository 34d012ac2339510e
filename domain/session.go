package domain

import "strings"

// Session is the authenticated identity the sync core acts for.
// Acquiring or renewing it happens elsewhere.
type Session struct {
	User User `validate:"required"`
}

type User struct {
	ID       string `validate:"required"`
	Email    string `validate:"omitempty,email"`
	Metadata UserMetadata
}

type UserMetadata struct {
	DisplayName string
	AvatarRef   *string
}

// DisplayName falls back to the local part of the email.
func (s Session) DisplayName() string {
	if s.User.Metadata.DisplayName != "" {
		return s.User.Metadata.DisplayName
	}
	local, _, _ := strings.Cut(s.User.Email, "@")
	return local
}

func (s Session) AvatarRef() *string {
	return s.User.Metadata.AvatarRef
}
