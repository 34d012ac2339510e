package auth

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "chat-sync"

// UserMetadata mirrors the profile block of the identity provider.
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// SessionClaims is the shape of an access token: the user id lives in the subject.
type SessionClaims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 access token for the given user.
func GenerateToken(user domain.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		Email: user.Email,
		UserMetadata: UserMetadata{
			FullName: user.Metadata.DisplayName,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	if user.Metadata.AvatarRef != nil {
		claims.UserMetadata.AvatarURL = *user.Metadata.AvatarRef
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// SessionFromToken verifies the signature and expiration of an access token
// and turns its claims into a session.
func SessionFromToken(tokenString string, secret []byte) (domain.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", errors.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Session{}, errors.ErrInvalidToken
	}

	session := domain.Session{User: domain.User{
		ID:    claims.Subject,
		Email: claims.Email,
		Metadata: domain.UserMetadata{
			DisplayName: claims.UserMetadata.FullName,
		},
	}}
	if claims.UserMetadata.AvatarURL != "" {
		avatar := claims.UserMetadata.AvatarURL
		session.User.Metadata.AvatarRef = &avatar
	}
	return session, nil
}
