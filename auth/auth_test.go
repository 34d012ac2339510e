package auth

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var secret = []byte("a_test_secret_long_enough_for_hs256")

func TestSessionFromToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	avatar := "https://example.com/alice.png"
	user := domain.User{
		ID:    "user-1",
		Email: "alice@example.com",
		Metadata: domain.UserMetadata{
			DisplayName: "Alice",
			AvatarRef:   &avatar,
		},
	}

	token, err := GenerateToken(user, secret, time.Hour)
	req.NoError(err)

	session, err := SessionFromToken(token, secret)
	req.NoError(err)
	req.Equal("user-1", session.User.ID)
	req.Equal("Alice", session.DisplayName())
	req.Equal(avatar, *session.AvatarRef())
}

func TestSessionFromToken_DisplayNameFallsBackToEmail(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken(domain.User{ID: "user-2", Email: "bob@example.com"}, secret, time.Hour)
	req.NoError(err)

	session, err := SessionFromToken(token, secret)
	req.NoError(err)
	req.Equal("bob", session.DisplayName())
	req.Nil(session.AvatarRef())
}

func TestSessionFromToken_Rejections(t *testing.T) {
	valid, err := GenerateToken(domain.User{ID: "user-1"}, secret, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken(domain.User{ID: "user-1"}, secret, -time.Minute)
	require.NoError(t, err)
	noSubject, err := GenerateToken(domain.User{}, secret, time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{"Wrong secret", valid, []byte("another_secret")},
		{"Expired", expired, secret},
		{"Missing subject", noSubject, secret},
		{"Unsigned", none, secret},
		{"Garbage", "not-a-token", secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SessionFromToken(tt.token, tt.secret)
			require.ErrorIs(t, err, errors.ErrInvalidToken)
		})
	}
}

func TestValidateSession(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateSession(domain.Session{User: domain.User{ID: "user-1", Email: "a@b.io"}}))
	req.ErrorIs(ValidateSession(domain.Session{}), errors.ErrInvalidSession)
	req.ErrorIs(ValidateSession(domain.Session{User: domain.User{ID: "user-1", Email: "nope"}}), errors.ErrInvalidSession)
}
