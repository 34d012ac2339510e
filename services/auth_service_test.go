package services

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	secret := "a_test_secret_long_enough_for_hs256"
	svc := NewAuthService(secret)

	t.Run("should open a session for a valid token", func(t *testing.T) {
		req := require.New(t)
		token, err := auth.GenerateToken(alice.User, []byte(secret), time.Hour)
		req.NoError(err)

		session, err := svc.Login(Token(token))

		req.NoError(err)
		req.Equal("alice-id", session.User.ID)
		req.Equal("Alice", session.DisplayName())
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)
		token, err := auth.GenerateToken(alice.User, []byte("another secret"), time.Hour)
		req.NoError(err)

		_, err = svc.Login(Token(token))

		req.ErrorIs(err, errors.ErrInvalidToken)
	})

	t.Run("should reject a session with an invalid email", func(t *testing.T) {
		req := require.New(t)
		user := domain.User{ID: "u-1", Email: "not-an-email"}
		token, err := auth.GenerateToken(user, []byte(secret), time.Hour)
		req.NoError(err)

		_, err = svc.Login(Token(token))

		req.ErrorIs(err, errors.ErrInvalidSession)
	})
}
