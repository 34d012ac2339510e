package services

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"fmt"
)

type IAuthService interface {
	Login(token Token) (domain.Session, error)
}

// Token is an access token issued by the identity provider.
type Token string

func (t Token) String() string {
	return string(t)
}

type AuthService struct {
	secret []byte
}

func NewAuthService(secret string) IAuthService {
	return &AuthService{secret: []byte(secret)}
}

// Login turns an access token into a validated session.
func (s *AuthService) Login(token Token) (domain.Session, error) {
	session, err := auth.SessionFromToken(token.String(), s.secret)
	if err != nil {
		return domain.Session{}, err
	}
	if err := auth.ValidateSession(session); err != nil {
		return domain.Session{}, fmt.Errorf("login: %w", err)
	}
	return session, nil
}
