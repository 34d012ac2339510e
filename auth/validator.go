package auth

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateSession checks the session is usable before any subscription.
func ValidateSession(session domain.Session) error {
	if err := validate.Struct(session); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidSession, err)
	}
	return nil
}

// ValidatePayload checks the struct tags of a decoded wire payload.
func ValidatePayload(payload any) error {
	if err := validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidPayload, err)
	}
	return nil
}
