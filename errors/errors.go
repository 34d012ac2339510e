package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Configuration errors are fatal for the whole session.
	ErrMissingCredentials = fmt.Errorf("transport credentials are missing")
	ErrInvalidCensorChar  = fmt.Errorf("censor replacement must be a single character")

	// Auth errors are surfaced to the caller of the login intent.
	ErrInvalidToken   = fmt.Errorf("invalid access token")
	ErrInvalidSession = fmt.Errorf("invalid session")

	ErrEmptyMessage  = fmt.Errorf("message content is empty")
	ErrSendFailed    = fmt.Errorf("message could not be sent")
	ErrNotSubscribed = fmt.Errorf("channel is not subscribed")
	ErrNotRetryable  = fmt.Errorf("message is not in failed status")

	ErrMessageNotFound   = fmt.Errorf("message not found")
	ErrDuplicateMessage  = fmt.Errorf("message id already exists in conversation")
	ErrInvalidTransition = fmt.Errorf("invalid message status transition")

	ErrNotFound       = fmt.Errorf("key not found")
	ErrMalformedState = fmt.Errorf("malformed persisted state")
	ErrInvalidPayload = fmt.Errorf("invalid payload")
)
