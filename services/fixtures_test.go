package services

import (
	"chat-sync/domain"
	"fmt"
	"sync"
	"time"
)

var at = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

var alice = domain.Session{User: domain.User{
	ID:       "alice-id",
	Email:    "alice@example.com",
	Metadata: domain.UserMetadata{DisplayName: "Alice"},
}}

// sequence hands out predictable ids.
type sequence struct {
	mu sync.Mutex
	n  int
}

func (s *sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}
