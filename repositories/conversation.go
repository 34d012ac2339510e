package repositories

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/errors"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
)

const conversationsKey = "chat-chats"

type IConversationRepository interface {
	Load() []domain.Conversation
	Save(conversations []domain.Conversation) error
}

// ConversationRepository persists the conversation list as a single JSON snapshot.
type ConversationRepository struct {
	store contract.KeyValueStore
	log   *slog.Logger
}

func NewConversationRepository(store contract.KeyValueStore, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{store: store, log: log}
}

// Load returns the last saved snapshot. A missing or malformed snapshot reads as an empty list.
func (r *ConversationRepository) Load() []domain.Conversation {
	raw, err := r.store.Get(conversationsKey)
	if err != nil {
		if !stdErrors.Is(err, errors.ErrNotFound) {
			r.log.Warn("Failed to read saved conversations", "error", err)
		}
		return nil
	}
	var conversations []domain.Conversation
	if err := json.Unmarshal(raw, &conversations); err != nil {
		r.log.Warn("Failed to parse saved conversations",
			"error", fmt.Errorf("%w: %s: %v", errors.ErrMalformedState, conversationsKey, err))
		return nil
	}
	return conversations
}

// Save stores the snapshot, an empty list never overwrites a previous one.
func (r *ConversationRepository) Save(conversations []domain.Conversation) error {
	if len(conversations) == 0 {
		return nil
	}
	raw, err := json.Marshal(conversations)
	if err != nil {
		return fmt.Errorf("marshal conversations: %w", err)
	}
	return r.store.Set(conversationsKey, raw)
}
