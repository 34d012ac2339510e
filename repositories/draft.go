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

const draftKey = "chat-draft"

type IDraftRepository interface {
	Load() (domain.Draft, bool)
	Save(draft domain.Draft) error
	Delete() error
}

// DraftRepository holds the single draft slot of the session.
type DraftRepository struct {
	store contract.KeyValueStore
	log   *slog.Logger
}

func NewDraftRepository(store contract.KeyValueStore, log *slog.Logger) *DraftRepository {
	return &DraftRepository{store: store, log: log}
}

// Load reports false when the slot is empty or holds something unreadable.
func (r *DraftRepository) Load() (domain.Draft, bool) {
	raw, err := r.store.Get(draftKey)
	if err != nil {
		if !stdErrors.Is(err, errors.ErrNotFound) {
			r.log.Warn("Failed to read draft", "error", err)
		}
		return domain.Draft{}, false
	}
	var draft domain.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		r.log.Warn("Failed to parse draft",
			"error", fmt.Errorf("%w: %s: %v", errors.ErrMalformedState, draftKey, err))
		return domain.Draft{}, false
	}
	if draft.ConversationID == "" || draft.Text == "" {
		return domain.Draft{}, false
	}
	return draft, true
}

func (r *DraftRepository) Save(draft domain.Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.store.Set(draftKey, raw)
}

func (r *DraftRepository) Delete() error {
	return r.store.Delete(draftKey)
}
