package repositories

import (
	"chat-sync/contract"
	"chat-sync/errors"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
)

const darkModeKey = "whatsapp-dark-mode"

type IPreferenceRepository interface {
	LoadDarkMode() bool
	SaveDarkMode(enabled bool) error
}

type PreferenceRepository struct {
	store contract.KeyValueStore
	log   *slog.Logger
}

func NewPreferenceRepository(store contract.KeyValueStore, log *slog.Logger) *PreferenceRepository {
	return &PreferenceRepository{store: store, log: log}
}

// LoadDarkMode defaults to false when nothing valid is stored.
func (r *PreferenceRepository) LoadDarkMode() bool {
	raw, err := r.store.Get(darkModeKey)
	if err != nil {
		if !stdErrors.Is(err, errors.ErrNotFound) {
			r.log.Warn("Failed to read display preference", "error", err)
		}
		return false
	}
	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		r.log.Warn("Failed to parse display preference",
			"error", fmt.Errorf("%w: %s: %v", errors.ErrMalformedState, darkModeKey, err))
		return false
	}
	return enabled
}

func (r *PreferenceRepository) SaveDarkMode(enabled bool) error {
	raw, err := json.Marshal(enabled)
	if err != nil {
		return err
	}
	return r.store.Set(darkModeKey, raw)
}
