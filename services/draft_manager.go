package services

import (
	"chat-sync/domain"
	"chat-sync/repositories"
	"log/slog"
	"sync"
)

// DraftManager owns the single draft slot of the session. Last writer wins.
type DraftManager struct {
	mu   sync.Mutex
	log  *slog.Logger
	repo repositories.IDraftRepository
}

func NewDraftManager(log *slog.Logger, repo repositories.IDraftRepository) *DraftManager {
	return &DraftManager{log: log, repo: repo}
}

// SaveDraft persists the compose text, an empty text or conversation clears the slot.
func (m *DraftManager) SaveDraft(conversationID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conversationID == "" || text == "" {
		m.delete()
		return
	}
	if err := m.repo.Save(domain.Draft{ConversationID: conversationID, Text: text}); err != nil {
		m.log.Warn("Draft not saved", "conversation", conversationID, "error", err)
	}
}

// LoadDraft returns the draft text only if it was written for conversationID.
func (m *DraftManager) LoadDraft(conversationID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.repo.Load()
	if !ok || draft.ConversationID != conversationID {
		return ""
	}
	return draft.Text
}

// ClearDraft drops the draft of conversationID, a draft of another conversation is kept.
func (m *DraftManager) ClearDraft(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.repo.Load()
	if !ok || draft.ConversationID != conversationID {
		return
	}
	m.delete()
}

func (m *DraftManager) delete() {
	if err := m.repo.Delete(); err != nil {
		m.log.Warn("Draft not deleted", "error", err)
	}
}
