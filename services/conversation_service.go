package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/internal/clock"
	"chat-sync/moderation"
	"chat-sync/projection"
	"chat-sync/repositories"
	"log/slog"
	"strings"
)

// ConversationService manages the conversation list: restore at startup,
// persistence on every change, creation and read marks.
type ConversationService struct {
	log   *slog.Logger
	store *projection.ChatStore
	repo  repositories.IConversationRepository
	ids   contract.IDGenerator
	clock clock.Clock
}

func NewConversationService(log *slog.Logger, store *projection.ChatStore, repo repositories.IConversationRepository,
	ids contract.IDGenerator, clk clock.Clock) *ConversationService {
	return &ConversationService{log: log, store: store, repo: repo, ids: ids, clock: clk}
}

// Restore loads the saved snapshot into the store, falls back to the global
// conversation, then persists every later change.
func (s *ConversationService) Restore() {
	if saved := s.repo.Load(); len(saved) > 0 {
		s.store.RestoreConversations(saved)
		s.log.Info("Conversations restored", "count", len(saved))
	}
	s.EnsureDefault()
	s.store.Observe(func(conversations []domain.Conversation) {
		if err := s.repo.Save(conversations); err != nil {
			s.log.Warn("Conversations not persisted", "error", err)
		}
	})
}

// EnsureDefault lists the global conversation when no conversation exists.
func (s *ConversationService) EnsureDefault() {
	if len(s.store.ListConversations()) > 0 {
		return
	}
	s.store.UpsertConversation(domain.NewGlobalConversation(s.clock.Now()))
}

// Create lists a new conversation first. Group conversations carry no participants.
func (s *ConversationService) Create(name string, kind domain.ConversationKind, participants []string) domain.Conversation {
	name = moderation.Sanitize(strings.TrimSpace(name))
	conversation := domain.NewConversation(s.ids.NewID(), name, kind, participants, s.clock.Now())
	s.store.UpsertConversation(conversation)
	s.log.Info("Conversation created", "conversation", conversation.ID, "type", conversation.Kind)
	return conversation
}

func (s *ConversationService) MarkRead(conversationID string) {
	s.store.MarkRead(conversationID)
}

func (s *ConversationService) List() []domain.Conversation {
	return s.store.ListConversations()
}
