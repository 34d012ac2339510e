package services

import (
	"chat-sync/domain"
	"chat-sync/moderation"
	"chat-sync/projection"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

const SearchLimit = 50

type SearchResult struct {
	ConversationID string
	Message        domain.Message
}

// SearchIndex runs case-insensitive substring searches over the store,
// keeping the last results for the view.
type SearchIndex struct {
	mu        sync.RWMutex
	log       *slog.Logger
	store     *projection.ChatStore
	results   []SearchResult
	searching bool
}

func NewSearchIndex(log *slog.Logger, store *projection.ChatStore) *SearchIndex {
	return &SearchIndex{log: log, store: store}
}

// Search returns at most SearchLimit matches in store order.
// A blank query clears the previous results.
func (s *SearchIndex) Search(query string) []SearchResult {
	if moderation.IsBlank(query) {
		s.set(nil, false)
		return nil
	}
	// Stored content is escaped, so is the needle
	needle := strings.ToLower(moderation.Sanitize(query))

	var results []SearchResult
	s.store.Scan(func(m domain.Message) bool {
		if strings.Contains(strings.ToLower(m.Content), needle) {
			results = append(results, SearchResult{ConversationID: m.ConversationID, Message: m})
		}
		return len(results) < SearchLimit
	})
	s.log.Debug("Search done", "matches", len(results))
	s.set(results, true)
	return results
}

func (s *SearchIndex) Results() []SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

// Searching reports whether the last query was not blank.
func (s *SearchIndex) Searching() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searching
}

// FilterConversations keeps the conversations whose name contains the query, ignoring case.
func (s *SearchIndex) FilterConversations(query string) []domain.Conversation {
	conversations := s.store.ListConversations()
	if moderation.IsBlank(query) {
		return conversations
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	return lo.Filter(conversations, func(c domain.Conversation, _ int) bool {
		return strings.Contains(strings.ToLower(c.Name), needle)
	})
}

func (s *SearchIndex) set(results []SearchResult, searching bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = results
	s.searching = searching
}
