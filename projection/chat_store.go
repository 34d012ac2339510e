// Package projection builds the local view of conversations from local intents
// and observed events. It is the single source of truth read by the view layer.
package projection

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ConversationObserver is notified with a copy of the conversation list after each change.
// It runs outside the store lock. Observers are never called concurrently and
// when changes pile up during a call only the latest list is delivered next.
type ConversationObserver func(conversations []domain.Conversation)

type change struct {
	version       uint64
	conversations []domain.Conversation
}

// ChatStore keeps conversations in listed order and, per conversation id,
// the ordered sequence of its messages.
// Every operation either fully applies or leaves the store untouched.
// A missing conversation reads as an empty one.
type ChatStore struct {
	mu            sync.RWMutex
	log           *slog.Logger
	conversations []domain.Conversation
	messages      map[string][]domain.Message
	sequences     []string // conversation ids in first write order
	observers     []ConversationObserver
	version       uint64
	pending       *change

	flushMu  sync.Mutex
	queued   uint64
	latest   *change
	flushing bool
}

func NewChatStore(log *slog.Logger) *ChatStore {
	return &ChatStore{
		log:      log,
		messages: make(map[string][]domain.Message),
	}
}

func (s *ChatStore) Observe(observer ConversationObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// RestoreConversations replaces the conversation list, typically from a saved snapshot.
func (s *ChatStore) RestoreConversations(conversations []domain.Conversation) {
	s.mu.Lock()
	defer s.unlock()
	s.conversations = slices.Clone(conversations)
	s.notify()
}

// UpsertConversation replaces a known conversation in place, a new one is listed first.
func (s *ChatStore) UpsertConversation(conversation domain.Conversation) {
	s.mu.Lock()
	defer s.unlock()
	if i := s.indexOf(conversation.ID); i >= 0 {
		s.conversations[i] = conversation
	} else {
		s.conversations = append([]domain.Conversation{conversation}, s.conversations...)
	}
	s.notify()
}

func (s *ChatStore) ListConversations() []domain.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.conversations)
}

func (s *ChatStore) Conversation(id string) (domain.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.conversations[i], true
	}
	return domain.Conversation{}, false
}

// InsertLocalMessage appends an optimistic message and updates the conversation summary.
func (s *ChatStore) InsertLocalMessage(conversationID string, message domain.Message) error {
	s.mu.Lock()
	defer s.unlock()
	message.ConversationID = conversationID
	if err := s.appendMessage(message); err != nil {
		return err
	}
	s.touch(conversationID, message, false)
	return nil
}

// ApplyRemoteMessage appends a message received from a peer as delivered,
// updates the conversation summary and counts it as unread.
func (s *ChatStore) ApplyRemoteMessage(conversationID string, message domain.Message) error {
	s.mu.Lock()
	defer s.unlock()
	message.ConversationID = conversationID
	message.Status = domain.StatusDelivered
	if err := s.appendMessage(message); err != nil {
		return err
	}
	s.touch(conversationID, message, true)
	return nil
}

// SetMessageStatus moves a message along the status transition table.
func (s *ChatStore) SetMessageStatus(conversationID, messageID string, status domain.MessageStatus) error {
	s.mu.Lock()
	defer s.unlock()
	sequence := s.messages[conversationID]
	i := indexOfMessage(sequence, messageID)
	if i < 0 {
		return fmt.Errorf("%w: %s in %s", errors.ErrMessageNotFound, messageID, conversationID)
	}
	current := sequence[i].Status
	if !current.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, current, status)
	}
	sequence[i].Status = status
	return nil
}

// RemoveMessage reports whether the message existed.
func (s *ChatStore) RemoveMessage(conversationID, messageID string) bool {
	_, ok := s.RemoveMessageIf(conversationID, messageID, func(domain.Message) bool { return true })
	return ok
}

// RemoveMessageIf removes the message only if match accepts it, in one step.
func (s *ChatStore) RemoveMessageIf(conversationID, messageID string, match func(domain.Message) bool) (domain.Message, bool) {
	s.mu.Lock()
	defer s.unlock()
	sequence := s.messages[conversationID]
	i := indexOfMessage(sequence, messageID)
	if i < 0 || !match(sequence[i]) {
		return domain.Message{}, false
	}
	removed := sequence[i]
	s.messages[conversationID] = slices.Delete(sequence, i, i+1)
	return removed, true
}

// MarkRead resets the unread counter unconditionally.
func (s *ChatStore) MarkRead(conversationID string) {
	s.mu.Lock()
	defer s.unlock()
	i := s.indexOf(conversationID)
	if i < 0 || s.conversations[i].UnreadCount == 0 {
		return
	}
	s.conversations[i].UnreadCount = 0
	s.notify()
}

func (s *ChatStore) MessagesFor(conversationID string) []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages[conversationID])
}

func (s *ChatStore) Message(conversationID, messageID string) (domain.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sequence := s.messages[conversationID]
	if i := indexOfMessage(sequence, messageID); i >= 0 {
		return sequence[i], true
	}
	return domain.Message{}, false
}

// Scan visits every message in store order: listed conversations first, then
// sequences with no listed conversation in first write order. Messages keep
// insertion order. Returning false stops the scan.
func (s *ChatStore) Scan(visit func(message domain.Message) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visited := make(map[string]struct{}, len(s.conversations))
	order := make([]string, 0, len(s.sequences))
	for _, c := range s.conversations {
		visited[c.ID] = struct{}{}
		order = append(order, c.ID)
	}
	for _, id := range s.sequences {
		if _, ok := visited[id]; !ok {
			order = append(order, id)
		}
	}
	for _, id := range order {
		for _, message := range s.messages[id] {
			if !visit(message) {
				return
			}
		}
	}
}

func (s *ChatStore) appendMessage(message domain.Message) error {
	sequence, known := s.messages[message.ConversationID]
	if indexOfMessage(sequence, message.ID) >= 0 {
		return fmt.Errorf("%w: %s in %s", errors.ErrDuplicateMessage, message.ID, message.ConversationID)
	}
	if !known {
		s.sequences = append(s.sequences, message.ConversationID)
	}
	s.messages[message.ConversationID] = append(sequence, message)
	return nil
}

// touch updates the summary of a listed conversation, unlisted ones only hold messages.
func (s *ChatStore) touch(conversationID string, message domain.Message, unread bool) {
	i := s.indexOf(conversationID)
	if i < 0 {
		s.log.Debug("Message stored for an unlisted conversation", "conversation", conversationID)
		return
	}
	at := message.Timestamp
	s.conversations[i].LastMessage = message.Content
	s.conversations[i].LastMessageTime = &at
	if unread {
		s.conversations[i].UnreadCount++
	}
	s.notify()
}

// notify records the conversation list for the observers, the lock must be held.
func (s *ChatStore) notify() {
	if len(s.observers) == 0 {
		return
	}
	s.version++
	s.pending = &change{version: s.version, conversations: slices.Clone(s.conversations)}
}

// unlock releases the write lock then delivers the recorded change.
// The caller already flushing keeps delivering the newest queued change until none is left.
func (s *ChatStore) unlock() {
	pending := s.pending
	s.pending = nil
	observers := s.observers
	s.mu.Unlock()
	if pending == nil {
		return
	}

	s.flushMu.Lock()
	if pending.version <= s.queued {
		// A newer list is already queued or delivered
		s.flushMu.Unlock()
		return
	}
	s.queued = pending.version
	s.latest = pending
	if s.flushing {
		s.flushMu.Unlock()
		return
	}
	s.flushing = true
	for s.latest != nil {
		next := s.latest
		s.latest = nil
		s.flushMu.Unlock()
		for _, observer := range observers {
			observer(next.conversations)
		}
		s.flushMu.Lock()
	}
	s.flushing = false
	s.flushMu.Unlock()
}

func (s *ChatStore) indexOf(conversationID string) int {
	return slices.IndexFunc(s.conversations, func(c domain.Conversation) bool {
		return c.ID == conversationID
	})
}

func indexOfMessage(sequence []domain.Message, messageID string) int {
	return slices.IndexFunc(sequence, func(m domain.Message) bool {
		return m.ID == messageID
	})
}
