package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/internal/clock"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

const DefaultTypingStopDelay = 2000 * time.Millisecond

type pendingStop struct {
	id    uint64
	timer clock.Timer
}

// TypingCoordinator debounces the local typing signal per conversation and
// keeps the set of peers typing in each conversation.
// There is at most one pending stop per conversation.
type TypingCoordinator struct {
	mu             sync.Mutex
	log            *slog.Logger
	channel        contract.Channel
	clock          clock.Clock
	stopDelay      time.Duration
	publishTimeout time.Duration
	seq            uint64
	latest         map[string]uint64
	pending        map[string]pendingStop
	typing         map[string][]domain.TypingEntry
}

func NewTypingCoordinator(log *slog.Logger, channel contract.Channel, clk clock.Clock, stopDelay, publishTimeout time.Duration) *TypingCoordinator {
	if stopDelay <= 0 {
		stopDelay = DefaultTypingStopDelay
	}
	return &TypingCoordinator{
		log:            log,
		channel:        channel,
		clock:          clk,
		stopDelay:      stopDelay,
		publishTimeout: publishTimeout,
		latest:         make(map[string]uint64),
		pending:        make(map[string]pendingStop),
		typing:         make(map[string][]domain.TypingEntry),
	}
}

// NotifyTyping publishes a typing start on every call and postpones the typing stop
// to stopDelay after the last call.
func (t *TypingCoordinator) NotifyTyping(ctx context.Context, conversationID string) {
	session, ok := t.channel.Session()
	if !ok {
		return
	}
	if conversationID == "" {
		conversationID = domain.GlobalConversationID
	}

	t.mu.Lock()
	t.cancel(conversationID)
	t.seq++
	id := t.seq
	t.latest[conversationID] = id
	t.mu.Unlock()

	payload := event.TypingPayload{
		UserID:         session.User.ID,
		UserName:       session.DisplayName(),
		ConversationID: conversationID,
		IsTyping:       true,
	}
	t.publish(ctx, payload)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[conversationID] != id {
		// A later call owns the stop
		return
	}
	stop := payload
	stop.IsTyping = false
	detached := context.WithoutCancel(ctx)
	t.pending[conversationID] = pendingStop{
		id: id,
		timer: t.clock.AfterFunc(t.stopDelay, func() {
			t.fire(detached, id, stop)
		}),
	}
}

func (t *TypingCoordinator) fire(ctx context.Context, id uint64, stop event.TypingPayload) {
	t.mu.Lock()
	current, ok := t.pending[stop.ConversationID]
	if !ok || current.id != id {
		t.mu.Unlock()
		return
	}
	delete(t.pending, stop.ConversationID)
	delete(t.latest, stop.ConversationID)
	t.mu.Unlock()
	t.publish(ctx, stop)
}

// cancel must be called with the lock held.
func (t *TypingCoordinator) cancel(conversationID string) {
	if p, ok := t.pending[conversationID]; ok {
		p.timer.Stop()
		delete(t.pending, conversationID)
	}
}

func (t *TypingCoordinator) publish(ctx context.Context, payload event.TypingPayload) {
	if t.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.publishTimeout)
		defer cancel()
	}
	if err := t.channel.Publish(ctx, event.TypingEvent, payload); err != nil {
		t.log.Debug("Typing signal lost", "conversation", payload.ConversationID, "typing", payload.IsTyping, "error", err)
	}
}

// Consume keeps the peers typing set in sync with inbound typing signals.
func (t *TypingCoordinator) Consume(_ context.Context, e event.InboundEvent) error {
	evt, ok := e.(event.TypingChanged)
	if !ok {
		return nil
	}
	if session, ok := t.channel.Session(); ok && evt.Entry.UserID == session.User.ID {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	entries := t.typing[evt.ConversationID]
	i := slices.IndexFunc(entries, func(entry domain.TypingEntry) bool {
		return entry.UserID == evt.Entry.UserID
	})
	switch {
	case evt.IsTyping && i < 0:
		t.typing[evt.ConversationID] = append(entries, evt.Entry)
	case !evt.IsTyping && i >= 0:
		entries = slices.Delete(entries, i, i+1)
		if len(entries) == 0 {
			delete(t.typing, evt.ConversationID)
		} else {
			t.typing[evt.ConversationID] = entries
		}
	}
	return nil
}

// TypingUsers lists the peers typing in a conversation, in arrival order.
func (t *TypingCoordinator) TypingUsers(conversationID string) []domain.TypingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.typing[conversationID])
}

// Stop cancels every pending typing stop and forgets the peers typing.
// No stop signal is published.
func (t *TypingCoordinator) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conversationID := range t.pending {
		t.cancel(conversationID)
	}
	clear(t.latest)
	clear(t.typing)
}
