// Package runtime owns the live channel subscription and composes the sync
// core of one session. It routes events without containing business rules.
package runtime

import (
	"chat-sync/auth"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/internal/clock"
	"chat-sync/moderation"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// ChannelAdapter holds at most one live subscription to the realtime channel.
// Inbound events are decoded, sanitized and fanned out to the registered sinks
// in delivery order. Events of a torn down subscription are dropped.
type ChannelAdapter struct {
	lifecycle sync.Mutex // serializes Connect and Disconnect

	mu         sync.RWMutex
	log        *slog.Logger
	transport  contract.Transport
	channel    string
	clock      clock.Clock
	sinks      []contract.EventSink
	sub        contract.Subscription
	session    domain.Session
	generation uint64
}

func NewChannelAdapter(log *slog.Logger, transport contract.Transport, channel string, clk clock.Clock) *ChannelAdapter {
	return &ChannelAdapter{
		log:       log,
		transport: transport,
		channel:   channel,
		clock:     clk,
	}
}

// Register adds sinks receiving every inbound event.
func (c *ChannelAdapter) Register(sinks ...contract.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sinks = append(c.sinks, sinks...)
}

// Connect replaces the current subscription by one for the given session.
// The previous subscription is fully released before the new one is requested.
// Presence is tracked once the subscription is acknowledged.
func (c *ChannelAdapter) Connect(ctx context.Context, session domain.Session) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.teardown(ctx)

	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.session = session
	c.mu.Unlock()

	sub, err := c.transport.Subscribe(ctx, c.channel, session.User.ID, &inbound{adapter: c, generation: generation})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.channel, err)
	}

	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()
	c.log.Info("Subscribed", "channel", c.channel, "user", session.User.ID)

	presence := event.PresencePayload{
		ID:     session.User.ID,
		Name:   session.DisplayName(),
		Avatar: session.AvatarRef(),
	}
	if err := sub.Track(ctx, presence); err != nil {
		c.log.Warn("Presence registration failed", "channel", c.channel, "error", err)
	}
	return nil
}

// Disconnect releases the subscription. Calling it twice is harmless.
func (c *ChannelAdapter) Disconnect(ctx context.Context) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.teardown(ctx)
}

func (c *ChannelAdapter) teardown(ctx context.Context) {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.session = domain.Session{}
	c.generation++
	c.mu.Unlock()

	if sub == nil {
		return
	}
	if err := sub.Unsubscribe(ctx); err != nil {
		c.log.Warn("Unsubscribe failed", "channel", c.channel, "error", err)
		return
	}
	c.log.Info("Unsubscribed", "channel", c.channel)
}

// Session returns the session of the live subscription.
func (c *ChannelAdapter) Session() (domain.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session, c.sub != nil
}

// Publish broadcasts a JSON encoded payload on the live subscription.
func (c *ChannelAdapter) Publish(ctx context.Context, name string, payload any) error {
	c.mu.RLock()
	sub := c.sub
	c.mu.RUnlock()
	if sub == nil {
		return errors.ErrNotSubscribed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := sub.Send(ctx, name, data); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

// current returns the session when generation is still the live subscription.
func (c *ChannelAdapter) current(generation uint64) (domain.Session, []contract.EventSink, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if generation != c.generation {
		return domain.Session{}, nil, false
	}
	return c.session, c.sinks, true
}

func (c *ChannelAdapter) fanout(ctx context.Context, evt event.InboundEvent, sinks []contract.EventSink) {
	for _, sink := range sinks {
		if err := sink.Consume(ctx, evt); err != nil {
			c.log.Error("Sink failed", "event", evt.Name(), "error", err)
		}
	}
}

func (c *ChannelAdapter) decodeMessage(session domain.Session, payload []byte) (event.InboundEvent, bool) {
	var p event.MessagePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.log.Warn("Malformed message dropped", "error", err)
		return nil, false
	}
	if err := auth.ValidatePayload(p); err != nil {
		c.log.Warn("Invalid message dropped", "error", err)
		return nil, false
	}
	// Own broadcasts come back from the channel
	if p.SenderID == session.User.ID {
		return nil, false
	}

	m := domain.Message{
		ID:              p.ID,
		ConversationID:  p.ConversationID,
		SenderID:        p.SenderID,
		SenderName:      p.SenderName,
		SenderAvatarRef: p.SenderAvatarRef,
		Content:         moderation.SanitizeValue(p.Content),
		Kind:            domain.MessageKind(p.Kind),
		Attachments:     p.Attachments,
		Timestamp:       p.Timestamp,
		Status:          domain.StatusDelivered,
	}
	if m.ConversationID == "" {
		m.ConversationID = domain.GlobalConversationID
	}
	if !m.Kind.Valid() {
		m.Kind = domain.KindText
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = c.clock.Now()
	}
	return event.MessageReceived{Message: m}, true
}

func (c *ChannelAdapter) decodeTyping(payload []byte) (event.InboundEvent, bool) {
	var p event.TypingPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.log.Warn("Malformed typing dropped", "error", err)
		return nil, false
	}
	if err := auth.ValidatePayload(p); err != nil {
		c.log.Warn("Invalid typing dropped", "error", err)
		return nil, false
	}
	conversationID := p.ConversationID
	if conversationID == "" {
		conversationID = domain.GlobalConversationID
	}
	return event.TypingChanged{
		ConversationID: conversationID,
		Entry:          domain.TypingEntry{UserID: p.UserID, DisplayName: p.UserName},
		IsTyping:       p.IsTyping,
	}, true
}

// inbound binds transport callbacks to the subscription generation that created them.
type inbound struct {
	adapter    *ChannelAdapter
	generation uint64
}

func (h *inbound) HandleBroadcast(ctx context.Context, name string, payload []byte) {
	session, sinks, ok := h.adapter.current(h.generation)
	if !ok {
		h.adapter.log.Debug("Event of a closed subscription dropped", "event", name)
		return
	}

	var (
		evt   event.InboundEvent
		valid bool
	)
	switch name {
	case event.MessageEvent:
		evt, valid = h.adapter.decodeMessage(session, payload)
	case event.TypingEvent:
		evt, valid = h.adapter.decodeTyping(payload)
	default:
		h.adapter.log.Debug("Unknown broadcast ignored", "event", name)
	}
	if valid {
		h.adapter.fanout(ctx, evt, sinks)
	}
}

func (h *inbound) HandlePresenceSync(ctx context.Context, state event.PresenceState) {
	_, sinks, ok := h.adapter.current(h.generation)
	if !ok {
		return
	}
	h.adapter.fanout(ctx, event.PresenceSynced{State: state}, sinks)
}
