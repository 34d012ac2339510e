// Package loopback is an in-process realtime transport: named channels,
// broadcast to every other subscriber and keyed presence snapshots.
package loopback

import (
	"chat-sync/contract"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const DefaultBufferSize = 256

type delivery struct {
	to       string
	name     string
	payload  []byte
	presence event.PresenceState
}

// Hub queues deliveries and hands them to subscribers from its Run loop,
// one at a time and in queue order. Run is meant to be supervised.
type Hub struct {
	log        *slog.Logger
	registry   *Registry
	deliveries chan delivery
}

func NewHub(log *slog.Logger, registry *Registry, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{log: log, registry: registry, deliveries: make(chan delivery, bufferSize)}
}

func (h *Hub) Subscribe(ctx context.Context, channel, presenceKey string, handler contract.InboundHandler) (contract.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	h.registry.Subscribe(id, channel, presenceKey, handler)
	h.log.Debug("Subscription opened", "channel", channel, "key", presenceKey, "subscription", id)
	return &subscription{hub: h, id: id}, nil
}

func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case d := <-h.deliveries:
			h.deliver(ctx, d)
		case <-ctx.Done():
			h.log.Debug("Context done, stopping hub deliveries")
			return nil
		}
	}
}

func (h *Hub) deliver(ctx context.Context, d delivery) {
	handler, ok := h.registry.Handler(d.to)
	if !ok {
		return
	}
	if d.presence != nil {
		handler.HandlePresenceSync(ctx, d.presence)
		return
	}
	handler.HandleBroadcast(ctx, d.name, d.payload)
}

func (h *Hub) enqueue(ctx context.Context, d delivery) error {
	select {
	case h.deliveries <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// broadcast queues an event for every subscriber of the channel except the sender.
func (h *Hub) broadcast(ctx context.Context, from, channel, name string, payload []byte) error {
	for _, id := range h.registry.Members(channel) {
		if id == from {
			continue
		}
		if err := h.enqueue(ctx, delivery{to: id, name: name, payload: payload}); err != nil {
			return err
		}
	}
	return nil
}

// sync queues the current presence snapshot for every subscriber of the channel.
func (h *Hub) sync(ctx context.Context, channel string) error {
	state := h.registry.Presence(channel)
	for _, id := range h.registry.Members(channel) {
		if err := h.enqueue(ctx, delivery{to: id, presence: state}); err != nil {
			return err
		}
	}
	return nil
}

type subscription struct {
	hub *Hub
	id  string
}

func (s *subscription) Track(ctx context.Context, presence event.PresencePayload) error {
	channel, ok := s.hub.registry.Track(s.id, presence)
	if !ok {
		return errors.ErrNotSubscribed
	}
	return s.hub.sync(ctx, channel)
}

func (s *subscription) Send(ctx context.Context, name string, payload []byte) error {
	channel, ok := s.hub.registry.Channel(s.id)
	if !ok {
		return errors.ErrNotSubscribed
	}
	if err := s.hub.broadcast(ctx, s.id, channel, name, payload); err != nil {
		return fmt.Errorf("broadcast %s: %w", name, err)
	}
	return nil
}

func (s *subscription) Unsubscribe(ctx context.Context) error {
	channel, ok := s.hub.registry.Unsubscribe(s.id)
	if !ok {
		return nil
	}
	s.hub.log.Debug("Subscription closed", "channel", channel, "subscription", s.id)
	return s.hub.sync(ctx, channel)
}
