package services

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// PresenceTracker mirrors the online set of the channel. Each snapshot replaces it entirely.
type PresenceTracker struct {
	mu     sync.RWMutex
	log    *slog.Logger
	online []domain.PresenceEntry
}

func NewPresenceTracker(log *slog.Logger) *PresenceTracker {
	return &PresenceTracker{log: log}
}

func (p *PresenceTracker) Consume(_ context.Context, e event.InboundEvent) error {
	evt, ok := e.(event.PresenceSynced)
	if !ok {
		return nil
	}
	online := Flatten(evt.State)

	p.mu.Lock()
	p.online = online
	p.mu.Unlock()
	p.log.Debug("Presence synced", "online", len(online))
	return nil
}

// Flatten turns a keyed presence snapshot into one entry per user.
// Keys are visited in sorted order and the first entry of a user wins.
func Flatten(state event.PresenceState) []domain.PresenceEntry {
	keys := lo.Keys(state)
	slices.Sort(keys)
	payloads := lo.FlatMap(keys, func(key string, _ int) []event.PresencePayload {
		return state[key]
	})
	payloads = lo.Filter(payloads, func(p event.PresencePayload, _ int) bool {
		return p.ID != ""
	})
	return lo.Map(lo.UniqBy(payloads, func(p event.PresencePayload) string {
		return p.ID
	}), func(p event.PresencePayload, _ int) domain.PresenceEntry {
		return domain.PresenceEntry{UserID: p.ID, DisplayName: p.Name, AvatarRef: p.Avatar}
	})
}

func (p *PresenceTracker) OnlineUsers() []domain.PresenceEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.online)
}

func (p *PresenceTracker) IsOnline(userID string) bool {
	_, ok := p.UserInfo(userID)
	return ok
}

func (p *PresenceTracker) UserInfo(userID string) (domain.PresenceEntry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return lo.Find(p.online, func(entry domain.PresenceEntry) bool {
		return entry.UserID == userID
	})
}
