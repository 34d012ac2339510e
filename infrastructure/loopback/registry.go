package loopback

import (
	"chat-sync/contract"
	"chat-sync/domain/event"
	"slices"
	"sync"
)

type Set map[string]struct{}

type member struct {
	channel  string
	key      string
	handler  contract.InboundHandler
	presence *event.PresencePayload
}

// Registry maps each subscription to its handler and each channel to its subscriptions.
type Registry struct {
	mu       sync.RWMutex
	members  map[string]*member // subscription id -> member
	channels map[string]Set     // channel -> subscription ids
}

func NewRegistry() *Registry {
	return &Registry{
		members:  make(map[string]*member),
		channels: make(map[string]Set),
	}
}

// Subscribe registers a subscription on a channel under a presence key.
// The channel is created on the fly.
func (r *Registry) Subscribe(id, channel, key string, handler contract.InboundHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[id] = &member{channel: channel, key: key, handler: handler}
	if _, ok := r.channels[channel]; !ok {
		r.channels[channel] = make(Set)
	}
	r.channels[channel][id] = struct{}{}
}

// Unsubscribe drops the subscription and reports its channel.
// An emptied channel is removed.
func (r *Registry) Unsubscribe(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return "", false
	}
	delete(r.members, id)
	if ids, ok := r.channels[m.channel]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.channels, m.channel)
		}
	}
	return m.channel, true
}

// Track records the presence of a live subscription.
func (r *Registry) Track(id string, presence event.PresencePayload) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return "", false
	}
	m.presence = &presence
	return m.channel, true
}

// Channel returns the channel of a live subscription.
func (r *Registry) Channel(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return "", false
	}
	return m.channel, true
}

// Handler returns the handler of a live subscription.
func (r *Registry) Handler(id string) (contract.InboundHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	if !ok {
		return nil, false
	}
	return m.handler, true
}

// Members lists the subscription ids of a channel in a stable order.
func (r *Registry) Members(channel string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.channels[channel]))
	for id := range r.channels[channel] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Presence builds the keyed presence snapshot of a channel.
func (r *Registry) Presence(channel string) event.PresenceState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state := make(event.PresenceState)
	ids := make([]string, 0, len(r.channels[channel]))
	for id := range r.channels[channel] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		m := r.members[id]
		if m.presence != nil {
			state[m.key] = append(state[m.key], *m.presence)
		}
	}
	return state
}
