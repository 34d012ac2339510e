// Package event defines the payloads exchanged over the realtime channel
// and the inbound events fanned out to the sync core sinks.
package event

import (
	"chat-sync/domain"
	"encoding/json"
	"time"
)

// Broadcast event names and the presence snapshot name.
const (
	MessageEvent = "message"
	TypingEvent  = "typing"
	PresenceSync = "sync"
)

// MessagePayload is the wire shape of a "message" broadcast.
// Content is left untyped: a non string content decodes to an empty text.
type MessagePayload struct {
	ID              string          `json:"id" validate:"required"`
	ConversationID  string          `json:"conversationId"`
	SenderID        string          `json:"senderId" validate:"required"`
	SenderName      string          `json:"senderName"`
	SenderAvatarRef *string         `json:"senderAvatarRef,omitempty"`
	Content         any             `json:"content"`
	Kind            string          `json:"kind"`
	Attachments     json.RawMessage `json:"attachments,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	Status          string          `json:"status"`
}

// TypingPayload is the wire shape of a "typing" broadcast.
type TypingPayload struct {
	UserID         string `json:"userId" validate:"required"`
	UserName       string `json:"userName"`
	ConversationID string `json:"conversationId"`
	IsTyping       bool   `json:"isTyping"`
}

// PresencePayload is both the presence registration sent once per subscription
// and one entry of a presence snapshot.
type PresencePayload struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

// PresenceState is the transport's keyed-by-user presence map.
type PresenceState map[string][]PresencePayload

func FromMessage(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:              m.ID,
		ConversationID:  m.ConversationID,
		SenderID:        m.SenderID,
		SenderName:      m.SenderName,
		SenderAvatarRef: m.SenderAvatarRef,
		Content:         m.Content,
		Kind:            string(m.Kind),
		Attachments:     m.Attachments,
		Timestamp:       m.Timestamp,
		Status:          string(m.Status),
	}
}

// InboundEvent is what the channel adapter hands to its sinks.
type InboundEvent interface {
	Name() string
}

// MessageReceived carries a remote message, already sanitized and stamped delivered.
type MessageReceived struct {
	Message domain.Message
}

func (MessageReceived) Name() string { return MessageEvent }

type TypingChanged struct {
	ConversationID string
	Entry          domain.TypingEntry
	IsTyping       bool
}

func (TypingChanged) Name() string { return TypingEvent }

type PresenceSynced struct {
	State PresenceState
}

func (PresenceSynced) Name() string { return PresenceSync }
