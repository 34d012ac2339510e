// Package domain contains core concepts of the chat system.
// This file defines Message entities and the delivery status machine.
package domain

import (
	"encoding/json"
	"time"
)

type MessageKind string

const (
	KindText  MessageKind = "text"
	KindImage MessageKind = "image"
	KindFile  MessageKind = "file"
	KindAudio MessageKind = "audio"
)

func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindFile, KindAudio:
		return true
	}
	return false
}

// MessageStatus is the delivery state of a message. A message holds exactly one status.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	// StatusRead is reserved: nothing in the sync core produces it.
	StatusRead   MessageStatus = "read"
	StatusFailed MessageStatus = "failed"
)

// transitions lists every allowed status change.
// Remote messages enter directly at StatusDelivered and never move.
// A failed message is terminal, a retry replaces it by a new message.
var transitions = map[MessageStatus][]MessageStatus{
	StatusSending: {StatusSent, StatusFailed},
}

func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSending, StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition table allows moving from s to next.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Message is a single entry of a conversation sequence.
// ID is only unique within its conversation.
type Message struct {
	ID              string
	ConversationID  string
	SenderID        string
	SenderName      string
	SenderAvatarRef *string
	Content         string
	Kind            MessageKind
	Attachments     json.RawMessage
	Timestamp       time.Time
	Status          MessageStatus
}

// Attachment is the payload carried by non text messages.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int    `json:"size"`
	Data     []byte `json:"data"`
}
