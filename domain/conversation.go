package domain

import (
	"fmt"
	"net/url"
	"time"
)

type ConversationKind string

const (
	Direct ConversationKind = "direct"
	Group  ConversationKind = "group"
)

const (
	GlobalConversationID   = "global"
	GlobalConversationName = "Global Chat"
)

const initialsAvatarURL = "https://api.dicebear.com/7.x/initials/svg?seed=%s"

// Conversation is a named channel of messages.
// Json tags follow the persisted conversation list snapshot.
type Conversation struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Kind            ConversationKind `json:"type"`
	ParticipantIDs  []string         `json:"participants"`
	LastMessage     string           `json:"lastMessage"`
	LastMessageTime *time.Time       `json:"lastMessageTime"`
	UnreadCount     int              `json:"unreadCount"`
	AvatarRef       *string          `json:"avatar"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// NewConversation builds an empty conversation. Direct conversations get an
// initials avatar, groups have none.
func NewConversation(id, name string, kind ConversationKind, participants []string, at time.Time) Conversation {
	if kind != Group {
		kind = Direct
	}
	var avatar *string
	if kind == Direct {
		ref := fmt.Sprintf(initialsAvatarURL, url.QueryEscape(name))
		avatar = &ref
	} else {
		participants = nil
	}
	return Conversation{
		ID:             id,
		Name:           name,
		Kind:           kind,
		ParticipantIDs: participants,
		AvatarRef:      avatar,
		CreatedAt:      at,
	}
}

// NewGlobalConversation is materialized when no conversation exists yet.
func NewGlobalConversation(at time.Time) Conversation {
	return Conversation{
		ID:        GlobalConversationID,
		Name:      GlobalConversationName,
		Kind:      Group,
		CreatedAt: at,
	}
}
