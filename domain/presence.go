package domain

// PresenceEntry is one user of the online set.
type PresenceEntry struct {
	UserID      string
	DisplayName string
	AvatarRef   *string
}

// TypingEntry is a peer currently typing in a conversation.
// It only leaves the set on an explicit stop signal.
type TypingEntry struct {
	UserID      string
	DisplayName string
}

// Draft is the single unsent compose text of the session.
type Draft struct {
	ConversationID string `json:"chatId"`
	Text           string `json:"text"`
}
