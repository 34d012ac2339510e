package sink

import (
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/projection"
	"context"
	stdErrors "errors"
	"log/slog"
)

// MessageSink applies remote messages to the local projection.
type MessageSink struct {
	store *projection.ChatStore
	log   *slog.Logger
}

func NewMessageSink(store *projection.ChatStore, log *slog.Logger) *MessageSink {
	return &MessageSink{store: store, log: log}
}

func (s *MessageSink) Consume(_ context.Context, e event.InboundEvent) error {
	evt, ok := e.(event.MessageReceived)
	if !ok {
		return nil
	}
	m := evt.Message
	err := s.store.ApplyRemoteMessage(m.ConversationID, m)
	if stdErrors.Is(err, errors.ErrDuplicateMessage) {
		// The transport may deliver the same broadcast twice
		s.log.Warn("Duplicate message dropped", "conversation", m.ConversationID, "id", m.ID)
		return nil
	}
	return err
}
