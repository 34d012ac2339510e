package services

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/domain/mimetypes"
	"chat-sync/errors"
	"chat-sync/internal/clock"
	"chat-sync/moderation"
	"chat-sync/projection"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// SendCommand is a local intent to post a message.
// A blank conversation targets the global conversation, a blank kind is text.
type SendCommand struct {
	ConversationID string
	Content        string
	Kind           domain.MessageKind
	Attachments    json.RawMessage
}

// MessageDispatcher turns send intents into optimistic local messages,
// publishes them and settles their status.
type MessageDispatcher struct {
	log            *slog.Logger
	store          *projection.ChatStore
	channel        contract.Channel
	ids            contract.IDGenerator
	drafts         *DraftManager
	moderator      *moderation.Moderator
	clock          clock.Clock
	publishTimeout time.Duration
}

func NewMessageDispatcher(log *slog.Logger, store *projection.ChatStore, channel contract.Channel,
	ids contract.IDGenerator, drafts *DraftManager, moderator *moderation.Moderator,
	clk clock.Clock, publishTimeout time.Duration) *MessageDispatcher {
	return &MessageDispatcher{
		log:            log,
		store:          store,
		channel:        channel,
		ids:            ids,
		drafts:         drafts,
		moderator:      moderator,
		clock:          clk,
		publishTimeout: publishTimeout,
	}
}

// Send inserts the message as sending before publishing it.
// On publish failure the message is returned as failed with an error wrapping ErrSendFailed.
func (d *MessageDispatcher) Send(ctx context.Context, cmd SendCommand) (domain.Message, error) {
	session, ok := d.channel.Session()
	if !ok {
		return domain.Message{}, errors.ErrNotSubscribed
	}

	if cmd.ConversationID == "" {
		cmd.ConversationID = domain.GlobalConversationID
	}
	if cmd.Kind == "" {
		cmd.Kind = domain.KindText
	}
	censored, matches := d.moderator.Censor(cmd.Content)
	if len(matches) > 0 {
		d.log.Debug("Outgoing content censored", "conversation", cmd.ConversationID, "words", len(matches))
	}
	cmd.Content = moderation.Sanitize(censored)
	if cmd.Kind == domain.KindText && moderation.IsBlank(cmd.Content) {
		return domain.Message{}, errors.ErrEmptyMessage
	}
	return d.send(ctx, session, cmd)
}

// send expects content already censored and sanitized.
func (d *MessageDispatcher) send(ctx context.Context, session domain.Session, cmd SendCommand) (domain.Message, error) {
	message := domain.Message{
		ID:              d.ids.NewID(),
		ConversationID:  cmd.ConversationID,
		SenderID:        session.User.ID,
		SenderName:      session.DisplayName(),
		SenderAvatarRef: session.AvatarRef(),
		Content:         cmd.Content,
		Kind:            cmd.Kind,
		Attachments:     cmd.Attachments,
		Timestamp:       d.clock.Now(),
		Status:          domain.StatusSending,
	}
	if err := d.store.InsertLocalMessage(message.ConversationID, message); err != nil {
		return domain.Message{}, err
	}

	if err := d.publish(ctx, message); err != nil {
		d.log.Warn("Message not sent", "conversation", message.ConversationID, "id", message.ID, "error", err)
		message.Status = domain.StatusFailed
		if err := d.store.SetMessageStatus(message.ConversationID, message.ID, domain.StatusFailed); err != nil {
			d.log.Debug("Failed status not applied", "id", message.ID, "error", err)
		}
		return message, fmt.Errorf("%w: %w", errors.ErrSendFailed, err)
	}

	message.Status = domain.StatusSent
	if err := d.store.SetMessageStatus(message.ConversationID, message.ID, domain.StatusSent); err != nil {
		d.log.Debug("Sent status not applied", "id", message.ID, "error", err)
	}
	d.drafts.ClearDraft(message.ConversationID)
	return message, nil
}

// Retry resends a failed message as a new message with the same content.
func (d *MessageDispatcher) Retry(ctx context.Context, conversationID, messageID string) (domain.Message, error) {
	session, ok := d.channel.Session()
	if !ok {
		return domain.Message{}, errors.ErrNotSubscribed
	}
	failed, ok := d.store.RemoveMessageIf(conversationID, messageID, func(m domain.Message) bool {
		return m.Status == domain.StatusFailed
	})
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrNotRetryable, messageID)
	}
	return d.send(ctx, session, SendCommand{
		ConversationID: conversationID,
		Content:        failed.Content,
		Kind:           failed.Kind,
		Attachments:    failed.Attachments,
	})
}

// Delete removes a message from the local view only.
func (d *MessageDispatcher) Delete(conversationID, messageID string) bool {
	return d.store.RemoveMessage(conversationID, messageID)
}

// SendAttachment sends a file, the message kind follows its sniffed media type.
func (d *MessageDispatcher) SendAttachment(ctx context.Context, conversationID, name string, data []byte) (domain.Message, error) {
	kind, detected := mimetypes.KindFor(data)
	attachments, err := json.Marshal([]domain.Attachment{{
		Name:     name,
		MimeType: string(detected),
		Size:     len(data),
		Data:     data,
	}})
	if err != nil {
		return domain.Message{}, fmt.Errorf("encode attachment %s: %w", name, err)
	}
	return d.Send(ctx, SendCommand{
		ConversationID: conversationID,
		Content:        name,
		Kind:           kind,
		Attachments:    attachments,
	})
}

func (d *MessageDispatcher) publish(ctx context.Context, message domain.Message) error {
	if d.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.publishTimeout)
		defer cancel()
	}
	return d.channel.Publish(ctx, event.MessageEvent, event.FromMessage(message))
}
