package runtime

import (
	"chat-sync/auth"
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/identity"
	"chat-sync/internal/clock"
	"chat-sync/moderation"
	"chat-sync/projection"
	"chat-sync/repositories"
	"chat-sync/services"
	"chat-sync/sink"
	"context"
	"fmt"
	"log/slog"
	"time"
)

const DefaultChannel = "global-chat"

type Options struct {
	Channel         string
	TypingStopDelay time.Duration
	PublishTimeout  time.Duration
	CensoredWords   []string
	CensorChar      rune
	Clock           clock.Clock
	IDs             contract.IDGenerator
	// ApplyDarkMode renders the display preference, it may be nil.
	ApplyDarkMode func(darkMode bool)
}

// Engine wires the sync core of one client: one store, one channel and the
// services reading and writing them.
type Engine struct {
	log           *slog.Logger
	channel       *ChannelAdapter
	Store         *projection.ChatStore
	Conversations *services.ConversationService
	Messages      *services.MessageDispatcher
	Typing        *services.TypingCoordinator
	Presence      *services.PresenceTracker
	Drafts        *services.DraftManager
	Search        *services.SearchIndex
	Preferences   *services.Preferences
}

// NewEngine restores the persisted state from kv and registers the inbound sinks.
// Nothing is subscribed until Connect.
func NewEngine(log *slog.Logger, transport contract.Transport, kv contract.KeyValueStore, opts Options) (*Engine, error) {
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.IDs == nil {
		opts.IDs = identity.New()
	}
	if opts.CensorChar == 0 {
		opts.CensorChar = '*'
	}
	moderator, err := moderation.NewModerator(opts.CensoredWords, opts.CensorChar, log)
	if err != nil {
		return nil, fmt.Errorf("moderator: %w", err)
	}

	store := projection.NewChatStore(log)
	channel := NewChannelAdapter(log, transport, opts.Channel, opts.Clock)
	drafts := services.NewDraftManager(log, repositories.NewDraftRepository(kv, log))
	conversations := services.NewConversationService(log, store,
		repositories.NewConversationRepository(kv, log), opts.IDs, opts.Clock)
	typing := services.NewTypingCoordinator(log, channel, opts.Clock, opts.TypingStopDelay, opts.PublishTimeout)
	presence := services.NewPresenceTracker(log)

	e := &Engine{
		log:           log,
		channel:       channel,
		Store:         store,
		Conversations: conversations,
		Messages: services.NewMessageDispatcher(log, store, channel, opts.IDs, drafts, moderator,
			opts.Clock, opts.PublishTimeout),
		Typing:      typing,
		Presence:    presence,
		Drafts:      drafts,
		Search:      services.NewSearchIndex(log, store),
		Preferences: services.NewPreferences(log, repositories.NewPreferenceRepository(kv, log), opts.ApplyDarkMode),
	}
	conversations.Restore()
	channel.Register(sink.NewMessageSink(store, log), typing, presence)
	return e, nil
}

// Connect subscribes the engine for session, replacing any previous session.
func (e *Engine) Connect(ctx context.Context, session domain.Session) error {
	if err := auth.ValidateSession(session); err != nil {
		return err
	}
	e.Typing.Stop()
	return e.channel.Connect(ctx, session)
}

// Disconnect cancels pending typing windows and releases the subscription.
func (e *Engine) Disconnect(ctx context.Context) {
	e.Typing.Stop()
	e.channel.Disconnect(ctx)
}

func (e *Engine) Session() (domain.Session, bool) {
	return e.channel.Session()
}
