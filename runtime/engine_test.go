package runtime

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/internal/clock"
	"chat-sync/mocks"
	"chat-sync/services"
	"chat-sync/storage"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newEngine(t *testing.T, kv contract.KeyValueStore) (*Engine, *mocks.MockTransport, *clock.Fake, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	transport := mocks.NewMockTransport(ctrl)
	fake := clock.NewFake(at)
	engine, err := NewEngine(logs.GetLoggerFromLevel(slog.LevelDebug), transport, kv, Options{
		Clock:         fake,
		CensoredWords: []string{"badger"},
	})
	require.NoError(t, err)
	return engine, transport, fake, ctrl
}

func TestEngine_StartsWithGlobalConversation(t *testing.T) {
	req := require.New(t)
	engine, _, _, _ := newEngine(t, storage.NewMemoryStore())

	list := engine.Conversations.List()
	req.Len(list, 1)
	req.Equal(domain.GlobalConversationID, list[0].ID)
	req.False(engine.Preferences.DarkMode())
	_, ok := engine.Session()
	req.False(ok)
}

func TestEngine_Connect_RejectsInvalidSession(t *testing.T) {
	req := require.New(t)
	engine, transport, _, _ := newEngine(t, storage.NewMemoryStore())
	transport.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	err := engine.Connect(context.Background(), domain.Session{})

	req.ErrorIs(err, errors.ErrInvalidSession)
}

func TestEngine_Conversation(t *testing.T) {
	req := require.New(t)
	engine, transport, fake, ctrl := newEngine(t, storage.NewMemoryStore())
	ctx := context.Background()

	// Given alice connected
	sub := mocks.NewMockSubscription(ctrl)
	var handler contract.InboundHandler
	transport.EXPECT().
		Subscribe(gomock.Any(), DefaultChannel, "alice-id", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, h contract.InboundHandler) (contract.Subscription, error) {
			handler = h
			return sub, nil
		})
	sub.EXPECT().Track(gomock.Any(), gomock.Any()).Return(nil)
	req.NoError(engine.Connect(ctx, alice))

	// When bob is online and writes twice
	handler.HandlePresenceSync(ctx, event.PresenceState{"bob-id": {{ID: "bob-id", Name: "Bob"}}})
	handler.HandleBroadcast(ctx, event.TypingEvent, []byte(`{"userId":"bob-id","userName":"Bob","conversationId":"global","isTyping":true}`))
	handler.HandleBroadcast(ctx, event.MessageEvent, []byte(`{"id":"b-1","senderId":"bob-id","senderName":"Bob","content":"hi alice"}`))
	handler.HandleBroadcast(ctx, event.MessageEvent, []byte(`{"id":"b-2","senderId":"bob-id","senderName":"Bob","content":"there?"}`))

	// Then alice sees him online, typing, and two unread messages
	req.True(engine.Presence.IsOnline("bob-id"))
	req.Len(engine.Typing.TypingUsers(domain.GlobalConversationID), 1)
	global, _ := engine.Store.Conversation(domain.GlobalConversationID)
	req.Equal(2, global.UnreadCount)
	req.Equal("there?", global.LastMessage)

	// When alice reads, types and answers
	engine.Conversations.MarkRead(domain.GlobalConversationID)
	sub.EXPECT().Send(gomock.Any(), event.TypingEvent, gomock.Any()).Return(nil).Times(3)
	sub.EXPECT().Send(gomock.Any(), event.MessageEvent, gomock.Any()).Return(nil)
	engine.Typing.NotifyTyping(ctx, domain.GlobalConversationID)
	engine.Drafts.SaveDraft(domain.GlobalConversationID, "hey bob, the badger")
	sent, err := engine.Messages.Send(ctx, services.SendCommand{Content: "hey bob, the badger"})
	fake.Advance(services.DefaultTypingStopDelay)

	// Then the answer is sent, censored, and the draft is gone
	req.NoError(err)
	req.Equal(domain.StatusSent, sent.Status)
	req.Equal("hey bob, the ******", sent.Content)
	req.Empty(engine.Drafts.LoadDraft(domain.GlobalConversationID))
	global, _ = engine.Store.Conversation(domain.GlobalConversationID)
	req.Zero(global.UnreadCount)
	req.Len(engine.Search.Search("HEY"), 1)

	// When alice leaves
	sub.EXPECT().Unsubscribe(gomock.Any()).Return(nil)
	engine.Typing.NotifyTyping(ctx, domain.GlobalConversationID)
	engine.Disconnect(ctx)

	// Then no typing stop fires afterwards and sending is refused
	req.Zero(fake.Pending())
	_, err = engine.Messages.Send(ctx, services.SendCommand{Content: "anyone?"})
	req.ErrorIs(err, errors.ErrNotSubscribed)
}

func TestEngine_StateSurvivesRestart(t *testing.T) {
	req := require.New(t)
	kv := storage.NewMemoryStore()

	first, _, _, _ := newEngine(t, kv)
	created := first.Conversations.Create("Bob", domain.Direct, []string{"bob-id"})
	first.Drafts.SaveDraft(created.ID, "unfinished")
	first.Preferences.Toggle()

	second, _, _, _ := newEngine(t, kv)

	list := second.Conversations.List()
	req.Len(list, 2)
	req.Equal(created.ID, list[0].ID)
	req.Equal("unfinished", second.Drafts.LoadDraft(created.ID))
	req.True(second.Preferences.DarkMode())
}

func TestEngine_Options(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	_, err := NewEngine(logs.GetLoggerFromLevel(slog.LevelDebug), mocks.NewMockTransport(ctrl), storage.NewMemoryStore(), Options{
		TypingStopDelay: time.Second,
		ApplyDarkMode:   func(bool) {},
	})

	req.NoError(err)
}
