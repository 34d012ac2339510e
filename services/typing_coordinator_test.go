package services

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/internal/clock"
	"chat-sync/mocks"
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

// typingRecorder keeps every typing payload published, in order.
type typingRecorder struct {
	mu       sync.Mutex
	payloads []event.TypingPayload
}

func (r *typingRecorder) record(_ context.Context, _ string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload.(event.TypingPayload))
	return nil
}

func (r *typingRecorder) count(isTyping bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.payloads {
		if p.IsTyping == isTyping {
			n++
		}
	}
	return n
}

func newTypingFixture(t *testing.T) (*TypingCoordinator, *clock.Fake, *typingRecorder) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	channel := mocks.NewMockChannel(ctrl)
	recorder := &typingRecorder{}
	channel.EXPECT().Session().Return(alice, true).AnyTimes()
	channel.EXPECT().Publish(gomock.Any(), event.TypingEvent, gomock.Any()).DoAndReturn(recorder.record).AnyTimes()
	fake := clock.NewFake(at)
	return NewTypingCoordinator(log, channel, fake, DefaultTypingStopDelay, time.Second), fake, recorder
}

func TestTypingCoordinator_DebouncesStop(t *testing.T) {
	req := require.New(t)
	typing, fake, recorder := newTypingFixture(t)
	ctx := context.Background()

	// Given three keystrokes within 1500ms
	typing.NotifyTyping(ctx, "c-1")
	fake.Advance(750 * time.Millisecond)
	typing.NotifyTyping(ctx, "c-1")
	fake.Advance(750 * time.Millisecond)
	typing.NotifyTyping(ctx, "c-1")

	// Then every keystroke published a start
	req.Equal(3, recorder.count(true))
	req.Equal(1, fake.Pending())

	// And no stop is published before 2000ms after the last one
	fake.Advance(1999 * time.Millisecond)
	req.Zero(recorder.count(false))

	// When the window closes
	fake.Advance(time.Millisecond)

	// Then exactly one stop is published
	req.Equal(1, recorder.count(false))
	req.Zero(fake.Pending())
	last := recorder.payloads[len(recorder.payloads)-1]
	req.Equal(event.TypingPayload{UserID: "alice-id", UserName: "Alice", ConversationID: "c-1", IsTyping: false}, last)

	fake.Advance(time.Hour)
	req.Equal(1, recorder.count(false))
}

func TestTypingCoordinator_OneWindowPerConversation(t *testing.T) {
	req := require.New(t)
	typing, fake, recorder := newTypingFixture(t)
	ctx := context.Background()

	typing.NotifyTyping(ctx, "c-1")
	fake.Advance(time.Second)
	typing.NotifyTyping(ctx, "c-2")
	req.Equal(2, fake.Pending())

	fake.Advance(time.Second)
	req.Equal(1, recorder.count(false))
	fake.Advance(time.Second)
	req.Equal(2, recorder.count(false))
}

func TestTypingCoordinator_StopCancelsPendingWindows(t *testing.T) {
	req := require.New(t)
	typing, fake, recorder := newTypingFixture(t)
	ctx := context.Background()

	typing.NotifyTyping(ctx, "c-1")
	typing.NotifyTyping(ctx, "c-2")
	typing.Stop()

	req.Zero(fake.Pending())
	fake.Advance(time.Minute)
	req.Zero(recorder.count(false))
}

func TestTypingCoordinator_RealClockLeavesNoGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	channel := mocks.NewMockChannel(ctrl)
	recorder := &typingRecorder{}
	channel.EXPECT().Session().Return(alice, true).AnyTimes()
	channel.EXPECT().Publish(gomock.Any(), event.TypingEvent, gomock.Any()).DoAndReturn(recorder.record).AnyTimes()
	typing := NewTypingCoordinator(log, channel, clock.Real(), 20*time.Millisecond, time.Second)

	// A window that closes on its own
	typing.NotifyTyping(context.Background(), "c-1")
	req.Eventually(func() bool { return recorder.count(false) == 1 }, time.Second, 5*time.Millisecond)

	// A window cancelled by Stop
	typing.NotifyTyping(context.Background(), "c-2")
	typing.Stop()
}

func TestTypingCoordinator_PublishFailureIsSwallowed(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	channel := mocks.NewMockChannel(ctrl)
	channel.EXPECT().Session().Return(alice, true).AnyTimes()
	channel.EXPECT().Publish(gomock.Any(), event.TypingEvent, gomock.Any()).
		Return(stdErrors.New("offline")).Times(2)
	fake := clock.NewFake(at)
	typing := NewTypingCoordinator(log, channel, fake, DefaultTypingStopDelay, 0)

	typing.NotifyTyping(context.Background(), "c-1")
	fake.Advance(DefaultTypingStopDelay)

	req.Zero(fake.Pending())
}

func TestTypingCoordinator_NotSubscribed(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	channel := mocks.NewMockChannel(ctrl)
	channel.EXPECT().Session().Return(domain.Session{}, false)
	channel.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	fake := clock.NewFake(at)
	typing := NewTypingCoordinator(log, channel, fake, 0, 0)

	typing.NotifyTyping(context.Background(), "c-1")

	require.Zero(t, fake.Pending())
}

func TestTypingCoordinator_Consume(t *testing.T) {
	req := require.New(t)
	typing, _, _ := newTypingFixture(t)
	ctx := context.Background()
	bob := domain.TypingEntry{UserID: "bob-id", DisplayName: "Bob"}
	carol := domain.TypingEntry{UserID: "carol-id", DisplayName: "Carol"}

	// Given bob starts typing twice and carol once
	req.NoError(typing.Consume(ctx, event.TypingChanged{ConversationID: "c-1", Entry: bob, IsTyping: true}))
	req.NoError(typing.Consume(ctx, event.TypingChanged{ConversationID: "c-1", Entry: bob, IsTyping: true}))
	req.NoError(typing.Consume(ctx, event.TypingChanged{ConversationID: "c-1", Entry: carol, IsTyping: true}))

	// And alice own echo
	self := domain.TypingEntry{UserID: "alice-id", DisplayName: "Alice"}
	req.NoError(typing.Consume(ctx, event.TypingChanged{ConversationID: "c-1", Entry: self, IsTyping: true}))

	// Then the set holds bob and carol once
	req.Equal([]domain.TypingEntry{bob, carol}, typing.TypingUsers("c-1"))
	req.Empty(typing.TypingUsers("c-2"))

	// When bob stops
	req.NoError(typing.Consume(ctx, event.TypingChanged{ConversationID: "c-1", Entry: bob, IsTyping: false}))

	// Then only carol is left
	req.Equal([]domain.TypingEntry{carol}, typing.TypingUsers("c-1"))
}
