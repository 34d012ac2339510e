package e2e

import (
	"chat-sync/domain"
	"chat-sync/errors"
	"chat-sync/services"
	"chat-sync/storage"
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
)

type testConversationSuite struct {
	BaseSuite
}

func TestConversationSuite(t *testing.T) {
	suite.Run(t, &testConversationSuite{})
}

func (s *testConversationSuite) TestTwoClientsTalk() {
	ctx := context.Background()
	aliceStore := storage.NewMemoryStore()
	alice := s.Client(domain.User{ID: "alice", Metadata: domain.UserMetadata{DisplayName: "Alice"}}, aliceStore)
	bob := s.Client(domain.User{ID: "bob", Email: "bob@example.com"}, nil)

	s.Step("Step 1: Both clients see each other online", func() {
		s.WaitFor(func() bool {
			return alice.Presence.IsOnline("bob") && bob.Presence.IsOnline("alice")
		}, "presence snapshot not received")
		info, ok := alice.Presence.UserInfo("bob")
		s.Require().True(ok)
		s.Require().Equal("bob", info.DisplayName)
	})

	s.Step("Step 2: Typing start then automatic stop", func() {
		bob.Typing.NotifyTyping(ctx, domain.GlobalConversationID)
		s.WaitFor(func() bool {
			return len(alice.Typing.TypingUsers(domain.GlobalConversationID)) == 1
		}, "typing start not received")
		s.WaitFor(func() bool {
			return len(alice.Typing.TypingUsers(domain.GlobalConversationID)) == 0
		}, "typing stop not received")
	})

	s.Step("Step 3: Bob writes three times, alice counts them unread", func() {
		for _, content := range []string{"hi", "<b>are you there?</b>", "hello?"} {
			sent, err := bob.Messages.Send(ctx, services.SendCommand{Content: content})
			s.Require().NoError(err)
			s.Require().Equal(domain.StatusSent, sent.Status)
		}
		s.WaitFor(func() bool {
			return len(alice.Store.MessagesFor(domain.GlobalConversationID)) == 3
		}, "messages not delivered")

		global, _ := alice.Store.Conversation(domain.GlobalConversationID)
		s.Require().Equal(3, global.UnreadCount)
		s.Require().Equal("&lt;b&gt;are you there?&lt;/b&gt;", alice.Store.MessagesFor(domain.GlobalConversationID)[1].Content)
		for _, m := range alice.Store.MessagesFor(domain.GlobalConversationID) {
			s.Require().Equal(domain.StatusDelivered, m.Status)
		}

		// Bob never receives his own messages back
		s.Require().Len(bob.Store.MessagesFor(domain.GlobalConversationID), 3)
		global, _ = bob.Store.Conversation(domain.GlobalConversationID)
		s.Require().Zero(global.UnreadCount)
	})

	s.Step("Step 4: Alice reads, searches and answers", func() {
		alice.Conversations.MarkRead(domain.GlobalConversationID)
		results := alice.Search.Search("ARE YOU")
		s.Require().Len(results, 1)

		_, err := alice.Messages.Send(ctx, services.SendCommand{Content: "yes!"})
		s.Require().NoError(err)
		s.WaitFor(func() bool {
			return len(bob.Store.MessagesFor(domain.GlobalConversationID)) == 4
		}, "answer not delivered")
	})

	s.Step("Step 5: Offline send is refused until bob reconnects", func() {
		bob.Disconnect(ctx)
		s.WaitFor(func() bool { return !alice.Presence.IsOnline("bob") }, "bob still online")

		_, err := bob.Messages.Send(ctx, services.SendCommand{Content: "lost"})
		s.Require().ErrorIs(err, errors.ErrNotSubscribed)
		s.Require().Len(bob.Store.MessagesFor(domain.GlobalConversationID), 4)

		s.Require().NoError(bob.Connect(ctx, domain.Session{User: domain.User{ID: "bob", Email: "bob@example.com"}}))
		s.WaitFor(func() bool { return alice.Presence.IsOnline("bob") }, "bob not back online")
		_, err = bob.Messages.Send(ctx, services.SendCommand{Content: "back"})
		s.Require().NoError(err)
		s.WaitFor(func() bool {
			return len(alice.Store.MessagesFor(domain.GlobalConversationID)) == 5
		}, "message after reconnect not delivered")
		alice.Conversations.MarkRead(domain.GlobalConversationID)
	})

	s.Step("Step 6: Alice state survives a restart", func() {
		next := s.Client(domain.User{ID: "alice", Metadata: domain.UserMetadata{DisplayName: "Alice"}}, aliceStore)
		list := next.Conversations.List()
		s.Require().Len(list, 1)
		s.Require().Equal("back", list[0].LastMessage)
		s.Require().Zero(list[0].UnreadCount)
	})
}
