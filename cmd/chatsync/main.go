package main

import (
	"chat-sync/auth"
	"chat-sync/domain"
	"chat-sync/infrastructure/loopback"
	"chat-sync/internal"
	"chat-sync/runtime"
	"chat-sync/runtime/workers"
	"chat-sync/services"
	"chat-sync/storage"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes of the demo.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const deliveryTimeout = 2 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatsync error: %v\n", err)
	}
	os.Exit(code)
}

// run wires two clients on an in-process transport, replays a short
// conversation between them and prints what each one sees.
func run() (int, error) {
	_ = godotenv.Load()
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	censorChar, _ := internal.CharacterRune(config.CharReplacement)
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenDisk(config.BadgerFilepath)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	hub := loopback.NewHub(log, loopback.NewRegistry(), config.HubBufferSize)
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervised := make(chan struct{})
	go func() {
		supervisor.Add(hub).Run(ctx)
		close(supervised)
	}()
	defer func() {
		supervisor.Stop()
		<-supervised
	}()
	log.Info("Transport ready", "url", config.TransportURL, "channel", config.ChannelName)

	options := runtime.Options{
		Channel:         config.ChannelName,
		TypingStopDelay: config.TypingStopDelay,
		PublishTimeout:  config.PublishTimeout,
		CensoredWords:   config.Words(),
		CensorChar:      censorChar,
	}
	alice, err := runtime.NewEngine(log.With("client", "alice"), hub, storage.NewDiskStore(db, log), options)
	if err != nil {
		return exitRuntime, err
	}
	bob, err := runtime.NewEngine(log.With("client", "bob"), hub, storage.NewMemoryStore(), options)
	if err != nil {
		return exitRuntime, err
	}

	authService := services.NewAuthService(config.JWTSecret)
	clients := []struct {
		engine *runtime.Engine
		user   domain.User
	}{
		{alice, domain.User{ID: "alice", Email: "alice@example.com", Metadata: domain.UserMetadata{DisplayName: "Alice"}}},
		{bob, domain.User{ID: "bob", Email: "bob@example.com"}},
	}
	for _, c := range clients {
		if err := login(ctx, authService, c.engine, c.user, config.JWTSecret); err != nil {
			return exitRuntime, err
		}
		defer c.engine.Disconnect(context.WithoutCancel(ctx))
	}

	if err := replay(ctx, alice, bob); err != nil {
		return exitRuntime, err
	}

	render("alice", alice)
	render("bob", bob)
	return exitOK, nil
}

func login(ctx context.Context, authService services.IAuthService, engine *runtime.Engine, user domain.User, secret string) error {
	token, err := auth.GenerateToken(user, []byte(secret), time.Hour)
	if err != nil {
		return fmt.Errorf("token for %s: %w", user.ID, err)
	}
	session, err := authService.Login(services.Token(token))
	if err != nil {
		return err
	}
	return engine.Connect(ctx, session)
}

func replay(ctx context.Context, alice, bob *runtime.Engine) error {
	if err := waitFor(ctx, func() bool { return alice.Presence.IsOnline("bob") }); err != nil {
		return fmt.Errorf("bob never showed up: %w", err)
	}

	bob.Typing.NotifyTyping(ctx, domain.GlobalConversationID)
	if _, err := bob.Messages.Send(ctx, services.SendCommand{Content: "Hi Alice <3"}); err != nil {
		return err
	}
	if err := waitFor(ctx, func() bool { return len(alice.Store.MessagesFor(domain.GlobalConversationID)) > 0 }); err != nil {
		return fmt.Errorf("alice missed bob's message: %w", err)
	}

	alice.Conversations.MarkRead(domain.GlobalConversationID)
	alice.Drafts.SaveDraft(domain.GlobalConversationID, "Hey Bob")
	if _, err := alice.Messages.Send(ctx, services.SendCommand{Content: "Hey Bob, how are you?"}); err != nil {
		return err
	}
	return waitFor(ctx, func() bool { return len(bob.Store.MessagesFor(domain.GlobalConversationID)) > 1 })
}

func waitFor(ctx context.Context, done func() bool) error {
	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func render(name string, engine *runtime.Engine) {
	color.New(color.BgBlack, color.FgGreen).Printf("  ====== %s ======  \n", name)
	for _, c := range engine.Conversations.List() {
		color.Bold.Printf("# %s", c.Name)
		fmt.Printf("  (unread %d)\n", c.UnreadCount)
		for _, m := range engine.Store.MessagesFor(c.ID) {
			color.Cyan.Printf("  %-6s", m.SenderName)
			fmt.Printf(" %s ", m.Content)
			color.Gray.Printf("[%s]\n", m.Status)
		}
	}
	var names []string
	for _, p := range engine.Presence.OnlineUsers() {
		names = append(names, p.DisplayName)
	}
	color.Yellow.Printf("online: %s\n", strings.Join(names, ", "))
}
