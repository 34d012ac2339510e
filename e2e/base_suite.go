package e2e

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/infrastructure/loopback"
	"chat-sync/runtime"
	"chat-sync/runtime/workers"
	"chat-sync/storage"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

// BaseSuite runs a loopback hub under a supervisor and builds clients on it.
type BaseSuite struct {
	suite.Suite
	Config     Config
	Log        *slog.Logger
	Hub        *loopback.Hub
	supervisor *workers.Supervisor
	done       chan struct{}
	clients    []*runtime.Engine
}

// SetupSuite loads the environment configuration and starts the transport
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.Log = logs.GetLoggerFromLevel(slog.LevelDebug)

	s.Hub = loopback.NewHub(s.Log, loopback.NewRegistry(), s.Config.HubBufferSize)
	s.supervisor = workers.NewSupervisor(s.Log, 10*time.Millisecond)
	s.done = make(chan struct{})
	go func() {
		s.supervisor.Add(s.Hub).Run(context.Background())
		close(s.done)
	}()
}

func (s *BaseSuite) TearDownSuite() {
	for _, c := range s.clients {
		c.Disconnect(context.Background())
	}
	s.supervisor.Stop()
	<-s.done
}

// Client builds an engine on its own storage and connects it as user.
func (s *BaseSuite) Client(user domain.User, kv contract.KeyValueStore) *runtime.Engine {
	if kv == nil {
		kv = storage.NewMemoryStore()
	}
	engine, err := runtime.NewEngine(s.Log.With("client", user.ID), s.transport(), kv, runtime.Options{
		TypingStopDelay: s.Config.TypingStopDelay,
		PublishTimeout:  time.Second,
	})
	s.Require().NoError(err)
	s.Require().NoError(engine.Connect(context.Background(), domain.Session{User: user}))
	s.clients = append(s.clients, engine)
	return engine
}

// Step prints a header then runs fn as a subtest.
func (s *BaseSuite) Step(name string, fn func()) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
	s.Run(name, fn)
}

// WaitFor waits for a delivery made by the hub loop.
func (s *BaseSuite) WaitFor(condition func() bool, msg string) {
	s.Require().Eventually(condition, s.Config.DeliveryTimeout, 5*time.Millisecond, msg)
}

func (s *BaseSuite) transport() contract.Transport {
	if !s.Config.DebugJSON {
		return s.Hub
	}
	return debugTransport{Transport: s.Hub, suite: s}
}

// debugTransport logs every broadcast handed to a client.
type debugTransport struct {
	contract.Transport
	suite *BaseSuite
}

func (d debugTransport) Subscribe(ctx context.Context, channel, key string, handler contract.InboundHandler) (contract.Subscription, error) {
	return d.Transport.Subscribe(ctx, channel, key, debugHandler{InboundHandler: handler, key: key, suite: d.suite})
}

type debugHandler struct {
	contract.InboundHandler
	key   string
	suite *BaseSuite
}

func (d debugHandler) HandleBroadcast(ctx context.Context, name string, payload []byte) {
	d.suite.T().Logf("%s <- %s %s", d.key, name, payload)
	d.InboundHandler.HandleBroadcast(ctx, name, payload)
}

func (d debugHandler) HandlePresenceSync(ctx context.Context, state event.PresenceState) {
	d.suite.T().Logf("%s <- presence %d keys", d.key, len(state))
	d.InboundHandler.HandlePresenceSync(ctx, state)
}
