//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-sync/domain"
	"chat-sync/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself, the supervisor restarts it on panic.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker lifecycle events.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink consumes the inbound events fanned out by the channel adapter.
type EventSink interface {
	Consume(ctx context.Context, e event.InboundEvent) error
}

// InboundHandler receives what the transport delivers on a subscription.
type InboundHandler interface {
	HandleBroadcast(ctx context.Context, name string, payload []byte)
	HandlePresenceSync(ctx context.Context, state event.PresenceState)
}

// Transport is the external pub/sub and presence service.
// Subscribe returns once the subscription is acknowledged.
type Transport interface {
	Subscribe(ctx context.Context, channel, presenceKey string, handler InboundHandler) (Subscription, error)
}

type Subscription interface {
	Track(ctx context.Context, presence event.PresencePayload) error
	Send(ctx context.Context, name string, payload []byte) error
	Unsubscribe(ctx context.Context) error
}

// Channel is the outbound side of the live subscription used by the services.
type Channel interface {
	Publish(ctx context.Context, name string, payload any) error
	Session() (domain.Session, bool)
}

// KeyValueStore is the persistence medium. Get returns errors.ErrNotFound for a missing key.
type KeyValueStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

type IDGenerator interface {
	NewID() string
}
