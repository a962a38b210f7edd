//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain/command"
	"chat-relay/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

// EventSink receives events addressed to one session.
// Consume must never block the caller for longer than ctx allows.
type EventSink interface {
	Consume(ctx context.Context, e event.Event) error
}

// Dispatcher queues commands on the serialized processing path.
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID string, cmd command.Command) error
}

// Gateway is the hub as seen from the service layer.
type Gateway interface {
	Dispatcher
	Open(ctx context.Context, sessionID string, sink EventSink) error
	// Close ends a session. It cannot fail, so a closed connection never leaves a session behind.
	Close(sessionID string)
}

// IRelayService is what the transport layer talks to.
type IRelayService interface {
	Connect(ctx context.Context, sink EventSink) (string, error)
	Disconnect(sessionID string)
	Handle(ctx context.Context, sessionID string, cmd command.Command) error
}
