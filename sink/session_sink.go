package sink

import (
	"chat-relay/domain/event"
	"chat-relay/errors"
	"context"
)

// SessionSink buffers the events addressed to one connection.
// The transport drains Events and writes them to the wire.
type SessionSink struct {
	Events chan event.Event
}

func NewSessionSink(bufferSize int) *SessionSink {
	return &SessionSink{Events: make(chan event.Event, bufferSize)}
}

// Consume is called by the hub during fan-out and never blocks:
// a slow receiver loses events instead of stalling the group.
func (s *SessionSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	select {
	case s.Events <- e:
		return nil
	default:
		return errors.ErrSinkFull
	}
}
