package services

import (
	"chat-relay/contract"
	"chat-relay/domain/command"
	"chat-relay/errors"
	"context"
	"fmt"

	"github.com/google/uuid"
)

type RelayService struct {
	gateway contract.Gateway
}

func NewRelayService(gateway contract.Gateway) *RelayService {
	return &RelayService{gateway: gateway}
}

// Connect allocates a session handle and queues its opening on the hub.
// The handle is the first event delivered to sink.
func (s *RelayService) Connect(ctx context.Context, sink contract.EventSink) (string, error) {
	sessionID := uuid.NewString()
	if err := s.gateway.Open(ctx, sessionID, sink); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Disconnect ends the session even when the hub is busy.
func (s *RelayService) Disconnect(sessionID string) {
	s.gateway.Close(sessionID)
}

// Handle forwards a client command. Lifecycle and maintenance commands are
// reserved to the transport and the workers.
func (s *RelayService) Handle(ctx context.Context, sessionID string, cmd command.Command) error {
	switch cmd.(type) {
	case command.Connect, command.Disconnect, command.Sweep, command.Snapshot, nil:
		return fmt.Errorf("%w: command not accepted from clients", errors.ErrValidation)
	}
	return s.gateway.Dispatch(ctx, sessionID, cmd)
}
