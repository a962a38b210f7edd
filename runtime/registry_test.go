package runtime

import (
	"chat-relay/domain/event"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Sink struct {
}

func (s Sink) Consume(ctx context.Context, e event.Event) error {
	return nil
}

func TestRegistry_Open_Anonymous_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 0)
	sessionID := uuid.NewString()

	// Given no session is open
	req.Zero(registry.Len())

	// When a connection opens
	req.True(registry.Open(sessionID, Sink{}, time.Now()))

	// Then the session exists without identity
	session, ok := registry.Get(sessionID)
	req.True(ok)
	req.False(session.Authenticated())
	req.Equal("anonymous", session.DisplayName())
	req.Empty(session.Groups)
	req.Equal(1, registry.Len())
}

func TestRegistry_Open_Same_Handle_Twice(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 0)
	sessionID := uuid.NewString()

	req.True(registry.Open(sessionID, Sink{}, time.Now()))
	req.False(registry.Open(sessionID, Sink{}, time.Now()))
	req.Equal(1, registry.Len())
}

func TestRegistry_Close_Returns_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 0)
	sessionID := uuid.NewString()
	registry.Open(sessionID, Sink{}, time.Now())
	session, _ := registry.Get(sessionID)
	session.Groups.Add("general")

	// When the session is closed
	closed, ok := registry.Close(sessionID)

	// Then its memberships are handed back and it is gone
	req.True(ok)
	req.True(closed.Groups.Has("general"))
	_, ok = registry.Get(sessionID)
	req.False(ok)

	_, ok = registry.Close(sessionID)
	req.False(ok)
}

func TestRegistry_Count_Sessions_Per_Device(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 0)
	now := time.Now()
	first, second, other := uuid.NewString(), uuid.NewString(), uuid.NewString()
	for _, id := range []string{first, second, other} {
		registry.Open(id, Sink{}, now)
	}

	registry.Bind(first, "device-1", "alice", now)
	registry.Bind(second, "device-1", "alice", now)
	registry.Bind(other, "device-2", "bob", now)

	req.Equal(2, registry.CountForDevice("device-1", ""))
	req.Equal(1, registry.CountForDevice("device-1", first))
	req.Equal(1, registry.CountForDevice("device-2", ""))
}

func TestRegistry_Sinks_Skip_Closed_Sessions(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 0)
	open, closed := uuid.NewString(), uuid.NewString()
	registry.Open(open, Sink{}, time.Now())

	sinks := registry.SinksFor(map[string]struct{}{open: {}, closed: {}})

	req.Len(sinks, 1)
	req.Contains(sinks, open)
	req.Len(registry.AllSinks(), 1)
}

func TestRegistry_Rate_Limit(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(1, 2)
	sessionID := uuid.NewString()
	now := time.Now()
	registry.Open(sessionID, Sink{}, now)

	// Given a burst of two
	req.True(registry.Allow(sessionID, now))
	req.True(registry.Allow(sessionID, now))

	// Then the third send at the same instant is refused
	req.False(registry.Allow(sessionID, now))

	// And a token is back one second later
	req.True(registry.Allow(sessionID, now.Add(time.Second)))
}

func TestRegistry_Rate_Limit_Disabled(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(0, 0)
	sessionID := uuid.NewString()
	now := time.Now()
	registry.Open(sessionID, Sink{}, now)

	for range 100 {
		req.True(registry.Allow(sessionID, now))
	}
}
