package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSession_DisplayName_Needs_A_Bound_Device(t *testing.T) {
	req := require.New(t)

	// Given a session carrying a name but no device
	session := Session{ID: "s1", Username: "alice"}

	// Then it is not authenticated and shows as anonymous
	req.False(session.Authenticated())
	req.Equal("anonymous", session.DisplayName())

	// When a device is bound
	session.DeviceID = "device-1"

	// Then the username is shown
	req.True(session.Authenticated())
	req.Equal("alice", session.DisplayName())
}
