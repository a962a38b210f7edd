package repositories

import (
	"chat-relay/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Save_And_Get_Devices(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewDeviceRepository(openDB(t))
	at := time.Now().UTC().Truncate(time.Millisecond)
	alice := domain.Device{
		ID:           "device-1",
		Username:     "alice",
		Fingerprint:  "abc",
		Info:         domain.DeviceInfo{Platform: "MacIntel", ScreenResolution: "1440x900", Language: "en-US"},
		RegisteredAt: at,
		LastSeen:     at.Add(time.Minute),
	}
	bob := domain.Device{ID: "device-2", Username: "bob", RegisteredAt: at, LastSeen: at}

	req.NoError(repository.SaveDevices(ctx, alice, bob))

	devices, err := repository.GetDevices(ctx)
	req.NoError(err)
	req.ElementsMatch([]domain.Device{alice, bob}, devices)
}

func Test_Save_Device_Twice_Upserts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewDeviceRepository(openDB(t))
	at := time.Now().UTC().Truncate(time.Millisecond)
	device := domain.Device{ID: "device-1", Username: "alice", RegisteredAt: at, LastSeen: at}

	req.NoError(repository.SaveDevices(ctx, device))
	device.LastSeen = at.Add(time.Hour)
	req.NoError(repository.SaveDevices(ctx, device))

	devices, err := repository.GetDevices(ctx)
	req.NoError(err)
	req.Len(devices, 1)
	req.Equal(device.LastSeen, devices[0].LastSeen)
}

func Test_Save_And_Get_Groups(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewGroupRepository(openDB(t))
	at := time.Now().UTC().Truncate(time.Millisecond)
	general := domain.NewGroup("general", at)
	general.Members.Add("session-1")
	random := domain.NewGroup("random", at.Add(time.Second))

	req.NoError(repository.SaveGroups(ctx, *general, *random))

	groups, err := repository.GetGroups(ctx)
	req.NoError(err)
	req.Len(groups, 2)
	req.Equal("general", groups[0].Name)
	req.True(groups[0].Members.Has("session-1"))
	req.Equal(at, groups[0].CreatedAt)
	req.Empty(groups[1].Members)
}
