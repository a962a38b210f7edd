package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGroups_Create_Twice(t *testing.T) {
	req := require.New(t)
	groups := NewGroupDirectory()
	now := time.Now()

	// Given a group with one member
	_, err := groups.Create("general", now)
	req.NoError(err)
	req.True(groups.Join("general", "s1"))

	// When the same name is created again
	_, err = groups.Create("general", now.Add(time.Minute))

	// Then it fails and the first group is untouched
	req.ErrorIs(err, errors.ErrGroupAlreadyExists)
	group, ok := groups.Get("general")
	req.True(ok)
	req.True(group.Members.Has("s1"))
	req.Equal(now, group.CreatedAt)
}

func TestGroups_Join_Leave(t *testing.T) {
	req := require.New(t)
	groups := NewGroupDirectory()
	_, _ = groups.Create("general", time.Now())

	req.False(groups.Join("missing", "s1"))
	req.True(groups.Join("general", "s1"))
	req.False(groups.Join("general", "s1"))
	req.True(groups.IsMember("general", "s1"))

	req.True(groups.Leave("general", "s1"))
	req.False(groups.Leave("general", "s1"))
	req.False(groups.Leave("missing", "s1"))
	req.False(groups.IsMember("general", "s1"))
}

func TestGroups_Names_In_Creation_Order(t *testing.T) {
	req := require.New(t)
	groups := NewGroupDirectory()
	now := time.Now()
	_, _ = groups.Create("zeta", now)
	_, _ = groups.Create("beta", now.Add(time.Second))
	_, _ = groups.Create("alpha", now.Add(time.Second))

	req.Equal([]string{"zeta", "alpha", "beta"}, groups.Names())
}

func TestGroups_Restore_Clears_Members(t *testing.T) {
	req := require.New(t)
	groups := NewGroupDirectory()
	createdAt := time.Now().Add(-time.Hour)

	groups.Restore(domain.Group{Name: "general", Members: domain.Set{"old-session": {}}, CreatedAt: createdAt})

	group, ok := groups.Get("general")
	req.True(ok)
	req.Empty(group.Members)
	req.Equal(createdAt, group.CreatedAt)
}

func TestGroups_Snapshot_Copies_Members(t *testing.T) {
	req := require.New(t)
	groups := NewGroupDirectory()
	_, _ = groups.Create("general", time.Now())
	groups.Join("general", "s1")

	snapshot := groups.Snapshot()
	groups.Join("general", "s2")

	req.Len(snapshot, 1)
	req.Len(snapshot[0].Members, 1)
}
