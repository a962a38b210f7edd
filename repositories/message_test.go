package repositories

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Append_Multiple_Messages(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))
	group := "general"
	at := time.Now().UTC().Truncate(time.Millisecond)
	messages := []domain.Message{
		domain.NewMessage("hi", "Alice", at),
		domain.NewMessage("hello", "Bob", at.Add(1*time.Minute)),
		domain.JoinedNotice("Clara", at.Add(2*time.Minute)),
	}

	for _, m := range messages {
		req.NoError(repository.AppendMessage(ctx, group, m, at.Add(-24*time.Hour)))
	}

	fetched, err := repository.GetMessages(ctx, group, at.Add(-time.Hour))
	req.NoError(err)
	req.Equal(messages, fetched)
}

func Test_Append_Drops_Expired_Entries(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))
	group := "general"
	now := time.Now().UTC().Truncate(time.Millisecond)
	cutoff := now.Add(-24 * time.Hour)

	// Given one message exactly at the cutoff and one just after
	atCutoff := domain.NewMessage("old", "Alice", cutoff)
	justAfter := domain.NewMessage("recent", "Bob", cutoff.Add(time.Millisecond))
	req.NoError(repository.ReplaceLog(ctx, group, []domain.Message{atCutoff, justAfter}))

	// When a new message is appended
	fresh := domain.NewMessage("new", "Clara", now)
	req.NoError(repository.AppendMessage(ctx, group, fresh, cutoff))

	// Then the entry at the cutoff is gone from the persisted log
	fetched, err := repository.GetMessages(ctx, group, time.Unix(0, 0))
	req.NoError(err)
	req.Equal([]domain.Message{justAfter, fresh}, fetched)
}

func Test_Groups_Sharing_A_Prefix_Stay_Isolated(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))
	at := time.Now().UTC().Truncate(time.Millisecond)

	req.NoError(repository.AppendMessage(ctx, "a", domain.NewMessage("in a", "Alice", at), at.Add(-time.Hour)))
	req.NoError(repository.AppendMessage(ctx, "a:b", domain.NewMessage("in a:b", "Bob", at), at.Add(-time.Hour)))

	fetched, err := repository.GetMessages(ctx, "a", time.Unix(0, 0))
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("in a", fetched[0].Text)
}

func Test_ReplaceLog_Overwrites(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))
	at := time.Now().UTC().Truncate(time.Millisecond)

	req.NoError(repository.ReplaceLog(ctx, "general", []domain.Message{domain.NewMessage("first", "Alice", at)}))
	second := domain.NewMessage("second", "Bob", at.Add(time.Second))
	req.NoError(repository.ReplaceLog(ctx, "general", []domain.Message{second}))

	fetched, err := repository.GetMessages(ctx, "general", time.Unix(0, 0))
	req.NoError(err)
	req.Equal([]domain.Message{second}, fetched)
}

func Test_Same_Instant_Entries_Keep_Append_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t))
	at := time.Now().UTC().Truncate(time.Millisecond)

	// Given a join notice and a message appended at the same millisecond, in many groups
	for i := range 50 {
		group := fmt.Sprintf("group-%d", i)
		req.NoError(repository.AppendMessage(ctx, group, domain.JoinedNotice("alice", at), at.Add(-time.Hour)))
		req.NoError(repository.AppendMessage(ctx, group, domain.NewMessage("hi", "alice", at), at.Add(-time.Hour)))
	}

	// When each log is read back
	for i := range 50 {
		fetched, err := repository.GetMessages(ctx, fmt.Sprintf("group-%d", i), time.Unix(0, 0))

		// Then the append order is preserved
		req.NoError(err)
		req.Len(fetched, 2)
		req.Equal("alice joined the group", fetched[0].Text)
		req.Equal("hi", fetched[1].Text)
	}
}

func Test_Writes_Stop_On_Done_Context(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	messages := NewMessageRepository(db)
	devices := NewDeviceRepository(db)
	groups := NewGroupRepository(db)
	at := time.Now().UTC().Truncate(time.Millisecond)

	// Given a context already past its deadline
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	// When every repository is asked to write
	errAppend := messages.AppendMessage(ctx, "general", domain.NewMessage("hi", "alice", at), at.Add(-time.Hour))
	errReplace := messages.ReplaceLog(ctx, "general", []domain.Message{domain.NewMessage("hi", "alice", at)})
	errDevices := devices.SaveDevices(ctx, domain.Device{ID: "device-1", Username: "alice", RegisteredAt: at, LastSeen: at})
	errGroups := groups.SaveGroups(ctx, domain.Group{Name: "general", CreatedAt: at})

	// Then they fail with the context error and nothing is stored
	req.ErrorIs(errAppend, context.DeadlineExceeded)
	req.ErrorIs(errReplace, context.DeadlineExceeded)
	req.ErrorIs(errDevices, context.DeadlineExceeded)
	req.ErrorIs(errGroups, context.DeadlineExceeded)

	background := context.Background()
	fetched, err := messages.GetMessages(background, "general", time.Unix(0, 0))
	req.NoError(err)
	req.Empty(fetched)
	storedDevices, err := devices.GetDevices(background)
	req.NoError(err)
	req.Empty(storedDevices)
	storedGroups, err := groups.GetGroups(background)
	req.NoError(err)
	req.Empty(storedGroups)
}

func Test_Write_Canceled_Mid_Transaction_Is_Discarded(t *testing.T) {
	req := require.New(t)
	db := openDB(t)
	repository := NewDeviceRepository(db)
	at := time.Now().UTC().Truncate(time.Millisecond)

	// Given a write whose context ends while the transaction is open
	ctx, cancel := context.WithCancel(context.Background())
	err := update(ctx, db, func(txn *badger.Txn) error {
		bytes, err := marshal(fromDevice(domain.Device{ID: "device-1", Username: "alice", RegisteredAt: at, LastSeen: at}))
		req.NoError(err)
		req.NoError(txn.Set([]byte(devicePrefix+"device-1"), bytes))
		cancel()
		return nil
	})

	// Then the transaction is not committed
	req.ErrorIs(err, context.Canceled)
	devices, err := repository.GetDevices(context.Background())
	req.NoError(err)
	req.Empty(devices)
}
