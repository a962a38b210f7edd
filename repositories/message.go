//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	AppendMessage(ctx context.Context, group string, message domain.Message, cutoff time.Time) error
	ReplaceLog(ctx context.Context, group string, messages []domain.Message) error
	GetMessages(ctx context.Context, group string, since time.Time) ([]domain.Message, error)
}

type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) MessageRepository {
	return MessageRepository{db: db}
}

type DiskMessage struct {
	ID        string `cbor:"id"`
	Text      string `cbor:"text"`
	Username  string `cbor:"username"`
	Timestamp int64  `cbor:"timestamp"`
	System    bool   `cbor:"system"`
}

// messagePrefix is "msg:{hex(group)}:". The group name is hex encoded so that a
// name containing ':' can never be a prefix of another group's keys.
func messagePrefix(group string) string {
	return fmt.Sprintf("msg:%s:", hex.EncodeToString([]byte(group)))
}

// messageKey is formatted as "msg:{hex(group)}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Keep entries sharing a timestamp in append order: message IDs are
//     time-ordered UUIDs (v7), so their text form sorts like creation order.
func messageKey(group string, message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix(group), message.Timestamp.UnixNano(), message.ID))
}

func paddedTime(t time.Time) string {
	return fmt.Sprintf("%019d", t.UnixNano())
}

// AppendMessage reloads the persisted log of the group inside one transaction,
// drops every entry at or before cutoff, then writes the new entry.
func (m MessageRepository) AppendMessage(ctx context.Context, group string, message domain.Message, cutoff time.Time) error {
	bytes, err := marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return update(ctx, m.db, func(txn *badger.Txn) error {
		expired, err := expiredKeys(txn, group, cutoff)
		if err != nil {
			return err
		}
		for _, key := range expired {
			if err = txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Set(messageKey(group, message), bytes)
	})
}

// ReplaceLog overwrites the persisted log of the group with messages.
func (m MessageRepository) ReplaceLog(ctx context.Context, group string, messages []domain.Message) error {
	return update(ctx, m.db, func(txn *badger.Txn) error {
		var existing [][]byte
		err := scanPrefix(ctx, txn, []byte(messagePrefix(group)), func(key, _ []byte) error {
			existing = append(existing, key)
			return nil
		})
		if err != nil {
			return err
		}
		for _, key := range existing {
			if err = txn.Delete(key); err != nil {
				return err
			}
		}
		for _, message := range messages {
			if err := ctx.Err(); err != nil {
				return err
			}
			bytes, err := marshal(fromMessage(message))
			if err != nil {
				return err
			}
			if err = txn.Set(messageKey(group, message), bytes); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetMessages returns the messages of the group strictly newer than since,
// oldest first. Thanks to the padded timestamp and the time-ordered ID in the
// key, a prefix scan is already in append order.
func (m MessageRepository) GetMessages(ctx context.Context, group string, since time.Time) ([]domain.Message, error) {
	var diskMessages []DiskMessage
	prefix := messagePrefix(group)
	sinceStr := paddedTime(since)
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		return scanPrefix(ctx, txn, []byte(prefix), func(key, value []byte) error {
			if string(key[len(prefix):len(prefix)+19]) <= sinceStr {
				return nil
			}
			var disk DiskMessage
			if err := unmarshal(value, &disk); err != nil {
				return err
			}
			diskMessages = append(diskMessages, disk)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(diskMessages))
	for _, disk := range diskMessages {
		message, err := toMessage(disk)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func expiredKeys(txn *badger.Txn, group string, cutoff time.Time) ([][]byte, error) {
	prefix := []byte(messagePrefix(group))
	cutoffStr := paddedTime(cutoff)
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		key := it.Item().KeyCopy(nil)
		if string(key[len(prefix):len(prefix)+19]) > cutoffStr {
			break
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:        message.ID.String(),
		Text:      message.Text,
		Username:  message.Username,
		Timestamp: message.Timestamp.UnixMilli(),
		System:    message.System,
	}
}

func toMessage(disk DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Text:      disk.Text,
		Username:  disk.Username,
		Timestamp: time.UnixMilli(disk.Timestamp).UTC(),
		System:    disk.System,
	}, nil
}
