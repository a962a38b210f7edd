package runtime

import (
	"chat-relay/domain"
	"slices"
	"time"

	"github.com/samber/lo"
)

// MessageStore keeps one time-windowed log per group, oldest first.
type MessageStore struct {
	logs      map[string][]domain.Message
	retention time.Duration
}

func NewMessageStore(retention time.Duration) *MessageStore {
	return &MessageStore{logs: make(map[string][]domain.Message), retention: retention}
}

// Cutoff is the newest instant a message may carry and still be dropped.
func (s *MessageStore) Cutoff(now time.Time) time.Time {
	return now.Add(-s.retention)
}

// retained keeps a message only if it is strictly newer than the cutoff.
func (s *MessageStore) retained(messages []domain.Message, now time.Time) []domain.Message {
	cutoff := s.Cutoff(now)
	return lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.Timestamp.After(cutoff)
	})
}

func (s *MessageStore) Create(group string) {
	if _, ok := s.logs[group]; !ok {
		s.logs[group] = nil
	}
}

// Append filters the group log by the retention window, then appends the message.
func (s *MessageStore) Append(group string, message domain.Message, now time.Time) {
	s.logs[group] = append(s.retained(s.logs[group], now), message)
}

// Window returns a copy of the retained messages of the group.
func (s *MessageStore) Window(group string, now time.Time) []domain.Message {
	return s.retained(s.logs[group], now)
}

// Sweep prunes every log and returns how many messages were dropped.
func (s *MessageStore) Sweep(now time.Time) int {
	pruned := 0
	for group, messages := range s.logs {
		kept := s.retained(messages, now)
		pruned += len(messages) - len(kept)
		s.logs[group] = kept
	}
	return pruned
}

// Restore loads a persisted log, used at start-up only.
func (s *MessageStore) Restore(group string, messages []domain.Message, now time.Time) {
	kept := s.retained(messages, now)
	slices.SortFunc(kept, domain.Compare)
	s.logs[group] = kept
}

func (s *MessageStore) Snapshot() map[string][]domain.Message {
	return lo.MapValues(s.logs, func(messages []domain.Message, _ string) []domain.Message {
		return slices.Clone(messages)
	})
}
