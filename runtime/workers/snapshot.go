package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/command"
	"context"
	"log/slog"
	"time"
)

// SnapshotWorker periodically asks the hub to persist devices, groups and logs as a whole.
type SnapshotWorker struct {
	log        *slog.Logger
	dispatcher contract.Dispatcher
	interval   time.Duration
}

func NewSnapshotWorker(log *slog.Logger, dispatcher contract.Dispatcher, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{log: log, dispatcher: dispatcher, interval: interval}
}

func (w *SnapshotWorker) Run(ctx context.Context) error {
	return tick(ctx, w.interval, func() error {
		w.log.Debug("Snapshot requested")
		return w.dispatcher.Dispatch(ctx, "", command.Snapshot{})
	})
}
