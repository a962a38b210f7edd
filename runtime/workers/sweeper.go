package workers

import (
	"chat-relay/contract"
	"chat-relay/domain/command"
	"context"
	"log/slog"
	"time"
)

// SweeperWorker asks the hub to prune expired messages at a fixed interval.
// The hub snapshots the pruned state right after.
type SweeperWorker struct {
	log        *slog.Logger
	dispatcher contract.Dispatcher
	interval   time.Duration
}

func NewSweeperWorker(log *slog.Logger, dispatcher contract.Dispatcher, interval time.Duration) *SweeperWorker {
	return &SweeperWorker{log: log, dispatcher: dispatcher, interval: interval}
}

func (w *SweeperWorker) Run(ctx context.Context) error {
	return tick(ctx, w.interval, func() error {
		w.log.Debug("Retention sweep requested")
		return w.dispatcher.Dispatch(ctx, "", command.Sweep{})
	})
}

// tick calls fn every interval until ctx ends. An error from fn ends the loop
// so the supervisor can restart the worker.
func tick(ctx context.Context, interval time.Duration, fn func() error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := fn(); err != nil {
				return err
			}
		}
	}
}
