package workers

import (
	"chat-relay/domain/command"
	"chat-relay/mocks"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeQueue struct{}

func (fakeQueue) QueueLen() int { return 3 }
func (fakeQueue) QueueCap() int { return 10 }

func TestSweeperWorker_Dispatches_Sweep(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given the hub accepts the sweep commands
	swept := make(chan struct{}, 10)
	dispatcher.EXPECT().
		Dispatch(gomock.Any(), "", command.Sweep{}).
		DoAndReturn(func(context.Context, string, command.Command) error {
			swept <- struct{}{}
			return nil
		}).
		MinTimes(2)

	// When the worker runs for a few intervals
	done := make(chan error, 1)
	go func() { done <- NewSweeperWorker(log, dispatcher, 10*time.Millisecond).Run(ctx) }()
	<-swept
	<-swept
	cancel()

	// Then it stops with the context
	req.ErrorIs(<-done, context.Canceled)
}

func TestSnapshotWorker_Stops_On_Dispatch_Error(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	dispatcher := mocks.NewMockDispatcher(ctrl)

	// Given the hub queue refuses the snapshot
	dispatcher.EXPECT().
		Dispatch(gomock.Any(), "", command.Snapshot{}).
		Return(fmt.Errorf("queue closed"))

	// Then the worker returns the error for the supervisor to restart it
	err := NewSnapshotWorker(log, dispatcher, 10*time.Millisecond).Run(context.Background())
	req.EqualError(err, "queue closed")
}

func TestTelemetryWorker_Reports_Until_Canceled(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	monitoring := observability.NewMonitoringManager()
	monitoring.SetSessions(2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewTelemetryWorker(log, monitoring, fakeQueue{}, 10*time.Millisecond).Run(ctx)

	req.ErrorIs(err, context.DeadlineExceeded)
}
