package workers

import (
	"chat-relay/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// QueueReader exposes the depth of a bounded queue.
type QueueReader interface {
	QueueLen() int
	QueueCap() int
}

// TelemetryWorker logs process health and relay counters every metricInterval.
type TelemetryWorker struct {
	log            *slog.Logger
	monitoring     *observability.MonitoringManager
	queue          QueueReader
	metricInterval time.Duration
}

func NewTelemetryWorker(
	log *slog.Logger,
	monitoring *observability.MonitoringManager,
	queue QueueReader,
	metricInterval time.Duration,
) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		monitoring:     monitoring,
		queue:          queue,
		metricInterval: metricInterval,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	return tick(ctx, w.metricInterval, func() error {
		w.report(p)
		return nil
	})
}

func (w *TelemetryWorker) report(p *process.Process) {
	stats := w.monitoring.GetLatest()
	attrs := []any{
		"sessions", stats.Sessions,
		"groups", stats.Groups,
		"messages_relayed", stats.MessagesRelayed,
		"deliveries_dropped", stats.DeliveriesDropped,
		"messages_pruned", stats.MessagesPruned,
		"persistence_failures", stats.PersistenceFailures,
		"unauthorized_dropped", stats.UnauthorizedDropped,
		"alloc_mem_mb", stats.AllocMemMb,
		"num_gc", stats.NumGC,
		"queue_len", w.queue.QueueLen(),
		"queue_cap", w.queue.QueueCap(),
	}
	rss, cpu, status, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "error", err)
	} else {
		attrs = append(attrs, "rss_bytes", rss, "cpu_percent", cpu, "status", status)
	}
	w.log.Info("Relay telemetry", attrs...)
}

// selfStats retrieves memory, CPU and OS status of the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
