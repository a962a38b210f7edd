package runtime

import (
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job writes a copy of in-memory state to storage.
type Job func(ctx context.Context) error

type task struct {
	job      Job
	coalesce bool
}

// Persister runs storage jobs in the background with at most one job in flight per key.
// Jobs for the same key run in submission order; jobs for different keys run concurrently.
type Persister struct {
	mu         sync.Mutex
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	timeout    time.Duration
	queues     map[string][]task
	running    map[string]bool
	wg         sync.WaitGroup
}

func NewPersister(log *slog.Logger, monitoring *observability.MonitoringManager, timeout time.Duration) *Persister {
	return &Persister{
		log:        log,
		monitoring: monitoring,
		timeout:    timeout,
		queues:     make(map[string][]task),
		running:    make(map[string]bool),
	}
}

// Submit queues job behind any job already pending for key.
func (p *Persister) Submit(key string, job Job) {
	p.enqueue(key, task{job: job})
}

// SubmitLatest queues job for key, replacing a pending job submitted the same way.
// A snapshot superseded by a newer one is never written.
func (p *Persister) SubmitLatest(key string, job Job) {
	p.enqueue(key, task{job: job, coalesce: true})
}

func (p *Persister) enqueue(key string, t task) {
	p.mu.Lock()
	defer p.mu.Unlock()

	queue := p.queues[key]
	if t.coalesce && len(queue) > 0 && queue[len(queue)-1].coalesce {
		queue[len(queue)-1] = t
	} else {
		p.queues[key] = append(queue, t)
	}
	if p.running[key] {
		return
	}
	p.running[key] = true
	p.wg.Add(1)
	go p.drain(key)
}

func (p *Persister) drain(key string) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		queue := p.queues[key]
		if len(queue) == 0 {
			delete(p.queues, key)
			delete(p.running, key)
			p.mu.Unlock()
			return
		}
		next := queue[0]
		p.queues[key] = queue[1:]
		p.mu.Unlock()

		p.run(key, next.job)
	}
}

func (p *Persister) run(key string, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := job(ctx); err != nil {
		p.monitoring.IncrPersistenceFailures()
		p.log.Error("Persistence job failed", "key", key, "error", fmt.Errorf("%w: %v", errors.ErrPersistence, err))
	}
}

// Wait blocks until every queued job has run.
func (p *Persister) Wait() {
	p.wg.Wait()
}
