// Package worker delivers queued notifications.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/playground/internal/adapters/mq/queue"
	"github.com/okian/playground/internal/adapters/notify"
	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
	workerStopTimeout   = 5 * time.Second
)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker delivers jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over a Queue and a Dispatcher.
type InMemoryWorker struct {
	queue      Queue
	dispatcher notify.Dispatcher
	limiter    *rate.Limiter
	name       string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, d notify.Dispatcher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		dispatcher: d,
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Warn(ctx, "notification not delivered",
					logger.String("job", j.ID),
					logger.String("kind", string(j.Kind)),
					logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			metrics.RecordNotification(string(j.Kind), "dropped")
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if err := notify.Deliver(ctx, w.dispatcher, j); err != nil {
		metrics.RecordNotification(string(j.Kind), "failed")
		metrics.RecordErrorByComponent("worker", "delivery")
		return err
	}
	metrics.RecordNotification(string(j.Kind), "sent")
	return nil
}

// Pool manages multiple workers sharing one queue and one rate limit.
type Pool struct {
	workers []*InMemoryWorker
	queue   queue.Queue
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q queue.Queue, d notify.Dispatcher, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range workerCount {
		p.workers[i] = NewInMemoryWorker(q, d,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
			WithLimiter(p.limiter),
		)
	}
	p.logger = p.logger.Named("worker-pool")

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, lets workers drain what is left, and stops
// any worker still busy when ctx or the pool timeout expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			stopCtx, stop := context.WithTimeout(context.Background(), workerStopTimeout)
			_ = w.Shutdown(stopCtx)
			stop()
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("pool shutdown: %w", drainCtx.Err())
	}
	return nil
}
