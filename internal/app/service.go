// Package service wires the matching engine to storage and notifications
// and exposes the operations the HTTP API and CLI call.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	notifyqueue "github.com/okian/playground/internal/adapters/mq/queue"
	workerpool "github.com/okian/playground/internal/adapters/mq/worker"
	"github.com/okian/playground/internal/adapters/notify"
	"github.com/okian/playground/internal/adapters/repository"
	"github.com/okian/playground/internal/domain/ranking"
	"github.com/okian/playground/internal/domain/recorder"
	"github.com/okian/playground/internal/domain/scoring"
	"github.com/okian/playground/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueSize       = 1_000
	defaultWorkerCount     = 2
	defaultRateLimit       = 2.0
	defaultMaxRankingLimit = 100
	defaultRankingLimit    = 10
	stopTimeout            = 30 * time.Second
)

// Service implements the API dependencies for the matching system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	engine     *scoring.Engine
	ranker     *ranking.Ranker
	recorder   *recorder.Recorder
	dispatcher notify.Dispatcher
	queue      *notifyqueue.InMemoryQueue
	pool       *workerpool.Pool

	// Configuration
	storeDriver            string
	storePath              string
	weights                scoring.Weights
	precision              int
	rankerConcurrency      int
	maxRankingLimit        int
	notifyEnabled          bool
	notifyOnPersistFailure bool
	queueSize              int
	workerCount            int
	ratePerSecond          float64
	now                    func() time.Time
	newID                  func() string

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore uses an already opened store. The service closes it on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreDriver selects the backend opened by Start when no store was given.
func WithStoreDriver(driver, path string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
			s.storePath = path
		}
	}
}

// WithWeights sets the scoring factor weights.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithScorePrecision sets the number of decimals scores are rounded to.
func WithScorePrecision(decimals int) Option {
	return func(s *Service) {
		if decimals >= 0 {
			s.precision = decimals
		}
	}
}

// WithRankerConcurrency bounds parallel candidate scoring.
func WithRankerConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rankerConcurrency = n
		}
	}
}

// WithMaxRankingLimit caps ranking previews.
func WithMaxRankingLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRankingLimit = n
		}
	}
}

// WithDispatcher sets the notification dispatcher.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithNotifications turns notification delivery on or off.
func WithNotifications(enabled bool) Option {
	return func(s *Service) {
		s.notifyEnabled = enabled
	}
}

// WithNotifyOnPersistFailure decides whether match mails go out when the
// match record could not be stored.
func WithNotifyOnPersistFailure(enabled bool) Option {
	return func(s *Service) {
		s.notifyOnPersistFailure = enabled
	}
}

// WithQueueSize sets the maximum number of pending notifications.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of delivery workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithNotifyRate caps deliveries per second; 0 disables the cap.
func WithNotifyRate(perSecond float64) Option {
	return func(s *Service) {
		if perSecond >= 0 {
			s.ratePerSecond = perSecond
		}
	}
}

// WithClock overrides the time source for profiles and match records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides profile and record ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver:            repository.DriverMemory,
		weights:                scoring.DefaultWeights(),
		precision:              4,
		rankerConcurrency:      runtime.NumCPU(),
		maxRankingLimit:        defaultMaxRankingLimit,
		notifyEnabled:          true,
		notifyOnPersistFailure: true,
		queueSize:              defaultQueueSize,
		workerCount:            defaultWorkerCount,
		ratePerSecond:          defaultRateLimit,
		now:                    time.Now,
		newID:                  uuid.NewString,
		logger:                 logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting matching service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeDriver, s.storePath, repository.WithLogger(s.logger))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}

	s.engine = scoring.NewEngine(
		scoring.WithWeights(s.weights),
		scoring.WithPrecision(s.precision),
	)
	s.ranker = ranking.New(s.engine,
		ranking.WithConcurrency(s.rankerConcurrency),
		ranking.WithLogger(s.logger),
	)
	s.recorder = recorder.New(s.store,
		recorder.WithClock(s.now),
		recorder.WithIDGenerator(s.newID),
		recorder.WithLogger(s.logger),
	)

	if s.notifyEnabled {
		if s.dispatcher == nil {
			d, err := notify.NewMailDispatcher(notify.NewLogMailer(s.logger), notify.WithDispatcherLogger(s.logger))
			if err != nil {
				return fmt.Errorf("build dispatcher: %w", err)
			}
			s.dispatcher = d
		}
		// Workers outlive the Start call; they stop through Stop.
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.cancel = cancel
		s.queue = notifyqueue.NewInMemoryQueue(notifyqueue.WithCapacity(s.queueSize))
		s.pool = workerpool.NewPool(s.workerCount, s.queue, s.dispatcher,
			workerpool.WithRate(s.ratePerSecond),
			workerpool.WithPoolLogger(s.logger),
		)
		s.pool.Start(runCtx)
	}

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.String("store", s.storeDriver),
		logger.Bool("notifications", s.notifyEnabled),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop drains pending notifications and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping matching service...")

	if s.pool != nil {
		stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
		if err := s.pool.Shutdown(stopCtx); err != nil {
			s.logger.Warn(ctx, "notification drain incomplete", logger.Error(err))
		}
		cancel()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "failed to close store", logger.Error(err))
	}

	s.store = nil
	s.pool = nil
	s.queue = nil
	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}
