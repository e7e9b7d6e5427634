package worker

import (
	"golang.org/x/time/rate"

	"github.com/okian/playground/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithLimiter throttles deliveries. Workers of one pool share a limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(w *InMemoryWorker) {
		w.limiter = l
	}
}

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithRate caps deliveries per second across the pool. Zero disables the cap.
func WithRate(perSecond float64) PoolOption {
	return func(p *Pool) {
		if perSecond > 0 {
			p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithPoolLogger sets a custom logger for the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
