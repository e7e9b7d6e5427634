package repository

import (
	"time"

	"github.com/okian/playground/pkg/logger"
)

// config holds settings shared by every backend.
type config struct {
	busyTimeout time.Duration
	openTimeout time.Duration
	logger      logger.Logger
}

func defaultConfig() config {
	return config{
		busyTimeout: 5 * time.Second,
		openTimeout: 5 * time.Second,
		logger:      logger.Nop(),
	}
}

// Option applies a configuration option to a store.
type Option func(*config)

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.busyTimeout = d
		}
	}
}

// WithOpenTimeout bounds how long opening a file-backed store may block.
func WithOpenTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.openTimeout = d
		}
	}
}

// WithLogger sets the logger used to report rows that cannot be decoded.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l.Named("store")
		}
	}
}
