package ranking

import "github.com/okian/playground/pkg/logger"

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithLogger sets a custom logger for the ranker.
func WithLogger(l logger.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l.Named("ranker")
		}
	}
}

// WithConcurrency bounds how many candidates are scored at once.
// Values below 2 keep scoring sequential.
func WithConcurrency(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithParallelThreshold sets the pool size from which scoring fans out.
func WithParallelThreshold(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.parallelThreshold = n
		}
	}
}
