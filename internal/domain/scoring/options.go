package scoring

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights replaces the factor weights. Negative weights are treated as 0.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w.sanitized()
	}
}

// WithPrecision sets the number of decimals scores are rounded to.
func WithPrecision(decimals int) Option {
	return func(e *Engine) {
		if decimals >= 0 && decimals <= maxPrecision {
			e.precision = decimals
		}
	}
}
