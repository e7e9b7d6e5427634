package ranking

import "errors"

// ErrScoring wraps a failure to score one candidate. The candidate is skipped.
var ErrScoring = errors.New("scoring failed")
