// Package recorder owns the append-only match log.
package recorder

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

// Log is the durable backing of the match log. List must return records in
// insertion order.
type Log interface {
	Append(ctx context.Context, rec model.MatchRecord) error
	List(ctx context.Context) ([]model.MatchRecord, error)
}

// Recorder writes match records and lists them newest first.
// No update or delete is exposed.
type Recorder struct {
	log    Log
	now    func() time.Time
	newID  func() string
	logger logger.Logger

	mu sync.Mutex
}

// New creates a recorder over log.
func New(log Log, opts ...Option) *Recorder {
	r := &Recorder{
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one match. On ErrPersistence the returned record is still
// populated so callers can proceed with notifications.
func (r *Recorder) Record(ctx context.Context, seekerEmail, candidateEmail string, score float64) (model.MatchRecord, error) {
	seekerEmail = strings.TrimSpace(seekerEmail)
	candidateEmail = strings.TrimSpace(candidateEmail)
	if seekerEmail == "" || candidateEmail == "" {
		return model.MatchRecord{}, fmt.Errorf("%w: both parties are required", ErrInvalidRecord)
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return model.MatchRecord{}, fmt.Errorf("%w: score %v out of range", ErrInvalidRecord, score)
	}

	// Clock read and append share the lock so insertion order never
	// contradicts CreatedAt.
	r.mu.Lock()
	rec := model.MatchRecord{
		ID:             r.newID(),
		SeekerEmail:    seekerEmail,
		CandidateEmail: candidateEmail,
		Score:          score,
		CreatedAt:      r.now().UTC(),
	}
	err := r.log.Append(ctx, rec)
	r.mu.Unlock()

	if err != nil {
		metrics.RecordPersistenceError("match")
		r.logger.Error(ctx, "failed to persist match",
			logger.Email("seeker", seekerEmail),
			logger.Email("candidate", candidateEmail),
			logger.Error(err))
		return rec, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.RecordMatchRecorded()
	r.logger.Info(ctx, "match recorded",
		logger.String("id", rec.ID),
		logger.Email("seeker", seekerEmail),
		logger.Email("candidate", candidateEmail),
		logger.Float64("score", score))
	return rec, nil
}

// List returns every record, most recent first. Equal timestamps keep
// insertion order.
func (r *Recorder) List(ctx context.Context) ([]model.MatchRecord, error) {
	recs, err := r.log.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	return recs, nil
}
