// Package ranking selects the best candidate for a seeker.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/internal/domain/scoring"
	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

// Default ranker configuration constants.
const (
	defaultConcurrency       = 1
	defaultParallelThreshold = 64
)

// Reasons a selection can be rejected. They double as metric outcomes.
const (
	ReasonEmptyPool = metrics.OutcomeEmptyPool
	ReasonZeroScore = metrics.OutcomeZeroScore
	ReasonNoContact = metrics.OutcomeNoContact
	ReasonAllFailed = metrics.OutcomeAllFailed
)

// Scored is a candidate with its score and position in the fetched pool.
type Scored struct {
	Candidate model.Profile
	Score     float64
	Index     int
}

// Skipped names a candidate excluded because scoring failed.
type Skipped struct {
	CandidateID string
	Err         error
}

// Selection is the outcome of SelectBest. A rejected selection has
// Matched false, a zero Candidate, Score 0 and a Reason.
type Selection struct {
	Candidate model.Profile
	Contact   string
	Score     float64
	Matched   bool
	Reason    string
	Skipped   []Skipped
}

// Ranker scores a seeker against a candidate pool and picks the winner.
type Ranker struct {
	scorer            scoring.Scorer
	logger            logger.Logger
	concurrency       int
	parallelThreshold int
}

// New creates a ranker over the given scorer.
func New(scorer scoring.Scorer, opts ...Option) *Ranker {
	r := &Ranker{
		scorer:            scorer,
		logger:            logger.Nop(),
		concurrency:       defaultConcurrency,
		parallelThreshold: defaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank scores every candidate and returns them by score descending.
// Equal scores keep pool order. Candidates whose scoring failed are
// reported separately and left out of the ranking. The only error is the
// cancellation of ctx, in which case nothing is ranked or counted.
func (r *Ranker) Rank(ctx context.Context, seeker model.Profile, pool []model.Profile) ([]Scored, []Skipped, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	results := make([]Scored, len(pool))
	errs := make([]error, len(pool))

	if r.concurrency > 1 && len(pool) >= r.parallelThreshold {
		g := new(errgroup.Group)
		g.SetLimit(r.concurrency)
		for i := range pool {
			g.Go(func() error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				results[i], errs[i] = r.scoreOne(ctx, seeker, pool[i], i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range pool {
			if ctx.Err() != nil {
				break
			}
			results[i], errs[i] = r.scoreOne(ctx, seeker, pool[i], i)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ranked := make([]Scored, 0, len(pool))
	var skipped []Skipped
	for i := range pool {
		if errs[i] != nil {
			skipped = append(skipped, Skipped{CandidateID: pool[i].ID, Err: errs[i]})
			metrics.RecordScoringFailure()
			r.logger.Warn(ctx, "candidate skipped",
				logger.String("seeker", seeker.ID),
				logger.String("candidate", pool[i].ID),
				logger.Error(errs[i]))
			continue
		}
		ranked = append(ranked, results[i])
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	metrics.RecordCandidatesScored(len(ranked))
	return ranked, skipped, nil
}

// SelectBest returns the top-ranked candidate when it is a usable match.
// An unusable result is a Selection with a Reason, not an error; only the
// cancellation of ctx is returned as one.
func (r *Ranker) SelectBest(ctx context.Context, seeker model.Profile, pool []model.Profile) (Selection, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankingLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	}()
	metrics.UpdateCandidatePool(len(pool))

	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	if len(pool) == 0 {
		return r.reject(ctx, seeker, ReasonEmptyPool, nil), nil
	}

	ranked, skipped, err := r.Rank(ctx, seeker, pool)
	if err != nil {
		return Selection{}, err
	}
	if len(ranked) == 0 {
		return r.reject(ctx, seeker, ReasonAllFailed, skipped), nil
	}

	best := ranked[0]
	if best.Score <= 0 {
		return r.reject(ctx, seeker, ReasonZeroScore, skipped), nil
	}
	contact, ok := best.Candidate.Contact()
	if !ok {
		return r.reject(ctx, seeker, ReasonNoContact, skipped), nil
	}

	metrics.RecordSelection(metrics.OutcomeMatched)
	metrics.RecordMatchScore(best.Score)
	r.logger.Debug(ctx, "candidate selected",
		logger.String("seeker", seeker.ID),
		logger.String("candidate", best.Candidate.ID),
		logger.Float64("score", best.Score))

	return Selection{
		Candidate: best.Candidate,
		Contact:   contact,
		Score:     best.Score,
		Matched:   true,
		Skipped:   skipped,
	}, nil
}

func (r *Ranker) reject(ctx context.Context, seeker model.Profile, reason string, skipped []Skipped) Selection {
	metrics.RecordSelection(reason)
	r.logger.Info(ctx, "no match",
		logger.String("seeker", seeker.ID),
		logger.String("reason", reason))
	return Selection{Reason: reason, Skipped: skipped}
}

func (r *Ranker) scoreOne(ctx context.Context, seeker, candidate model.Profile, idx int) (out Scored, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: candidate %s: panic: %v", ErrScoring, candidate.ID, p)
		}
	}()

	res, err := r.scorer.Evaluate(ctx, seeker, candidate)
	if err != nil {
		return Scored{}, fmt.Errorf("%w: candidate %s: %w", ErrScoring, candidate.ID, err)
	}
	return Scored{Candidate: candidate, Score: res.Score, Index: idx}, nil
}
