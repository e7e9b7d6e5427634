package service

import (
	"context"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/internal/domain/types"
	"github.com/okian/playground/pkg/logger"
)

// PreviewMatch ranks every candidate for a stored seeker without recording
// anything. limit <= 0 selects the default; larger values are capped.
func (s *Service) PreviewMatch(ctx context.Context, seekerID string, limit int) ([]types.Entry, error) {
	release, ok := s.acquire()
	if !ok {
		return nil, ErrNotStarted
	}
	defer release()

	seeker, err := s.store.FetchSeeker(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	pool, err := s.store.FetchCandidates(ctx)
	if err != nil {
		return nil, err
	}

	ranked, skipped, err := s.ranker.Rank(ctx, seeker, pool)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		s.logger.Debug(ctx, "preview skipped candidates", logger.Int("skipped", len(skipped)))
	}

	if limit <= 0 {
		limit = defaultRankingLimit
	}
	limit = min(limit, s.maxRankingLimit, len(ranked))

	entries := make([]types.Entry, limit)
	for i := range limit {
		entries[i] = types.NewEntry(i+1, ranked[i].Candidate, ranked[i].Score)
	}
	return entries, nil
}

// Matches returns the match log, most recent first.
func (s *Service) Matches(ctx context.Context) ([]model.MatchRecord, error) {
	release, ok := s.acquire()
	if !ok {
		return nil, ErrNotStarted
	}
	defer release()
	return s.recorder.List(ctx)
}

// Candidates returns every stored candidate in submission order.
func (s *Service) Candidates(ctx context.Context) ([]model.Profile, error) {
	release, ok := s.acquire()
	if !ok {
		return nil, ErrNotStarted
	}
	defer release()
	return s.store.FetchCandidates(ctx)
}

// Seekers returns every stored seeker in submission order.
func (s *Service) Seekers(ctx context.Context) ([]model.Profile, error) {
	release, ok := s.acquire()
	if !ok {
		return nil, ErrNotStarted
	}
	defer release()
	return s.store.FetchSeekers(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"storeDriver":   s.storeDriver,
		"notifications": s.notifyEnabled,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
	}
	if !s.started {
		return stats
	}

	if s.queue != nil {
		stats["queueLength"] = s.queue.Len()
	}
	if c, err := s.store.FetchCandidates(ctx); err == nil {
		stats["candidates"] = len(c)
	}
	if sk, err := s.store.FetchSeekers(ctx); err == nil {
		stats["seekers"] = len(sk)
	}
	if m, err := s.store.List(ctx); err == nil {
		stats["matches"] = len(m)
	}
	return stats
}
