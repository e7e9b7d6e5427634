package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/metrics"
)

const backendMemory = "memory"

// MemoryStore keeps everything in process. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles []model.Profile
	index    map[string]int
	matches  []model.MatchRecord
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(_ ...Option) *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

// SaveProfile implements ProfileStore.
func (s *MemoryStore) SaveProfile(_ context.Context, p model.Profile) error {
	defer observe(backendMemory, "save_profile", time.Now())
	if err := validateProfile(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	p = cloneProfile(p)
	if i, ok := s.index[p.ID]; ok {
		s.profiles[i] = p
		return nil
	}
	s.index[p.ID] = len(s.profiles)
	s.profiles = append(s.profiles, p)
	metrics.UpdateStoreRecords(string(p.Role), s.countLocked(p.Role))
	return nil
}

// FetchCandidates implements ProfileStore.
func (s *MemoryStore) FetchCandidates(_ context.Context) ([]model.Profile, error) {
	defer observe(backendMemory, "fetch_candidates", time.Now())
	return s.byRole(model.RoleCandidate)
}

// FetchSeekers implements ProfileStore.
func (s *MemoryStore) FetchSeekers(_ context.Context) ([]model.Profile, error) {
	defer observe(backendMemory, "fetch_seekers", time.Now())
	return s.byRole(model.RoleSeeker)
}

// FetchSeeker implements ProfileStore.
func (s *MemoryStore) FetchSeeker(_ context.Context, id string) (model.Profile, error) {
	defer observe(backendMemory, "fetch_seeker", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return model.Profile{}, ErrClosed
	}
	i, ok := s.index[id]
	if !ok || s.profiles[i].Role != model.RoleSeeker {
		return model.Profile{}, ErrNotFound
	}
	return cloneProfile(s.profiles[i]), nil
}

// Append implements MatchLog.
func (s *MemoryStore) Append(_ context.Context, rec model.MatchRecord) error {
	defer observe(backendMemory, "append_match", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.matches = append(s.matches, rec)
	metrics.UpdateStoreRecords("match", len(s.matches))
	return nil
}

// List implements MatchLog.
func (s *MemoryStore) List(_ context.Context) ([]model.MatchRecord, error) {
	defer observe(backendMemory, "list_matches", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.MatchRecord, len(s.matches))
	copy(out, s.matches)
	return out, nil
}

// Close marks the store closed. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) byRole(role model.Role) ([]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]model.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.Role == role {
			out = append(out, cloneProfile(p))
		}
	}
	return out, nil
}

func (s *MemoryStore) countLocked(role model.Role) int {
	n := 0
	for _, p := range s.profiles {
		if p.Role == role {
			n++
		}
	}
	return n
}
