// Package repository persists profiles and the match log.
package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/metrics"
)

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// ProfileStore provides read/write access to seekers and candidates.
// Fetches return profiles in insertion order so rankings are reproducible.
type ProfileStore interface {
	// SaveProfile inserts p, or replaces the stored profile with the same ID
	// while keeping its original position.
	SaveProfile(ctx context.Context, p model.Profile) error
	// FetchCandidates returns every candidate.
	FetchCandidates(ctx context.Context) ([]model.Profile, error)
	// FetchSeeker returns one seeker. Returns ErrNotFound if unknown.
	FetchSeeker(ctx context.Context, id string) (model.Profile, error)
	// FetchSeekers returns every seeker.
	FetchSeekers(ctx context.Context) ([]model.Profile, error)
}

// MatchLog is the append-only storage behind the match recorder.
type MatchLog interface {
	Append(ctx context.Context, rec model.MatchRecord) error
	// List returns records in insertion order.
	List(ctx context.Context) ([]model.MatchRecord, error)
}

// Store bundles both collaborators behind one backend.
type Store interface {
	ProfileStore
	MatchLog
	Close() error
}

// Open returns the Store for driver. path is ignored by the memory driver.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, path, opts...)
	case DriverBolt:
		return NewBoltStore(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func validateProfile(p model.Profile) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProfile)
	}
	if !p.Role.Valid() {
		return fmt.Errorf("%w: role %q", ErrInvalidProfile, p.Role)
	}
	return nil
}

// cloneProfile copies the attribute map and values so stored snapshots
// never alias caller memory.
func cloneProfile(p model.Profile) model.Profile {
	if p.Attributes == nil {
		return p
	}
	attrs := maps.Clone(p.Attributes)
	for k, v := range attrs {
		attrs[k] = slices.Clone(v)
	}
	p.Attributes = attrs
	return p
}

func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Nanoseconds())/1e6)
}
