package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

const backendBolt = "bolt"

var (
	bucketProfiles   = []byte("profiles")
	bucketProfileIDs = []byte("profile_ids")
	bucketMatches    = []byte("matches")
)

// BoltStore persists profiles and matches in a bbolt file. Keys are
// big-endian sequence numbers so cursor order is insertion order.
type BoltStore struct {
	db     *bbolt.DB
	logger logger.Logger
	closed atomic.Bool
}

// NewBoltStore opens (creating if needed) the database at path.
func NewBoltStore(path string, opts ...Option) (*BoltStore, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: cfg.openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketProfiles, bucketProfileIDs, bucketMatches} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bolt %s: %w", path, err)
	}
	return &BoltStore{db: db, logger: cfg.logger}, nil
}

// SaveProfile implements ProfileStore.
func (s *BoltStore) SaveProfile(_ context.Context, p model.Profile) error {
	defer observe(backendBolt, "save_profile", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateProfile(p); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.ID, err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		profiles := tx.Bucket(bucketProfiles)
		ids := tx.Bucket(bucketProfileIDs)

		key := ids.Get([]byte(p.ID))
		if key == nil {
			seq, err := profiles.NextSequence()
			if err != nil {
				return err
			}
			key = seqKey(seq)
			if err := ids.Put([]byte(p.ID), key); err != nil {
				return err
			}
		}
		return profiles.Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

// FetchCandidates implements ProfileStore.
func (s *BoltStore) FetchCandidates(ctx context.Context) ([]model.Profile, error) {
	defer observe(backendBolt, "fetch_candidates", time.Now())
	return s.byRole(ctx, model.RoleCandidate)
}

// FetchSeekers implements ProfileStore.
func (s *BoltStore) FetchSeekers(ctx context.Context) ([]model.Profile, error) {
	defer observe(backendBolt, "fetch_seekers", time.Now())
	return s.byRole(ctx, model.RoleSeeker)
}

// FetchSeeker implements ProfileStore.
func (s *BoltStore) FetchSeeker(_ context.Context, id string) (model.Profile, error) {
	defer observe(backendBolt, "fetch_seeker", time.Now())
	if s.closed.Load() {
		return model.Profile{}, ErrClosed
	}
	var p model.Profile
	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketProfileIDs).Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		data := tx.Bucket(bucketProfiles).Get(key)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &p)
	})
	if errors.Is(err, ErrNotFound) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("fetch seeker %s: %w", id, err)
	}
	if p.Role != model.RoleSeeker {
		return model.Profile{}, ErrNotFound
	}
	return p, nil
}

// Append implements MatchLog.
func (s *BoltStore) Append(_ context.Context, rec model.MatchRecord) error {
	defer observe(backendBolt, "append_match", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode match %s: %w", rec.ID, err)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMatches)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), data)
	})
	if err != nil {
		return fmt.Errorf("append match %s: %w", rec.ID, err)
	}
	return nil
}

// List implements MatchLog.
func (s *BoltStore) List(_ context.Context) ([]model.MatchRecord, error) {
	defer observe(backendBolt, "list_matches", time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []model.MatchRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMatches).ForEach(func(_, v []byte) error {
			var rec model.MatchRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return out, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) byRole(ctx context.Context, role model.Role) ([]model.Profile, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var out []model.Profile
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProfiles).ForEach(func(k, v []byte) error {
			var p model.Profile
			if err := json.Unmarshal(v, &p); err != nil {
				s.logger.Warn(ctx, "skipping undecodable profile",
					logger.String("key", fmt.Sprintf("%x", k)), logger.Error(err))
				metrics.RecordPersistenceError("profile")
				return nil
			}
			if p.Role == role {
				out = append(out, p)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s profiles: %w", role, err)
	}
	return out, nil
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}
