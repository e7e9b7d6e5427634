package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"github.com/okian/playground/internal/domain/model"
)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{name: DriverMemory, open: func(t *testing.T) Store {
			t.Helper()
			return NewMemoryStore()
		}},
		{name: DriverSQLite, open: func(t *testing.T) Store {
			t.Helper()
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		}},
		{name: DriverBolt, open: func(t *testing.T) Store {
			t.Helper()
			s, err := NewBoltStore(filepath.Join(t.TempDir(), "test.bolt"))
			if err != nil {
				t.Fatalf("open bolt: %v", err)
			}
			return s
		}},
	}
}

func newProfile(id string, role model.Role) model.Profile {
	return model.Profile{
		ID:    id,
		Role:  role,
		Name:  "Name " + id,
		Email: id + "@example.com",
		Attributes: map[string]model.Attribute{
			model.AttrNiche: {"fintech", "health"},
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
	}
}

func TestStore_Profiles(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()

			for _, p := range []model.Profile{
				newProfile("c1", model.RoleCandidate),
				newProfile("s1", model.RoleSeeker),
				newProfile("c2", model.RoleCandidate),
				newProfile("c3", model.RoleCandidate),
			} {
				if err := s.SaveProfile(ctx, p); err != nil {
					t.Fatalf("save %s: %v", p.ID, err)
				}
			}

			cands, err := s.FetchCandidates(ctx)
			if err != nil {
				t.Fatalf("fetch candidates: %v", err)
			}
			if len(cands) != 3 {
				t.Fatalf("expected 3 candidates, got %d", len(cands))
			}
			for i, want := range []string{"c1", "c2", "c3"} {
				if cands[i].ID != want {
					t.Errorf("candidate %d: expected %s, got %s", i, want, cands[i].ID)
				}
			}

			seeker, err := s.FetchSeeker(ctx, "s1")
			if err != nil {
				t.Fatalf("fetch seeker: %v", err)
			}
			if seeker.Email != "s1@example.com" || seeker.Name != "Name s1" {
				t.Errorf("unexpected seeker %+v", seeker)
			}
			if got := seeker.Get(model.AttrNiche); len(got) != 2 || got[1] != "health" {
				t.Errorf("attributes not round-tripped: %v", got)
			}
			if !seeker.CreatedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)) {
				t.Errorf("created_at not round-tripped: %v", seeker.CreatedAt)
			}

			if _, err := s.FetchSeeker(ctx, "c1"); !errors.Is(err, ErrNotFound) {
				t.Errorf("candidate fetched as seeker: %v", err)
			}
			if _, err := s.FetchSeeker(ctx, "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}

			seekers, err := s.FetchSeekers(ctx)
			if err != nil || len(seekers) != 1 {
				t.Errorf("expected 1 seeker, got %d (%v)", len(seekers), err)
			}
		})
	}
}

func TestStore_SaveProfileReplaces(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()

			_ = s.SaveProfile(ctx, newProfile("c1", model.RoleCandidate))
			_ = s.SaveProfile(ctx, newProfile("c2", model.RoleCandidate))

			updated := newProfile("c1", model.RoleCandidate)
			updated.Email = "new@example.com"
			if err := s.SaveProfile(ctx, updated); err != nil {
				t.Fatalf("resave: %v", err)
			}

			cands, _ := s.FetchCandidates(ctx)
			if len(cands) != 2 {
				t.Fatalf("expected 2 candidates, got %d", len(cands))
			}
			if cands[0].ID != "c1" || cands[0].Email != "new@example.com" {
				t.Errorf("expected updated c1 first, got %+v", cands[0])
			}
		})
	}
}

func TestStore_SkipsUndecodableProfiles(t *testing.T) {
	ctx := context.Background()
	corrupt := map[string]func(t *testing.T, s Store, id string){
		DriverSQLite: func(t *testing.T, s Store, id string) {
			t.Helper()
			db := s.(*SQLiteStore).db
			if _, err := db.ExecContext(ctx, `UPDATE profiles SET attributes = 'not json' WHERE id = ?`, id); err != nil {
				t.Fatalf("corrupt row: %v", err)
			}
		},
		DriverBolt: func(t *testing.T, s Store, id string) {
			t.Helper()
			err := s.(*BoltStore).db.Update(func(tx *bbolt.Tx) error {
				key := tx.Bucket(bucketProfileIDs).Get([]byte(id))
				return tx.Bucket(bucketProfiles).Put(key, []byte("not json"))
			})
			if err != nil {
				t.Fatalf("corrupt row: %v", err)
			}
		},
	}

	for _, b := range backends() {
		damage, ok := corrupt[b.name]
		if !ok {
			continue
		}
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()

			for _, id := range []string{"good", "bad", "later"} {
				if err := s.SaveProfile(ctx, newProfile(id, model.RoleCandidate)); err != nil {
					t.Fatalf("save %s: %v", id, err)
				}
			}
			damage(t, s, "bad")

			cands, err := s.FetchCandidates(ctx)
			if err != nil {
				t.Fatalf("fetch candidates: %v", err)
			}
			if len(cands) != 2 || cands[0].ID != "good" || cands[1].ID != "later" {
				t.Fatalf("expected [good later], got %+v", cands)
			}
		})
	}
}

func TestStore_InvalidProfile(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()

			if err := s.SaveProfile(ctx, model.Profile{Role: model.RoleSeeker}); !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("missing id: expected ErrInvalidProfile, got %v", err)
			}
			if err := s.SaveProfile(ctx, model.Profile{ID: "x", Role: "admin"}); !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("bad role: expected ErrInvalidProfile, got %v", err)
			}
		})
	}
}

func TestStore_MatchLog(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()

			list, err := s.List(ctx)
			if err != nil || len(list) != 0 {
				t.Fatalf("expected empty log, got %d (%v)", len(list), err)
			}

			base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			for i := range 5 {
				rec := model.MatchRecord{
					ID:             fmt.Sprintf("m%d", i),
					SeekerEmail:    "s@example.com",
					CandidateEmail: "c@example.com",
					Score:          0.4,
					CreatedAt:      base.Add(time.Duration(5-i) * time.Second),
				}
				if err := s.Append(ctx, rec); err != nil {
					t.Fatalf("append: %v", err)
				}
			}

			list, err = s.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 5 {
				t.Fatalf("expected 5 records, got %d", len(list))
			}
			for i, rec := range list {
				if rec.ID != fmt.Sprintf("m%d", i) {
					t.Errorf("record %d: expected insertion order, got %s", i, rec.ID)
				}
				if rec.Score != 0.4 {
					t.Errorf("record %d: score %v", i, rec.Score)
				}
			}
		})
	}
}

func TestStore_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			defer s.Close()

			var wg sync.WaitGroup
			for i := range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					rec := model.MatchRecord{
						ID:             fmt.Sprintf("m%d", i),
						SeekerEmail:    fmt.Sprintf("s%d@example.com", i),
						CandidateEmail: "c@example.com",
						Score:          0.5,
						CreatedAt:      time.Now().UTC(),
					}
					if err := s.Append(ctx, rec); err != nil {
						t.Errorf("append %d: %v", i, err)
					}
				}()
			}
			wg.Wait()

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 20 {
				t.Errorf("expected 20 records, got %d", len(list))
			}
		})
	}
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			if err := s.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			if err := s.Close(); err != nil {
				t.Errorf("second close: %v", err)
			}
			if _, err := s.FetchCandidates(ctx); !errors.Is(err, ErrClosed) {
				t.Errorf("expected ErrClosed, got %v", err)
			}
			if err := s.Append(ctx, model.MatchRecord{ID: "m"}); !errors.Is(err, ErrClosed) {
				t.Errorf("expected ErrClosed, got %v", err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "MEMORY", "")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	_ = s.Close()

	s, err = Open(ctx, DriverBolt, filepath.Join(t.TempDir(), "x.bolt"), WithOpenTimeout(time.Second))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	_ = s.Close()

	if _, err := Open(ctx, "postgres", ""); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProfile("c1", model.RoleCandidate)
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	p.Attributes[model.AttrNiche][0] = "mutated"

	got, _ := s.FetchCandidates(ctx)
	if got[0].Get(model.AttrNiche)[0] != "fintech" {
		t.Error("stored profile aliases caller memory")
	}
}
