package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/playground/internal/domain/model"
	"github.com/okian/playground/pkg/logger"
	"github.com/okian/playground/pkg/metrics"
)

const (
	backendSQLite = "sqlite"
	schemaVersion = 1
)

// SQLiteStore persists profiles and matches in a single SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
	closed atomic.Bool
}

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates it to the current schema.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.openTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}
	return &SQLiteStore{db: db, logger: cfg.logger}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS profiles (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL,
  full_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  attributes TEXT NOT NULL DEFAULT '{}',
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_profiles_role
ON profiles(role, seq);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS matches (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL,
  seeker TEXT NOT NULL,
  candidate TEXT NOT NULL,
  score REAL NOT NULL,
  created_at TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveProfile implements ProfileStore.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p model.Profile) error {
	defer observe(backendSQLite, "save_profile", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	if err := validateProfile(p); err != nil {
		return err
	}
	attrs, err := json.Marshal(p.Attributes)
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles(id, role, full_name, email, attributes, created_at)
VALUES(?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  role = excluded.role,
  full_name = excluded.full_name,
  email = excluded.email,
  attributes = excluded.attributes,
  created_at = excluded.created_at;`,
		p.ID, string(p.Role), p.Name, p.Email, string(attrs), formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

// FetchCandidates implements ProfileStore.
func (s *SQLiteStore) FetchCandidates(ctx context.Context) ([]model.Profile, error) {
	defer observe(backendSQLite, "fetch_candidates", time.Now())
	return s.byRole(ctx, model.RoleCandidate)
}

// FetchSeekers implements ProfileStore.
func (s *SQLiteStore) FetchSeekers(ctx context.Context) ([]model.Profile, error) {
	defer observe(backendSQLite, "fetch_seekers", time.Now())
	return s.byRole(ctx, model.RoleSeeker)
}

// FetchSeeker implements ProfileStore.
func (s *SQLiteStore) FetchSeeker(ctx context.Context, id string) (model.Profile, error) {
	defer observe(backendSQLite, "fetch_seeker", time.Now())
	if s.closed.Load() {
		return model.Profile{}, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `
SELECT id, role, full_name, email, attributes, created_at
FROM profiles
WHERE id = ? AND role = ?;`, id, string(model.RoleSeeker))
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("fetch seeker %s: %w", id, err)
	}
	return p, nil
}

// Append implements MatchLog. Each record is a single-row insert.
func (s *SQLiteStore) Append(ctx context.Context, rec model.MatchRecord) error {
	defer observe(backendSQLite, "append_match", time.Now())
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO matches(id, seeker, candidate, score, created_at)
VALUES(?,?,?,?,?);`,
		rec.ID, rec.SeekerEmail, rec.CandidateEmail, rec.Score, formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("append match %s: %w", rec.ID, err)
	}
	return nil
}

// List implements MatchLog.
func (s *SQLiteStore) List(ctx context.Context) ([]model.MatchRecord, error) {
	defer observe(backendSQLite, "list_matches", time.Now())
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, seeker, candidate, score, created_at
FROM matches
ORDER BY seq ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []model.MatchRecord
	for rows.Next() {
		var rec model.MatchRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.SeekerEmail, &rec.CandidateEmail, &rec.Score, &created); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if rec.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("match %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) byRole(ctx context.Context, role model.Role) ([]model.Profile, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, role, full_name, email, attributes, created_at
FROM profiles
WHERE role = ?
ORDER BY seq ASC;`, string(role))
	if err != nil {
		return nil, fmt.Errorf("fetch %s profiles: %w", role, err)
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			// One bad row must not hide the rest of the pool.
			s.logger.Warn(ctx, "skipping undecodable profile",
				logger.String("role", string(role)), logger.Error(err))
			metrics.RecordPersistenceError("profile")
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s profiles: %w", role, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (model.Profile, error) {
	var p model.Profile
	var role, attrs, created string
	if err := row.Scan(&p.ID, &role, &p.Name, &p.Email, &attrs, &created); err != nil {
		return model.Profile{}, err
	}
	p.Role = model.Role(role)
	if err := json.Unmarshal([]byte(attrs), &p.Attributes); err != nil {
		return model.Profile{}, fmt.Errorf("decode attributes of %s: %w", p.ID, err)
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return model.Profile{}, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	return p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
