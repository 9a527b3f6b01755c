// Package history keeps a local record of finished enrichment runs. It backs
// the "last build took 4m12s" hint and the history command. The server's live
// status is always authoritative; nothing here feeds progress or ETA math.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"reelist/internal/domain"
)

// Store persists build records in a local SQLite database.
type Store struct {
	db   *sql.DB
	keep int
}

// NewStore opens (or creates) the history database at dbPath and runs the
// schema migration. keep bounds how many records survive pruning.
func NewStore(dbPath string, keep int) (*Store, error) {
	if keep <= 0 {
		keep = 50
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, domain.NewDomainError("history.NewStore", domain.ErrHistoryStore, err.Error())
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, domain.NewDomainError("history.NewStore", domain.ErrHistoryStore, err.Error())
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, domain.NewDomainError("history.NewStore", domain.ErrHistoryStore, "set WAL mode: "+err.Error())
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, domain.NewDomainError("history.NewStore", domain.ErrHistoryStore, "migrate: "+err.Error())
	}
	return &Store{db: db, keep: keep}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS builds (
			id          TEXT PRIMARY KEY,
			state       TEXT NOT NULL,
			total       INTEGER NOT NULL,
			processed   INTEGER NOT NULL,
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			skipped     INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one finished run and prunes old rows past the keep bound.
// An empty ID gets a minted ULID.
func (s *Store) Record(_ context.Context, r domain.BuildRecord) error {
	if r.ID == "" {
		r.ID = generateULID(time.Now())
	}
	skipped := 0
	if r.Skipped {
		skipped = 1
	}
	_, err := s.db.Exec(
		"INSERT INTO builds (id, state, total, processed, started_at, finished_at, skipped) VALUES (?, ?, ?, ?, ?, ?, ?)",
		r.ID, string(r.State), r.Total, r.Processed,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.FinishedAt.UTC().Format(time.RFC3339Nano),
		skipped,
	)
	if err != nil {
		return fmt.Errorf("record build: %w", err)
	}
	return s.prune()
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(_ context.Context, limit int) ([]domain.BuildRecord, error) {
	if limit <= 0 {
		limit = s.keep
	}
	rows, err := s.db.Query(
		"SELECT id, state, total, processed, started_at, finished_at, skipped FROM builds ORDER BY finished_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.BuildRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LastCompleted returns the most recent run that actually processed the
// library (complete or partial, not skipped), or nil when there is none.
func (s *Store) LastCompleted(_ context.Context) (*domain.BuildRecord, error) {
	row := s.db.QueryRow(
		"SELECT id, state, total, processed, started_at, finished_at, skipped FROM builds WHERE skipped = 0 AND state IN (?, ?) ORDER BY finished_at DESC LIMIT 1",
		string(domain.BuildComplete), string(domain.BuildPartial),
	)
	r, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// prune deletes everything but the newest keep rows.
func (s *Store) prune() error {
	_, err := s.db.Exec(
		"DELETE FROM builds WHERE id NOT IN (SELECT id FROM builds ORDER BY finished_at DESC LIMIT ?)",
		s.keep,
	)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.BuildRecord, error) {
	var (
		r                    domain.BuildRecord
		state                string
		startedStr, finished string
		skipped              int
	)
	if err := row.Scan(&r.ID, &state, &r.Total, &r.Processed, &startedStr, &finished, &skipped); err != nil {
		return domain.BuildRecord{}, err
	}
	r.State = domain.BuildJobState(state)
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	r.Skipped = skipped != 0
	return r, nil
}

func generateULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
