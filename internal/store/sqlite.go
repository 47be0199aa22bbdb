package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS token_usage (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	job_key     TEXT NOT NULL,
	model       TEXT NOT NULL,
	status      TEXT NOT NULL,
	tokens      INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_token_usage_recorded_at ON token_usage (recorded_at);
CREATE TABLE IF NOT EXISTS accepted_drafts (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	job_key    TEXT NOT NULL,
	company    TEXT NOT NULL,
	job_title  TEXT NOT NULL,
	draft      TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	scoring    TEXT,
	created_at INTEGER NOT NULL
);`

// SQLiteStore keeps the ledger in a local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the tables exist
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// RecordUsage appends a usage record
func (s *SQLiteStore) RecordUsage(ctx context.Context, rec UsageRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO token_usage (run_id, job_key, model, status, tokens, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID.String(), rec.JobKey, rec.Model, rec.Status, rec.Tokens, rec.RecordedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording usage for %s: %w", rec.JobKey, err)
	}
	return nil
}

// TokensSince sums tokens recorded at or after since
func (s *SQLiteStore) TokensSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(tokens), 0) FROM token_usage WHERE recorded_at >= ?`,
		since.Unix(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing token usage: %w", err)
	}
	return total, nil
}

// SaveDraft archives an accepted draft. Saving the same ID twice replaces it.
func (s *SQLiteStore) SaveDraft(ctx context.Context, rec DraftRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var scoring any
	if len(rec.Scoring) > 0 {
		scoring = string(rec.Scoring)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO accepted_drafts
		 (id, run_id, job_key, company, job_title, draft, outcome, scoring, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.RunID.String(), rec.JobKey, rec.Company, rec.JobTitle,
		string(rec.Draft), string(rec.Outcome), scoring, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving draft for %s: %w", rec.JobKey, err)
	}
	return nil
}

// GetDraft loads an archived draft by ID
func (s *SQLiteStore) GetDraft(ctx context.Context, id uuid.UUID) (*DraftRecord, error) {
	var (
		rec            DraftRecord
		rawID, runID   string
		draft, outcome string
		scoring        sql.NullString
		createdAt      int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, job_key, company, job_title, draft, outcome, scoring, created_at
		 FROM accepted_drafts WHERE id = ?`,
		id.String(),
	).Scan(&rawID, &runID, &rec.JobKey, &rec.Company, &rec.JobTitle, &draft, &outcome, &scoring, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft %s: %w", id, err)
	}

	if rec.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("draft %s has invalid id: %w", rawID, err)
	}
	if rec.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("draft %s has invalid run id: %w", rawID, err)
	}
	rec.Draft = []byte(draft)
	rec.Outcome = []byte(outcome)
	if scoring.Valid {
		rec.Scoring = []byte(scoring.String)
	}
	rec.CreatedAt = time.Unix(createdAt, 0)
	return &rec, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
