// Package db provides the PostgreSQL backend for the usage ledger and draft archive.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/resume-grounder/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the ledger tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// RecordUsage appends one model call to the token ledger
func (db *DB) RecordUsage(ctx context.Context, rec store.UsageRecord) error {
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO token_usage (run_id, job_key, model, status, tokens, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.RunID, rec.JobKey, rec.Model, rec.Status, rec.Tokens, rec.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record usage for %s: %w", rec.JobKey, err)
	}
	return nil
}

// TokensSince sums tokens recorded at or after since
func (db *DB) TokensSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(tokens), 0)::BIGINT FROM token_usage WHERE recorded_at >= $1`,
		since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum token usage: %w", err)
	}
	return total, nil
}

// SaveDraft archives an accepted draft, replacing any draft with the same ID
func (db *DB) SaveDraft(ctx context.Context, rec store.DraftRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var scoring []byte
	if len(rec.Scoring) > 0 {
		scoring = rec.Scoring
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO accepted_drafts (id, run_id, job_key, company, job_title, draft, outcome, scoring, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET draft = $6, outcome = $7, scoring = $8, created_at = $9`,
		rec.ID, rec.RunID, rec.JobKey, rec.Company, rec.JobTitle,
		[]byte(rec.Draft), []byte(rec.Outcome), scoring, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save draft for %s: %w", rec.JobKey, err)
	}
	return nil
}

// GetDraft retrieves an archived draft by ID
func (db *DB) GetDraft(ctx context.Context, id uuid.UUID) (*store.DraftRecord, error) {
	var rec store.DraftRecord
	var draft, outcome, scoring []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, run_id, job_key, company, job_title, draft, outcome, scoring, created_at
		 FROM accepted_drafts WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.RunID, &rec.JobKey, &rec.Company, &rec.JobTitle, &draft, &outcome, &scoring, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get draft %s: %w", id, err)
	}
	rec.Draft = draft
	rec.Outcome = outcome
	rec.Scoring = scoring
	return &rec, nil
}
