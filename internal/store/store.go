// Package store persists the token usage ledger and the archive of accepted drafts.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// UsageRecord is one model call charged against the token budget
type UsageRecord struct {
	RunID      uuid.UUID
	JobKey     string
	Model      string
	Status     string // job status the call ended in
	Tokens     int64
	RecordedAt time.Time
}

// DraftRecord is an accepted draft with its validation outcome and scoring
type DraftRecord struct {
	ID        uuid.UUID       `json:"id"`
	RunID     uuid.UUID       `json:"run_id"`
	JobKey    string          `json:"job_key"`
	Company   string          `json:"company"`
	JobTitle  string          `json:"job_title"`
	Draft     json.RawMessage `json:"draft"`
	Outcome   json.RawMessage `json:"outcome"`
	Scoring   json.RawMessage `json:"scoring,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store is implemented by the SQLite and Postgres backends
type Store interface {
	// RecordUsage appends a usage record
	RecordUsage(ctx context.Context, rec UsageRecord) error
	// TokensSince sums tokens recorded at or after since
	TokensSince(ctx context.Context, since time.Time) (int64, error)
	// SaveDraft archives an accepted draft
	SaveDraft(ctx context.Context, rec DraftRecord) error
	// GetDraft loads an archived draft by ID
	GetDraft(ctx context.Context, id uuid.UUID) (*DraftRecord, error)
	Close() error
}

// StartOfDay returns local midnight of t's day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DailyTokens returns the tokens recorded since local midnight
func DailyTokens(ctx context.Context, s Store, now time.Time) (int64, error) {
	return s.TokensSince(ctx, StartOfDay(now))
}
