package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NopStore discards everything. Used when no database is configured and in dry runs.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) RecordUsage(context.Context, UsageRecord) error       { return nil }
func (s *NopStore) TokensSince(context.Context, time.Time) (int64, error) { return 0, nil }
func (s *NopStore) SaveDraft(context.Context, DraftRecord) error         { return nil }
func (s *NopStore) Close() error                                         { return nil }

func (s *NopStore) GetDraft(context.Context, uuid.UUID) (*DraftRecord, error) {
	return nil, ErrNotFound
}
