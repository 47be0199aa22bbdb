// Package budget tracks token spend against a daily limit.
package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/resume-grounder/internal/store"
)

// Defaults used when configuration omits them
const (
	DefaultDailyLimit       = 100000
	DefaultWarningThreshold = 80000
)

// ErrBudgetExhausted is returned once the hard limit has been reached
var ErrBudgetExhausted = errors.New("token budget exhausted")

// Limits holds the warning threshold and hard limit, in tokens
type Limits struct {
	DailyLimit       int64
	WarningThreshold int64
}

// Tracker is the running token counter for one process. It is seeded with the
// day's recorded total and incremented after each model call.
type Tracker struct {
	mu     sync.Mutex
	limits Limits
	total  int64
	warned bool
	logger *slog.Logger
}

// NewTracker creates a tracker starting at initial tokens
func NewTracker(limits Limits, initial int64, logger *slog.Logger) *Tracker {
	if limits.DailyLimit <= 0 {
		limits.DailyLimit = DefaultDailyLimit
	}
	if limits.WarningThreshold <= 0 || limits.WarningThreshold > limits.DailyLimit {
		limits.WarningThreshold = limits.DailyLimit
	}
	t := &Tracker{limits: limits, total: initial, logger: logger}
	t.warned = initial >= limits.WarningThreshold
	return t
}

// Load seeds a tracker from the tokens recorded in s since local midnight
func Load(ctx context.Context, s store.Store, limits Limits, now time.Time, logger *slog.Logger) (*Tracker, error) {
	used, err := store.DailyTokens(ctx, s, now)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily token usage: %w", err)
	}
	logger.Debug("budget seeded from ledger", "tokens_today", used, "daily_limit", limits.DailyLimit)
	return NewTracker(limits, used, logger), nil
}

// Total returns the tokens counted so far
func (t *Tracker) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Limits returns the effective limits
func (t *Tracker) Limits() Limits {
	return t.limits
}

// Remaining returns the tokens left before the hard limit, never negative
func (t *Tracker) Remaining() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return max(t.limits.DailyLimit-t.total, 0)
}

// Add counts n tokens and logs once when the warning threshold is crossed
func (t *Tracker) Add(n int64) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total += n
	if !t.warned && t.total >= t.limits.WarningThreshold {
		t.warned = true
		t.logger.Warn("token budget warning threshold reached",
			"total", t.total,
			"warning_threshold", t.limits.WarningThreshold,
			"daily_limit", t.limits.DailyLimit,
		)
	}
}

// Check returns ErrBudgetExhausted once the hard limit is reached
func (t *Tracker) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total >= t.limits.DailyLimit {
		return fmt.Errorf("%w: %d of %d tokens used", ErrBudgetExhausted, t.total, t.limits.DailyLimit)
	}
	return nil
}
