// Package retry runs one operation under a retry policy: a classifier decides
// whether a failure is worth another attempt and a schedule decides how long to wait.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jonathan/resume-grounder/internal/llm"
)

// Class is the retry category of an error
type Class int

// Error classes
const (
	// Permanent errors are returned immediately
	Permanent Class = iota
	// Transient errors are retried with exponential backoff
	Transient
	// RateLimited errors are retried with a longer linear backoff plus jitter
	RateLimited
	// Fatal errors are returned immediately and should stop the caller's batch
	Fatal
)

func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case RateLimited:
		return "rate_limited"
	case Fatal:
		return "fatal"
	default:
		return "permanent"
	}
}

// Default schedule parameters
const (
	DefaultMaxRetries    = 3
	DefaultTransientBase = time.Second
	DefaultRateLimitBase = 30 * time.Second
	DefaultMaxJitter     = 5 * time.Second
)

// Classifier maps an error to its retry class
type Classifier func(err error) Class

// Schedule returns the wait before retry number attempt (1-based)
type Schedule func(class Class, attempt int) time.Duration

// Policy configures Do
type Policy struct {
	// MaxRetries is the number of additional attempts after the first failure
	MaxRetries int
	Classify   Classifier
	Backoff    Schedule
	// Sleep waits for d or until ctx is done; tests replace it
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

// ExhaustedError is returned when every attempt failed with a retryable error
type ExhaustedError struct {
	Attempts int
	Class    Class
	Cause    error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts (%s): %v", e.Attempts, e.Class, e.Cause)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Cause
}

// ClassifyLLM classifies errors from llm clients
func ClassifyLLM(err error) Class {
	switch {
	case errors.Is(err, context.Canceled):
		return Permanent
	case errors.Is(err, llm.ErrAuthentication):
		return Fatal
	case errors.Is(err, llm.ErrRateLimited):
		return RateLimited
	case errors.Is(err, llm.ErrTransient):
		return Transient
	default:
		return Permanent
	}
}

// ProviderSchedule waits transientBase*2^attempt for transient errors and
// rateLimitBase*attempt plus up to maxJitter of random jitter for rate limits.
func ProviderSchedule(transientBase, rateLimitBase, maxJitter time.Duration) Schedule {
	return func(class Class, attempt int) time.Duration {
		switch class {
		case RateLimited:
			delay := rateLimitBase * time.Duration(attempt)
			if maxJitter > 0 {
				delay += rand.N(maxJitter)
			}
			return delay
		case Transient:
			return transientBase * time.Duration(1<<attempt)
		default:
			return 0
		}
	}
}

// DefaultPolicy returns the provider retry policy with default parameters
func DefaultPolicy(logger *slog.Logger) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Classify:   ClassifyLLM,
		Backoff:    ProviderSchedule(DefaultTransientBase, DefaultRateLimitBase, DefaultMaxJitter),
		Logger:     logger,
	}
}

// SleepContext waits for d or until ctx is cancelled
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// policy's retries are used up.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	classify := p.Classify
	if classify == nil {
		classify = ClassifyLLM
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var zero T
	result, err := fn(ctx)
	for attempt := 1; err != nil; attempt++ {
		class := classify(err)
		if class != Transient && class != RateLimited {
			return zero, err
		}
		if attempt > p.MaxRetries {
			return zero, &ExhaustedError{Attempts: attempt, Class: class, Cause: err}
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(class, attempt)
		}
		logger.Warn("retrying after provider error",
			"attempt", attempt,
			"max_retries", p.MaxRetries,
			"class", class.String(),
			"delay", delay,
			"error", err,
		)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return zero, sleepErr
		}

		result, err = fn(ctx)
	}
	return result, nil
}
