// Package retry wraps remote store calls with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/rpggio/statusboard/internal/repository"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy retries operations that fail with repository.ErrRateLimited. Any
// other error is returned on the spot. A Policy holds no state between calls.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxJitter    time.Duration
	Sleep        SleepFunc
	Logger       *slog.Logger
}

// New returns a policy sleeping on the wall clock.
func New(maxAttempts int, initialDelay, maxJitter time.Duration, logger *slog.Logger) Policy {
	return Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		MaxJitter:    maxJitter,
		Sleep:        sleepContext,
		Logger:       logger,
	}
}

// Delay returns the wait before retry number attempt (zero based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.InitialDelay << attempt
	if p.MaxJitter > 0 {
		d += rand.N(p.MaxJitter)
	}
	return d
}

// Execute runs op until it succeeds, fails with a non rate-limit error, or
// every attempt was rate limited.
func (p Policy) Execute(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrRateLimited) {
			return err
		}
		lastErr = err
		if attempt == attempts-1 {
			break
		}
		wait := p.Delay(attempt)
		logger.Warn("rate limited, backing off", "attempt", attempt+1, "max_attempts", attempts, "wait", wait)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", repository.ErrRetriesExhausted, attempts, lastErr)
}

// Do is Execute for operations that return a value.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var out T
	err := p.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
