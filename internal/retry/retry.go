// Package retry implements a fixed-delay retry loop for transient
// backend failures. The interval does not grow between attempts: the
// policy assumes a fixed quota-reset window on the provider side, so
// backoff growth would only waste the window.
package retry

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultDelay       = 20 * time.Second
	defaultMaxAttempts = 3
)

// Sleeper waits for the given duration or until the context is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy describes a fixed-delay retry loop.
type Policy struct {
	// Delay is the flat interval between attempts.
	Delay time.Duration
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Retryable reports whether an error is worth another attempt.
	// A nil Retryable makes every error final.
	Retryable func(error) bool
	// Sleep is injectable for tests; defaults to a timer-based wait.
	Sleep Sleeper
}

// DefaultPolicy returns the policy used for backend rate limits:
// three attempts, twenty seconds apart.
func DefaultPolicy() Policy {
	return Policy{
		Delay:       defaultDelay,
		MaxAttempts: defaultMaxAttempts,
		Sleep:       defaultSleep,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, or the
// attempts are exhausted. The last error is returned unmodified, so
// callers can classify it with errors.As after exhaustion.
func (p Policy) Do(ctx context.Context, logger *slog.Logger, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) || attempt >= p.MaxAttempts {
			return err
		}

		if logger != nil {
			logger.Warn("retrying after transient error",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", p.MaxAttempts),
				slog.Duration("retry_in", p.Delay),
				slog.String("error", err.Error()))
		}

		if sleepErr := p.Sleep(ctx, p.Delay); sleepErr != nil {
			return sleepErr
		}
	}
}

func (p Policy) withDefaults() Policy {
	if p.Delay == 0 {
		p.Delay = defaultDelay
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.Sleep == nil {
		p.Sleep = defaultSleep
	}
	return p
}

func defaultSleep(ctx context.Context, d time.Duration) error {
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
