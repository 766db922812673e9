package httpx

import (
	"context"
	"errors"
	"time"

	"github.com/kon-rad/juego-sub000/internal/platform/logger"
)

// Policy decides whether and when a failed call is attempted again.
type Policy interface {
	Do(ctx context.Context, name string, op func(ctx context.Context) error) error
}

type noRetry struct{}

// NoRetry runs op exactly once.
func NoRetry() Policy { return noRetry{} }

func (noRetry) Do(ctx context.Context, _ string, op func(ctx context.Context) error) error {
	return op(ctx)
}

// Backoff retries retryable errors with exponential backoff and jitter.
type Backoff struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	Jitter      bool
	Retryable   func(error) bool
	Log         *logger.Logger

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBackoff returns a Backoff with the defaults used by the provider clients.
func NewBackoff(maxAttempts int, log *logger.Logger) *Backoff {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Backoff{
		MaxAttempts: maxAttempts,
		Initial:     time.Second,
		Max:         10 * time.Second,
		Multiplier:  2,
		Jitter:      true,
		Retryable:   IsRetryableError,
		Log:         log,
	}
}

func (b *Backoff) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := b.Retryable
	if retryable == nil {
		retryable = IsRetryableError
	}
	sleep := b.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	delay := b.Initial

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt == attempts || !retryable(err) {
			return err
		}

		wait := delay
		var se *StatusError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			wait = se.RetryAfter
		}
		if b.Max > 0 && wait > b.Max {
			wait = b.Max
		}
		if b.Jitter {
			wait = JitterSleep(wait)
		}
		if b.Log != nil {
			b.Log.Warn("Retrying external call",
				"call", name,
				"attempt", attempt,
				"max_attempts", attempts,
				"sleep", wait.String(),
				"error", err.Error(),
			)
		}
		if sErr := sleep(ctx, wait); sErr != nil {
			return sErr
		}
		mult := b.Multiplier
		if mult < 1 {
			mult = 1
		}
		delay = time.Duration(float64(delay) * mult)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
