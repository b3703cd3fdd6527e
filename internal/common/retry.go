package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/saucier/internal/service"
)

var (
	// ErrRateLimit indicates that the remote end asked us to slow down.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// RateLimitError is a rate-limit answer carrying the server's requested wait.
// A zero RetryAfter means the server gave no hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s)", ErrRateLimit, e.RetryAfter)
	}
	return ErrRateLimit.Error()
}

// Is makes errors.Is(err, ErrRateLimit) hold for every RateLimitError.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimit
}

// ParseRetryAfter reads a Retry-After header value, given either in seconds
// or as an HTTP date. Unparseable or past values yield 0.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// WithRetry executes operation until it succeeds, fails permanently or runs
// out of attempts. fields are attached to every retry log line.
//
// Rate-limited attempts wait for the server's Retry-After, capped at MaxDelay,
// or MaxDelay when no hint was given. They do not advance the backoff.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions, fields Fields) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}

	backoff := opts.InitialDelay

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		var retryableErr *RetryableError
		if errors.As(err, &retryableErr) && !retryableErr.Retryable {
			return err
		}

		if attempt == opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		wait := backoff
		rateLimited := errors.Is(err, ErrRateLimit)
		if rateLimited {
			wait = rateLimitWait(err, opts.MaxDelay)
		}

		attrs := make([]slog.Attr, 0, len(fields)+4)
		attrs = append(attrs,
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", opts.MaxAttempts),
			slog.Duration("delay", wait),
			slog.String("error", err.Error()))
		for k, v := range fields {
			attrs = append(attrs, slog.Any(k, v))
		}
		slog.LogAttrs(ctx, slog.LevelWarn, "Operation failed, retrying", attrs...)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if !rateLimited {
			backoff = min(time.Duration(float64(backoff)*opts.Multiplier), opts.MaxDelay)
		}
	}

	return ErrMaxRetries
}

func rateLimitWait(err error, maxDelay time.Duration) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return min(rl.RetryAfter, maxDelay)
	}
	return maxDelay
}
