package retry

import (
	"context"
	"errors"
	"fmt"

	"frienddump/pkg/logger"
)

// ErrMaxAttempts is wrapped by Do when every attempt failed with a retryable error
var ErrMaxAttempts = errors.New("max retry attempts exceeded")

// Operation is one attempt. The attempt number starts at 1.
type Operation func(attempt int) error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	Backoff     BackoffStrategy
	// RetryIf decides whether a failed attempt is retried. A nil RetryIf
	// retries every error except context cancellation.
	RetryIf func(error) bool
	Context context.Context
	Logger  logger.Logger
}

// retryUnlessCancelled is used when Config.RetryIf is nil
func retryUnlessCancelled(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Do runs op until it succeeds, returns a non-retryable error, or the
// attempt budget is spent. A spent budget yields an error wrapping both
// ErrMaxAttempts and the last failure.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = &Config{MaxAttempts: 1}
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = retryUnlessCancelled
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = ConstantBackoff{}
	}

	for attempt := 1; ; attempt++ {
		err := op(attempt)
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(err) {
			return err
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt,
					"last_error": err.Error(),
				})
			}
			return fmt.Errorf("%w (%d): %w", ErrMaxAttempts, attempt, err)
		}

		delay := backoff.NextDelay(attempt)
		if cfg.Logger != nil {
			cfg.Logger.DebugWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult is Do for operations that produce a value
func DoWithResult[T any](op func(attempt int) (T, error), cfg *Config) (T, error) {
	var result T
	err := Do(func(attempt int) error {
		var opErr error
		result, opErr = op(attempt)
		return opErr
	}, cfg)
	return result, err
}
