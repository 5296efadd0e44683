package retrypolicy

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// Policy bounds an outbound call: at most MaxAttempts tries, Delay between two tries and
// Timeout for each single try.
type Policy struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Delay       time.Duration `mapstructure:"delay"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func Default() Policy {
	return Policy{
		MaxAttempts: 5,
		Delay:       120 * time.Second,
		Timeout:     60 * time.Second,
	}
}

// Immediate retries without waiting.
func Immediate(attempts int) Policy {
	return Policy{MaxAttempts: attempts}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Do runs fn until it succeeds, returns a Permanent error, or the attempts are exhausted.
// The error of the last attempt is returned.
func (p Policy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	logger := zerolog.Ctx(ctx)
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(nonZero(p.Delay)))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := p.try(ctx, fn)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt < attempts {
			logger.Warn().
				Err(err).
				Str("operation", operation).
				Int("attempt", attempt).
				Msg("retrying")
		}
		return retry.RetryableError(err)
	})
	return err
}

func (p Policy) try(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	return fn(ctx)
}

// go-retry rejects a zero constant backoff.
func nonZero(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Nanosecond
	}
	return d
}
