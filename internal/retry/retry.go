// Package retry provides the backoff policy applied to every external
// provider call (embedding, language model, vector store).
//
// A Policy decides how many attempts are made, how long to wait between
// them, how long each attempt may run and which errors are worth retrying.
// It is passed into services explicitly rather than hardcoded per adapter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Policy configures retries for one class of provider calls.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first. Minimum 1.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt. It doubles on each retry.
	BaseDelay time.Duration

	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration

	// Timeout bounds each attempt. Zero means no per-attempt deadline.
	// An attempt that hits it is retried like any transient error.
	Timeout time.Duration

	// JitterPercent randomises each wait by up to this percentage.
	JitterPercent uint64

	// Retryable classifies errors. Defaults to domain.IsTransient.
	Retryable func(error) bool
}

// FromSettings builds a policy from retry settings.
func FromSettings(s domain.RetrySettings) Policy {
	return Policy{
		MaxAttempts:   s.MaxAttempts,
		BaseDelay:     s.BaseDelay,
		MaxDelay:      s.MaxDelay,
		Timeout:       s.Timeout,
		JitterPercent: 10,
	}
}

// NoRetry makes a single attempt with no per-attempt deadline.
func NoRetry() Policy {
	return Policy{MaxAttempts: 1}
}

// backoff builds the go-retry schedule for the policy.
func (p Policy) backoff() goretry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Millisecond
	}
	b := goretry.NewExponential(base)
	if p.MaxDelay > 0 {
		b = goretry.WithCappedDuration(p.MaxDelay, b)
	}
	if p.JitterPercent > 0 {
		b = goretry.WithJitterPercent(p.JitterPercent, b)
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return goretry.WithMaxRetries(uint64(attempts-1), b)
}

func (p Policy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return domain.IsTransient(err)
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// are exhausted or ctx is done. The last error from fn is returned; when ctx
// ends during a wait the context error is joined to it.
func (p Policy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var (
		lastErr  error
		attempts int
	)

	err := goretry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempts++
		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.retryable(err) {
			return err
		}
		if attempts < p.MaxAttempts {
			logger.Debug("%s: attempt %d/%d failed, retrying: %v", op, attempts, p.MaxAttempts, err)
		}
		return goretry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if lastErr != nil && !errors.Is(lastErr, ctxErr) {
			return errors.Join(ctxErr, lastErr)
		}
		return ctxErr
	}
	if attempts > 1 && p.retryable(err) {
		return fmt.Errorf("%s: gave up after %d attempts: %w", op, attempts, err)
	}
	return err
}

// attempt runs fn under the per-attempt deadline. A deadline hit while the
// parent context is still live is reported as transient.
func (p Policy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.Timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := fn(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return domain.Transient(fmt.Errorf("attempt timed out after %s: %w", p.Timeout, err))
	}
	return err
}
