package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// storeCall runs one store operation with a bounded per-attempt timeout and
// retries transient failures with exponential backoff, capped at maxRetries
// additional attempts. Cryptographic, not-found, and validation errors are
// never retried; neither is caller cancellation.
func (s *VaultService) storeCall(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := func() error {
		opCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()

		err := op(opCtx)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			// The caller abandoned the operation; don't retry on their behalf.
			return backoff.Permanent(ctx.Err())
		case isTransient(err):
			return fmt.Errorf("%w: %v", driven.ErrStoreUnavailable, err)
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(50*time.Millisecond),
		backoff.WithMaxInterval(time.Second),
	), s.maxRetries)

	return backoff.Retry(attempt, backoff.WithContext(policy, ctx))
}

// isTransient reports whether a store error is worth retrying: timeouts and
// SQLite lock contention, not logic errors.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
