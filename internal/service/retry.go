package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studyhub-backend/internal/repository"

	"github.com/cenkalti/backoff/v5"
)

// ErrUnavailable wraps storage failures that survived the bounded retry.
var ErrUnavailable = errors.New("storage temporarily unavailable")

const maxStoreAttempts = 3

// withRetry runs a store operation with capped exponential backoff. Domain
// sentinels and not-found results are definitive outcomes and are never
// retried; anything else is treated as transient and surfaced as
// ErrUnavailable once the attempts run out.
func withRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = 500 * time.Millisecond

	v, err := backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(maxStoreAttempts))

	if err != nil && isTransient(err) {
		return v, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, err
}

func withRetryNoResult(ctx context.Context, op func() error) error {
	_, err := withRetry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

func isTransient(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, sql.ErrNoRows),
		errors.Is(err, repository.ErrCodeTaken),
		errors.Is(err, repository.ErrDuplicateMember),
		errors.Is(err, repository.ErrDuplicateUser),
		errors.Is(err, repository.ErrCapacityFull),
		errors.Is(err, repository.ErrNotPending),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
