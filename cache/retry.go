package cache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/frictionalfables/fable/faults"
)

/*
	Retry policy for reads. Failures the taxonomy marks non-retryable
	(authorization, incomplete profile, duplicates, validation) are
	permanent on the first attempt; anything else is re-attempted a small
	bounded number of times with exponential backoff.
*/

type RetryPolicy struct {
	MaxAttempts int // total attempts including the first; <=1 disables retries
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

func (p RetryPolicy) Run(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	if p.BaseDelay > 0 {
		bo.InitialInterval = p.BaseDelay
	}
	if p.MaxDelay > 0 {
		bo.MaxInterval = p.MaxDelay
	}
	bo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	var result any
	op := func() error {
		v, err := fn(ctx)
		if err != nil {
			if !faults.Retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = v
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
	if err != nil {
		return nil, err
	}
	return result, nil
}
