package review

import (
	"context"
	"errors"
	"time"
)

// BackoffPolicy is the bounded retry applied to the first card fetch of a
// fresh session, absorbing the service's session registration race.
//
// Delays[i] is waited before attempt i; when there are more attempts than
// delays the last delay repeats. Sleep is replaceable for virtual time.
type BackoffPolicy struct {
	Attempts int
	Delays   []time.Duration
	Sleep    func(ctx context.Context, d time.Duration) error
}

// DefaultBackoff waits 500ms before the first fetch and one more second
// before the single retry.
func DefaultBackoff() BackoffPolicy {
	return NewBackoff(500*time.Millisecond, time.Second)
}

// NewBackoff returns a two-attempt policy with the given delays.
func NewBackoff(first, retry time.Duration) BackoffPolicy {
	return BackoffPolicy{Attempts: 2, Delays: []time.Duration{first, retry}}
}

func (p BackoffPolicy) delay(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if attempt >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[attempt]
}

func (p BackoffPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn up to Attempts times. Cancellation and ErrStale are returned
// at once. onRetry, if set, sees every failure that will be retried.
func (p BackoffPolicy) Do(ctx context.Context, fn func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if d := p.delay(i); d > 0 {
			if serr := p.sleep(ctx, d); serr != nil {
				return serr
			}
		}

		err = fn(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		if i+1 < attempts && onRetry != nil {
			onRetry(i+1, err)
		}
	}
	return err
}

func retryable(err error) bool {
	return !errors.Is(err, ErrStale) &&
		!errors.Is(err, context.Canceled)
}
