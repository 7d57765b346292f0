package platforms

import (
	"context"
	"time"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

const (
	DefaultAttempts   = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 30 * time.Second
	defaultMultiplier = 2.0
)

// RetryPolicy is a bounded exponential backoff. The zero value uses the defaults.
type RetryPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// Retryable decides whether a failed attempt may be repeated.
type Retryable func(error) bool

// DefaultRetryPolicy returns the policy used when nothing is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, BaseDelay: DefaultBaseDelay, MaxDelay: DefaultMaxDelay}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = DefaultAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Multiplier < 1 {
		p.Multiplier = defaultMultiplier
	}
	return p
}

// Delay returns the wait before the attempt following attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.normalized()
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Do runs op until it succeeds, fails with an error retryable rejects, or the
// attempts are used up. It returns the number of attempts made and the last
// error. The attempt counter lives only in this loop.
func (p RetryPolicy) Do(ctx context.Context, retryable Retryable, op func(ctx context.Context, attempt int) error) (int, error) {
	p = p.normalized()
	if retryable == nil {
		retryable = IsTransient
	}

	var err error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err = op(ctx, attempt); err == nil {
			return attempt, nil
		}
		if attempt == p.Attempts || !retryable(err) {
			return attempt, err
		}
		if werr := sleep(ctx, p.Delay(attempt)); werr != nil {
			return attempt, &PlatformError{
				Kind:    domain.KindCancelled,
				Step:    "backoff",
				Message: "cancelled while waiting to retry after: " + err.Error(),
				Err:     werr,
			}
		}
	}
	return p.Attempts, err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
