package platforms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{Attempts: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4))
	assert.Equal(t, 5*time.Second, p.Delay(10))
}

func TestRetryPolicyRetriesTransientUntilSuccess(t *testing.T) {
	p := RetryPolicy{Attempts: 3}
	var seen []int
	attempts, err := p.Do(context.Background(), nil, func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return &PlatformError{Kind: domain.KindServerError}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRetryPolicyStopsOnPermanentError(t *testing.T) {
	p := RetryPolicy{Attempts: 5}
	calls := 0
	attempts, err := p.Do(context.Background(), nil, func(context.Context, int) error {
		calls++
		return &PlatformError{Kind: domain.KindAuthError}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.KindAuthError, KindOf(err))
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{Attempts: 3}
	calls := 0
	attempts, err := p.Do(context.Background(), nil, func(context.Context, int) error {
		calls++
		return &PlatformError{Kind: domain.KindTimeout}
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
	assert.Equal(t, domain.KindTimeout, KindOf(err))
}

func TestRetryPolicyRateLimitedOnly(t *testing.T) {
	p := RetryPolicy{Attempts: 3}
	calls := 0
	_, err := p.Do(context.Background(), IsRateLimited, func(context.Context, int) error {
		calls++
		return &PlatformError{Kind: domain.KindServerError}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "server errors must not repeat a publish step")

	calls = 0
	_, err = p.Do(context.Background(), IsRateLimited, func(_ context.Context, attempt int) error {
		calls++
		if attempt == 1 {
			return &PlatformError{Kind: domain.KindRateLimited}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Hour}
	_, err := p.Do(ctx, nil, func(context.Context, int) error {
		cancel()
		return &PlatformError{Kind: domain.KindServerError}
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindCancelled, KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
}
