package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdf2sheet/internal/common"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetryFailNTimesThenSucceed(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), nil, func() error {
		calls++
		if calls <= 2 {
			return fmt.Errorf("rate limited: %w", common.ErrProvider)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustedReturnsLastError(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), nil, func() error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, common.ErrProvider)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, common.ErrProvider))
	assert.Contains(t, err.Error(), "attempt 3")
}

func TestRetryDoesNotRetryNonProviderErrors(t *testing.T) {
	calls := 0
	fatal := errors.New("bad request")
	err := fastPolicy(3).Do(context.Background(), nil, func() error {
		calls++
		return fatal
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, fatal, err)
}

func TestRetryStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastPolicy(3).Do(ctx, nil, func() error {
		calls++
		return fmt.Errorf("boom: %w", common.ErrProvider)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}
