package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/infra/retry"
)

type sleepRecorder struct {
	total time.Duration
	calls int
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.calls++
	s.total += d
	return nil
}

func TestPolicy_TransientFailuresStopAtMaxAttempts(t *testing.T) {
	rec := &sleepRecorder{}
	p := retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Sleep: rec.sleep}

	calls := 0
	res := p.Run(context.Background(), func(context.Context, int) (retry.Verdict, error) {
		calls++
		return retry.Transient, errors.New("503")
	})

	require.Equal(t, 3, calls)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, retry.Transient, res.Verdict)
	require.False(t, res.OK())
	require.Equal(t, 2, rec.calls)
	require.Equal(t, 4*time.Second, rec.total)
}

func TestPolicy_PermanentFailureIsNotRetried(t *testing.T) {
	rec := &sleepRecorder{}
	p := retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Sleep: rec.sleep}

	res := p.Run(context.Background(), func(context.Context, int) (retry.Verdict, error) {
		return retry.Permanent, errors.New("404")
	})

	require.Equal(t, 1, res.Attempts)
	require.Equal(t, retry.Permanent, res.Verdict)
	require.Zero(t, rec.calls)
}

func TestPolicy_SucceedsAfterTransientFailure(t *testing.T) {
	rec := &sleepRecorder{}
	p := retry.Policy{MaxAttempts: 3, Delay: time.Second, Sleep: rec.sleep}

	res := p.Run(context.Background(), func(_ context.Context, attempt int) (retry.Verdict, error) {
		if attempt == 1 {
			return retry.Transient, errors.New("timeout")
		}
		return retry.Succeeded, nil
	})

	require.True(t, res.OK())
	require.Equal(t, 2, res.Attempts)
	require.NoError(t, res.Err)
	require.Equal(t, 1, rec.calls)
}

func TestPolicy_StopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := retry.Policy{MaxAttempts: 3, Delay: time.Hour}

	res := p.Run(ctx, func(context.Context, int) (retry.Verdict, error) {
		return retry.Transient, errors.New("503")
	})

	require.Equal(t, 1, res.Attempts)
	require.ErrorIs(t, res.Err, context.Canceled)
}
