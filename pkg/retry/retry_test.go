package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unity-vault/vault-client/pkg/retry/backoff"
)

func TestRealSleeper(t *testing.T) {
	sleeperImpl = &realSleeper{}

	start := time.Now()
	n, err := Retry(context.Background(), func() error { return errors.New("err") },
		Limit(2),
		Backoff(backoff.Constant(200*time.Millisecond), 200*time.Millisecond),
	)

	assert.NotNil(t, err)
	assert.EqualValues(t, 2, n)
	assert.True(t, 200*time.Millisecond <= time.Since(start))
	assert.True(t, 1*time.Second > time.Since(start))
}

func TestRealSleeper_ContextCancelled(t *testing.T) {
	sleeperImpl = &realSleeper{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	actionErr := errors.New("err")

	start := time.Now()
	n, err := Retry(ctx, func() error { return actionErr },
		Backoff(backoff.Constant(10*time.Second), 10*time.Second),
	)

	assert.Equal(t, actionErr, err)
	assert.EqualValues(t, 1, n)
	assert.True(t, time.Since(start) < time.Second)
}

func TestRetry_DoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	n, err := Retry(ctx, func() error {
		calls++
		return nil
	})
	assert.Equal(t, context.Canceled, err)
	assert.Zero(t, n)
	assert.Zero(t, calls)
}

func TestRetrier(t *testing.T) {
	retriableErr := errors.New("retriable")
	r := NewRetrier(Limit(5), RetriableErrors(retriableErr))

	attempts, err := r.Retry(context.Background(), func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, uint(1), attempts)

	attempts, err = r.Retry(context.Background(), func() error { return errors.New("unknown") })
	assert.Error(t, err)
	assert.Equal(t, uint(1), attempts)

	attempts, err = r.Retry(context.Background(), func() error { return retriableErr })
	assert.EqualError(t, retriableErr, err.Error())
	assert.Equal(t, uint(5), attempts)
}
