package retry

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/unity-vault/vault-client/pkg/retry/backoff"
)

func TestLimit(t *testing.T) {
	ctx := context.Background()
	strategy := Limit(2)

	assert.True(t, strategy(ctx, 1, errors.New("test")))
	assert.False(t, strategy(ctx, 2, errors.New("test")))

	counter, err := Retry(ctx, func() error {
		return errors.New("test")
	}, Limit(2))

	assert.EqualError(t, err, "test")
	assert.Equal(t, uint(2), counter)
}

func TestRetriableErrors(t *testing.T) {
	ctx := context.Background()
	retriableErrors := []error{
		errors.New("retriableA"),
		errors.New("retriableB"),
	}

	strategy := RetriableErrors(retriableErrors...)
	for _, err := range retriableErrors {
		assert.True(t, strategy(ctx, 1, err))
		assert.True(t, strategy(ctx, 1, errors.Wrap(err, "wrapper")))
	}
	assert.False(t, strategy(ctx, 2, errors.New("unexpected")))
}

func TestNonRetriableErrors(t *testing.T) {
	ctx := context.Background()
	nonRetriableErrors := []error{
		errors.New("nonRetriableA"),
		errors.New("nonRetriableB"),
	}

	strategy := NonRetriableErrors(nonRetriableErrors...)
	for _, err := range nonRetriableErrors {
		assert.False(t, strategy(ctx, 1, err))
		assert.False(t, strategy(ctx, 1, errors.Wrap(err, "wrapper")))
	}
	assert.True(t, strategy(ctx, 1, errors.New("unexpected")))
}

func TestDeadline(t *testing.T) {
	now := time.Now()
	clock = func() time.Time { return now }
	defer func() { clock = time.Now }()

	assert.True(t, Deadline(now.Add(time.Second))(context.Background(), 1, errors.New("err")))
	assert.False(t, Deadline(now.Add(-time.Second))(context.Background(), 1, errors.New("err")))
}

func TestBackoff(t *testing.T) {
	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = &realSleeper{} }()

	strategy := Backoff(backoff.Constant(100*time.Millisecond), 1*time.Second)
	for i := uint(0); i < 10; i++ {
		assert.True(t, strategy(context.Background(), i+1, errors.New("test-error")))
	}

	assert.EqualValues(t, 1*time.Second, ts.Total())
	assert.EqualValues(t, 100*time.Millisecond, ts.Mean())
	assert.EqualValues(t, 0, ts.AbsDeviation())

	capped := Backoff(backoff.BinaryExponential(time.Second), 3*time.Second)
	ts.sleepTimes = nil
	for i := uint(1); i <= 4; i++ {
		capped(context.Background(), i, errors.New("test-error"))
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, ts.sleepTimes)
}

func TestBackoffWithJitter(t *testing.T) {
	iterations := 10000
	delay := 1 * time.Millisecond

	ts := &testSleeper{}
	sleeperImpl = ts
	defer func() { sleeperImpl = &realSleeper{} }()

	strategy := BackoffWithJitter(backoff.Constant(delay), delay, 0.1)
	for i := 0; i < iterations; i++ {
		assert.True(t, strategy(context.Background(), 1, errors.New("err")))
	}

	// Total is (iterations * delay) +/- 10%
	assert.InDelta(t, float64(10*time.Second), float64(ts.Total()), float64(1*time.Second))

	// Mean is the delay +/- 10%
	assert.InDelta(t, float64(delay), float64(ts.Mean()), 0.1*float64(delay))

	// A uniform 10% window around the mean has an absolute deviation of 5%.
	assert.InDelta(t,
		0.05*float64(delay),
		float64(ts.AbsDeviation()),
		0.05*0.05*float64(delay),
	)
}

type testSleeper struct {
	sleepTimes []time.Duration
}

func (t *testSleeper) Sleep(ctx context.Context, d time.Duration) bool {
	t.sleepTimes = append(t.sleepTimes, d)
	return ctx.Err() == nil
}

func (t *testSleeper) Total() (total time.Duration) {
	for _, d := range t.sleepTimes {
		total += d
	}
	return total
}

func (t *testSleeper) Mean() (mean time.Duration) {
	for _, d := range t.sleepTimes {
		mean += d
	}
	return time.Duration(int(mean) / len(t.sleepTimes))
}

func (t *testSleeper) AbsDeviation() (dev time.Duration) {
	mean := t.Mean()
	for _, d := range t.sleepTimes {
		dev += time.Duration(math.Abs((float64(d) - float64(mean))))
	}
	return time.Duration(int(dev) / len(t.sleepTimes))
}
