package http

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ms = time.Millisecond

func TestDefaultRetryPlan(t *testing.T) {
	plan := DefaultRetryPlan()
	assert.Equal(t, 3, plan.MaxAttempts)
	assert.Equal(t, []time.Duration{200 * ms, 400 * ms, 800 * ms}, plan.Delays)
	assert.NoError(t, plan.Validate())
}

func TestRetryPlanValidate(t *testing.T) {
	assert.Error(t, RetryPlan{MaxAttempts: 0}.Validate())
	assert.Error(t, RetryPlan{MaxAttempts: 2, Delays: []time.Duration{100 * ms, -1}}.Validate())
	assert.NoError(t, RetryPlan{MaxAttempts: 1}.Validate())
	assert.NoError(t, RetryPlan{MaxAttempts: 5, Delays: []time.Duration{}}.Validate())
}

func TestRetryPlanDelayFor(t *testing.T) {
	plan := DefaultRetryPlan()
	assert.Equal(t, 200*ms, plan.DelayFor(0))
	assert.Equal(t, 400*ms, plan.DelayFor(1))
	assert.Equal(t, 800*ms, plan.DelayFor(2))
	assert.Equal(t, 800*ms, plan.DelayFor(3), "clamped to the last entry")
	assert.Equal(t, 800*ms, plan.DelayFor(10))
	assert.Equal(t, time.Duration(0), plan.DelayFor(-1))

	empty := RetryPlan{MaxAttempts: 4}
	for i := 0; i < 4; i++ {
		assert.Equal(t, time.Duration(0), empty.DelayFor(i))
	}
}

func TestRetryPlanWorstCase(t *testing.T) {
	t.Run("default plan with 8s attempts", func(t *testing.T) {
		// 3 attempts x 8s plus the two waits that precede attempts 2 and 3
		assert.Equal(t, 24*time.Second+600*ms, DefaultRetryPlan().WorstCase(8*time.Second))
	})

	t.Run("single attempt has no backoff", func(t *testing.T) {
		assert.Equal(t, 8*time.Second, RetryPlan{MaxAttempts: 1, Delays: []time.Duration{time.Second}}.WorstCase(8*time.Second))
	})

	t.Run("schedule shorter than the budget clamps", func(t *testing.T) {
		plan := RetryPlan{MaxAttempts: 5, Delays: []time.Duration{100 * ms}}
		assert.Equal(t, 5*time.Second+400*ms, plan.WorstCase(time.Second))
	})

	t.Run("empty schedule", func(t *testing.T) {
		assert.Equal(t, 3*time.Second, RetryPlan{MaxAttempts: 3}.WorstCase(time.Second))
	})
}

func TestShouldRetry(t *testing.T) {
	plan := DefaultRetryPlan()
	httpErr := func(status int) *NormalizedError {
		return Normalize(NewHTTPError("x", status, nil))
	}

	tests := []struct {
		name      string
		attempt   int
		err       *NormalizedError
		wantRetry bool
		wantDelay time.Duration
	}{
		{"500 first attempt", 0, httpErr(500), true, 200 * ms},
		{"503 second attempt", 1, httpErr(503), true, 400 * ms},
		{"500 final attempt", 2, httpErr(500), false, 0},
		{"429 is transient", 0, httpErr(429), true, 200 * ms},
		{"400 is never retried", 0, httpErr(400), false, 0},
		{"401 is never retried", 0, httpErr(401), false, 0},
		{"404 is never retried", 0, httpErr(404), false, 0},
		{"timeout", 0, Normalize(NewTimeoutError("t", time.Second)), true, 200 * ms},
		{"network", 1, Normalize(NewNetworkError("n", nil)), true, 400 * ms},
		{"domain failure", 0, Normalize(&DomainError{StatusCode: 200, Message: "no"}), false, 0},
		{"validation", 0, Normalize(NewValidationError("bad", "path")), false, 0},
		{"canceled", 0, Normalize(NewCanceledError(context.Canceled)), false, 0},
		{"nil error", 0, nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ShouldRetry(tt.attempt, tt.err, plan)
			assert.Equal(t, tt.wantRetry, d.Retry)
			assert.Equal(t, tt.wantDelay, d.Delay)
		})
	}
}

func TestShouldRetryBudget(t *testing.T) {
	err := Normalize(NewHTTPError("x", 500, nil))

	assert.False(t, ShouldRetry(0, err, RetryPlan{MaxAttempts: 1}).Retry)

	plan := RetryPlan{MaxAttempts: 4}
	for i := 0; i < 3; i++ {
		d := ShouldRetry(i, err, plan)
		assert.True(t, d.Retry)
		assert.Zero(t, d.Delay, "empty schedule retries immediately")
	}
	assert.False(t, ShouldRetry(3, err, plan).Retry)
}

func TestRealClockSleep(t *testing.T) {
	clock := RealClock()

	t.Run("zero delay returns at once", func(t *testing.T) {
		assert.NoError(t, clock.Sleep(context.Background(), 0))
	})

	t.Run("short sleep completes", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, clock.Sleep(context.Background(), 5*ms))
		assert.GreaterOrEqual(t, time.Since(start), 5*ms)
	})

	t.Run("cancellation aborts the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * ms)
			cancel()
		}()
		start := time.Now()
		err := clock.Sleep(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), 30*time.Second)
	})

	t.Run("canceled context with zero delay", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, clock.Sleep(ctx, 0), context.Canceled)
	})
}
