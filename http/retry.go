package http

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"
)

// RetryPlan bounds the attempts of one call and the waits between them.
type RetryPlan struct {
	// MaxAttempts counts the initial attempt; 1 disables retries.
	MaxAttempts int
	// Delays[i] is waited after failed attempt i. Indexes past the end reuse
	// the last entry; an empty schedule retries immediately.
	Delays []time.Duration
}

// DefaultRetryPlan returns 3 attempts with a 200ms, 400ms, 800ms schedule.
func DefaultRetryPlan() RetryPlan {
	return RetryPlan{
		MaxAttempts: 3,
		Delays:      []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond},
	}
}

// Validate rejects plans with no attempts or negative delays.
func (p RetryPlan) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry plan: max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	for i, d := range p.Delays {
		if d < 0 {
			return fmt.Errorf("retry plan: delay %d is negative (%v)", i, d)
		}
	}
	return nil
}

// DelayFor returns the wait after failed attempt i.
func (p RetryPlan) DelayFor(i int) time.Duration {
	if len(p.Delays) == 0 || i < 0 {
		return 0
	}
	if i >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[i]
}

// WorstCase is the longest a call can take when every attempt runs into the
// per-attempt timeout: MaxAttempts*timeout plus every delay that precedes
// the final attempt.
func (p RetryPlan) WorstCase(timeout time.Duration) time.Duration {
	attempts := max(p.MaxAttempts, 1)
	total := time.Duration(attempts) * timeout
	for i := 0; i < attempts-1; i++ {
		total += p.DelayFor(i)
	}
	return total
}

// RetryDecision is the policy's verdict on one failed attempt.
type RetryDecision struct {
	Retry bool
	Delay time.Duration
}

// IsTransient reports whether err is worth retrying: no response at all
// (timeout, connection failure), 429, or any 5xx.
func IsTransient(err *NormalizedError) bool {
	if err == nil {
		return false
	}
	switch err.Kind {
	case TimeoutError, NetworkError:
		return true
	case HTTPError:
		return err.StatusCode == nethttp.StatusTooManyRequests || err.StatusCode >= 500
	default:
		return false
	}
}

// ShouldRetry decides whether to start another attempt after attempt
// attemptIndex (0-based) failed with err.
func ShouldRetry(attemptIndex int, err *NormalizedError, plan RetryPlan) RetryDecision {
	if !IsTransient(err) {
		return RetryDecision{}
	}
	if attemptIndex+1 >= max(plan.MaxAttempts, 1) {
		return RetryDecision{}
	}
	return RetryDecision{Retry: true, Delay: plan.DelayFor(attemptIndex)}
}

// Clock suspends the calling goroutine between attempts.
type Clock interface {
	// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns a Clock backed by time.Timer.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
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
