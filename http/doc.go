// Package http is the resilient client for the qyquant dashboard API.
//
// A call flows through four pieces:
//
//   - Transport performs exactly one round trip with a per-attempt timeout and
//     reports either the raw response or a typed ClientError (timeout,
//     network, http, validation, interceptor, canceled).
//   - Normalize maps any failure into a *NormalizedError carrying an optional
//     HTTP status, an optional server machine code and a non-empty message.
//   - ShouldRetry decides, per failed attempt, whether to try again and how
//     long to wait, using a RetryPlan (attempt budget + delay schedule).
//   - Unwrap strips the server envelope ({"code":0,...} or {"success":true,...})
//     and returns the payload, or a *DomainError when the envelope reports a
//     logical failure.
//
// Client.Do and the generic Send/Get/Post/... helpers compose them.
//
// Retries
//   - Retried: timeouts, connection failures, HTTP 429 and 5xx.
//   - Never retried: other 4xx, envelope (domain) failures, malformed requests,
//     caller cancellation.
//   - Attempt i (0-based) waits Delays[i] before attempt i+1, clamped to the
//     last entry; an empty schedule retries immediately.
//
// Timeouts apply per attempt, so one call may take up to
// RetryPlan.WorstCase(timeout) = MaxAttempts*timeout + the sum of the
// delays that precede the last attempt.
//
// Session
//
// The bearer token, locale and market style live on an explicit *Session.
// A 401 clears the token and invokes the session's unauthorized callback.
package http
