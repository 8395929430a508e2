package http

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/qyquant/qyquant-client/observability"
)

const (
	// Instrumentation scope for client metrics and spans
	instrumentationName = "github.com/qyquant/qyquant-client/http"

	metricAttempts        = "qyquant.client.attempts"         // Counter
	metricRetries         = "qyquant.client.retries"          // Counter
	metricRequestDuration = "qyquant.client.request.duration" // Histogram in seconds

	attrMethod     = "http.request.method"
	attrPath       = "url.path"
	attrStatusCode = "http.response.status_code"
	attrErrorType  = "error.type"
	attrAttempts   = "qyquant.client.attempt_count"
)

// clientMetrics holds the instruments recorded by Client.Do. Instruments that
// fail to initialize are left nil and skipped.
type clientMetrics struct {
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

// logMetricError logs a metric initialization error to stderr.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize client metric %s: %v\n", metricName, err)
	}
}

// newClientMetrics creates the instruments from mp, or from the global
// provider when mp is nil.
func newClientMetrics(mp metric.MeterProvider) *clientMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	m := &clientMetrics{}
	var err error

	m.attempts, err = observability.CreateCounter(meter, metricAttempts,
		"Number of transport attempts",
		metric.WithUnit("{attempt}"),
	)
	logMetricError(metricAttempts, err)

	m.retries, err = observability.CreateCounter(meter, metricRetries,
		"Number of retries scheduled after a transient failure",
		metric.WithUnit("{retry}"),
	)
	logMetricError(metricRetries, err)

	m.duration, err = observability.CreateHistogram(meter, metricRequestDuration,
		"Duration of a client call including retries and backoff",
		metric.WithUnit("s"),
	)
	logMetricError(metricRequestDuration, err)

	return m
}

func (m *clientMetrics) recordAttempt(ctx context.Context, method Method, path string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, string(method)),
		attribute.String(attrPath, path),
	))
}

func (m *clientMetrics) recordRetry(ctx context.Context, method Method, path string, kind ErrorType) {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, string(method)),
		attribute.String(attrPath, path),
		attribute.String(attrErrorType, string(kind)),
	))
}

// recordDuration records the total call duration; err is nil on success.
func (m *clientMetrics) recordDuration(ctx context.Context, method Method, path string, elapsed time.Duration, err *NormalizedError) {
	if m == nil || m.duration == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, string(method)),
		attribute.String(attrPath, path),
	}
	if err != nil {
		attrs = append(attrs, attribute.String(attrErrorType, string(err.Kind)))
		if err.StatusCode != 0 {
			attrs = append(attrs, attribute.Int(attrStatusCode, err.StatusCode))
		}
	}
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}
