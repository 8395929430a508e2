package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/qyquant/qyquant-client/logger"
)

// restoreGlobals resets the otel globals NewProvider installs.
func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestNewProviderNilConfig(t *testing.T) {
	_, err := NewProvider(nil, logger.Nop())
	assert.ErrorIs(t, err, ErrNilConfig)
}

func TestNewProviderDisabled(t *testing.T) {
	p, err := NewProvider(&Config{Enabled: false}, nil)
	require.NoError(t, err)

	_, ok := p.(*noopProvider)
	assert.True(t, ok)
	assert.NotNil(t, p.TracerProvider())
	assert.NotNil(t, p.MeterProvider())
	assert.NoError(t, p.ForceFlush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProviderInvalidConfig(t *testing.T) {
	_, err := NewProvider(&Config{
		Enabled: true,
		Trace:   TraceConfig{SampleRate: Float64Ptr(2)},
	}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidSampleRate)
}

func TestNewProviderStdout(t *testing.T) {
	restoreGlobals(t)

	cfg := &Config{Enabled: true, Service: ServiceConfig{Name: "dashboard-test"}}
	p, err := NewProvider(cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Shutdown(p, time.Second) })

	_, isSDKTracer := p.TracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDKTracer)
	_, isSDKMeter := p.MeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, isSDKMeter)

	assert.Same(t, p.TracerProvider(), otel.GetTracerProvider())
	assert.Empty(t, cfg.Trace.Endpoint, "caller config is not mutated")
}

func TestNewProviderOTLPHTTP(t *testing.T) {
	restoreGlobals(t)

	// exporters connect lazily, so construction succeeds without a collector
	p, err := NewProvider(&Config{
		Enabled: true,
		Service: ServiceConfig{Name: "dashboard-test"},
		Trace:   TraceConfig{Endpoint: "http://127.0.0.1:4318", Protocol: ProtocolHTTP, Insecure: true},
		Metrics: MetricsConfig{Enabled: BoolPtr(false)},
	}, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestNewProviderOTLPGRPC(t *testing.T) {
	restoreGlobals(t)

	p, err := NewProvider(&Config{
		Enabled: true,
		Service: ServiceConfig{Name: "dashboard-test"},
		Trace:   TraceConfig{Enabled: BoolPtr(false)},
		Metrics: MetricsConfig{Endpoint: "127.0.0.1:4317", Protocol: ProtocolGRPC, Insecure: BoolPtr(true)},
	}, logger.Nop())
	require.NoError(t, err)

	_, isSDKMeter := p.MeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, isSDKMeter)
	_, isSDKTracer := p.TracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, isSDKTracer, "tracing explicitly disabled")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(ctx)
}

func TestShutdownHelper(t *testing.T) {
	assert.NoError(t, Shutdown(nil, time.Second))
	assert.NoError(t, Shutdown(newNoopProvider(), 0))
}
