package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaultsDisabled(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultServiceName, cfg.Service.Name)
	assert.Equal(t, "unknown", cfg.Service.Version)
	assert.Equal(t, EnvironmentDevelopment, cfg.Environment)
	assert.Equal(t, EndpointStdout, cfg.Trace.Endpoint)
	assert.Nil(t, cfg.Trace.Enabled, "enabled flags stay unset when observability is off")
	assert.Nil(t, cfg.Metrics.Enabled)
	require.NotNil(t, cfg.Trace.SampleRate)
	assert.InDelta(t, 1.0, *cfg.Trace.SampleRate, 0)
}

func TestApplyDefaultsEnabled(t *testing.T) {
	cfg := Config{
		Enabled:     true,
		Environment: "production",
		Trace: TraceConfig{
			Endpoint: "collector:4317",
			Protocol: ProtocolGRPC,
			Insecure: true,
			Headers:  map[string]string{"api-key": "k"},
		},
		Metrics: MetricsConfig{Endpoint: "collector:4317"},
	}
	cfg.ApplyDefaults()

	require.NotNil(t, cfg.Trace.Enabled)
	assert.True(t, *cfg.Trace.Enabled)
	require.NotNil(t, cfg.Metrics.Enabled)
	assert.True(t, *cfg.Metrics.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Trace.BatchTimeout)
	assert.Equal(t, 60*time.Second, cfg.Trace.ExportTimeout)

	// metrics inherit transport settings from traces
	assert.Equal(t, ProtocolGRPC, cfg.Metrics.Protocol)
	require.NotNil(t, cfg.Metrics.Insecure)
	assert.True(t, *cfg.Metrics.Insecure)
	assert.Equal(t, map[string]string{"api-key": "k"}, cfg.Metrics.Headers)
	assert.Equal(t, 10*time.Second, cfg.Metrics.Interval)

	cfg.Metrics.Headers["other"] = "x"
	assert.NotContains(t, cfg.Trace.Headers, "other", "headers are copied, not aliased")
}

func TestApplyDefaultsKeepsExplicitDisable(t *testing.T) {
	cfg := Config{Enabled: true, Metrics: MetricsConfig{Enabled: BoolPtr(false)}}
	cfg.ApplyDefaults()
	assert.False(t, *cfg.Metrics.Enabled)
	assert.True(t, *cfg.Trace.Enabled)
}

func TestConfigValidate(t *testing.T) {
	var nilCfg *Config
	assert.ErrorIs(t, nilCfg.Validate(), ErrNilConfig)

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"disabled skips validation", Config{Service: ServiceConfig{}}, nil},
		{"missing service name", Config{Enabled: true}, ErrMissingServiceName},
		{"sample rate too high", Config{Enabled: true, Service: ServiceConfig{Name: "svc"}, Trace: TraceConfig{SampleRate: Float64Ptr(1.5)}}, ErrInvalidSampleRate},
		{"negative sample rate", Config{Enabled: true, Service: ServiceConfig{Name: "svc"}, Trace: TraceConfig{SampleRate: Float64Ptr(-0.1)}}, ErrInvalidSampleRate},
		{"stdout endpoint", Config{Enabled: true, Service: ServiceConfig{Name: "svc"}, Trace: TraceConfig{Endpoint: EndpointStdout}}, nil},
		{"http endpoint with scheme", Config{Enabled: true, Service: ServiceConfig{Name: "svc"}, Trace: TraceConfig{Endpoint: "http://localhost:4318", Protocol: ProtocolHTTP}}, nil},
		{"http endpoint without scheme", Config{Enabled: true, Service: ServiceConfig{Name: "svc"}, Trace: TraceConfig{Endpoint: "localhost:4318", Protocol: ProtocolHTTP}}, ErrInvalidEndpointFormat},
		{"grpc endpoint with scheme", Config{Enabled: true, Service: ServiceConfig{Name: "svc"}, Metrics: MetricsConfig{Endpoint: "http://localhost:4317", Protocol: ProtocolGRPC}}, ErrInvalidEndpointFormat},
		{"unknown protocol", Config{Enabled: true, Service: ServiceConfig{Name: "svc"}, Trace: TraceConfig{Endpoint: "localhost:4317", Protocol: "udp"}}, ErrInvalidProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
