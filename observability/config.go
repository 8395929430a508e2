package observability

import (
	"strings"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that outputs to stdout (for local development).
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name for development mode.
	EnvironmentDevelopment = "development"

	// DefaultServiceName identifies the client when no name is configured.
	DefaultServiceName = "qyquant-client"
)

// BoolPtr returns a pointer to the provided bool value.
func BoolPtr(v bool) *bool {
	return &v
}

// Float64Ptr returns a pointer to the provided float64 value.
func Float64Ptr(v float64) *float64 {
	return &v
}

// Config defines the configuration for the client's traces and metrics.
type Config struct {
	// Enabled controls whether observability is active.
	// When false, all observability operations become no-ops.
	Enabled bool `koanf:"enabled"`

	Service ServiceConfig `koanf:"service"`

	// Environment indicates the deployment environment (e.g., production, staging, development).
	Environment string `koanf:"environment"`

	Trace   TraceConfig   `koanf:"trace"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// ServiceConfig contains service identification metadata.
type ServiceConfig struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// TraceConfig defines configuration for call spans.
type TraceConfig struct {
	// Enabled: nil = apply default (true when observability is enabled), false = explicitly disabled.
	Enabled *bool `koanf:"enabled"`

	// Endpoint specifies where to send trace data.
	// Special value "stdout" enables console output for local development.
	Endpoint string `koanf:"endpoint"`

	// Protocol is "http" or "grpc"; only used when Endpoint is not "stdout".
	Protocol string `koanf:"protocol"`

	// Insecure disables TLS for OTLP endpoints.
	Insecure bool `koanf:"insecure"`

	// Headers are sent with every OTLP export, e.g. an API key.
	Headers map[string]string `koanf:"headers"`

	// SampleRate is the fraction of calls traced (0.0 to 1.0). nil = 1.0.
	SampleRate *float64 `koanf:"samplerate"`

	// BatchTimeout is how long spans wait before a batch export.
	BatchTimeout time.Duration `koanf:"batchtimeout"`

	// ExportTimeout bounds a single export.
	ExportTimeout time.Duration `koanf:"exporttimeout"`
}

// MetricsConfig defines configuration for metrics collection.
type MetricsConfig struct {
	// Enabled: nil = apply default (true when observability is enabled), false = explicitly disabled.
	Enabled *bool `koanf:"enabled"`

	// Endpoint specifies where to send metric data; "stdout" prints them.
	Endpoint string `koanf:"endpoint"`

	// Protocol is "http" or "grpc". Empty inherits the trace protocol.
	Protocol string `koanf:"protocol"`

	// Insecure falls back to the trace setting when unset.
	Insecure *bool `koanf:"insecure"`

	// Headers inherit the trace headers when empty.
	Headers map[string]string `koanf:"headers"`

	// Interval specifies how often to export metrics.
	Interval time.Duration `koanf:"interval"`

	// ExportTimeout bounds a single export.
	ExportTimeout time.Duration `koanf:"exporttimeout"`
}

// ApplyDefaults sets default values for any config fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.Service.Name == "" {
		c.Service.Name = DefaultServiceName
	}
	if c.Service.Version == "" {
		c.Service.Version = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}

	c.applyTraceDefaults()
	c.applyMetricsDefaults()
}

func (c *Config) applyTraceDefaults() {
	if c.Trace.Endpoint == "" {
		c.Trace.Endpoint = EndpointStdout
	}
	// Only set when nil (unset). If explicitly set to false, preserve it.
	if c.Enabled && c.Trace.Enabled == nil {
		c.Trace.Enabled = BoolPtr(true)
	}
	if c.Trace.Protocol == "" {
		c.Trace.Protocol = ProtocolHTTP
	}
	if c.Trace.SampleRate == nil {
		c.Trace.SampleRate = Float64Ptr(1.0)
	}

	// Development: faster export for near-instant span visibility
	if c.Trace.BatchTimeout == 0 {
		if c.Environment == EnvironmentDevelopment || c.Trace.Endpoint == EndpointStdout {
			c.Trace.BatchTimeout = 500 * time.Millisecond
		} else {
			c.Trace.BatchTimeout = 5 * time.Second
		}
	}
	if c.Trace.ExportTimeout == 0 {
		if c.Environment == EnvironmentDevelopment || c.Trace.Endpoint == EndpointStdout {
			c.Trace.ExportTimeout = 10 * time.Second
		} else {
			c.Trace.ExportTimeout = 60 * time.Second
		}
	}
}

func (c *Config) applyMetricsDefaults() {
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = EndpointStdout
	}
	if c.Enabled && c.Metrics.Enabled == nil {
		c.Metrics.Enabled = BoolPtr(true)
	}
	if c.Metrics.Protocol == "" {
		c.Metrics.Protocol = c.Trace.Protocol
	}
	if c.Metrics.Insecure == nil {
		c.Metrics.Insecure = BoolPtr(c.Trace.Insecure)
	}
	if len(c.Metrics.Headers) == 0 && len(c.Trace.Headers) > 0 {
		c.Metrics.Headers = make(map[string]string, len(c.Trace.Headers))
		for k, v := range c.Trace.Headers {
			c.Metrics.Headers[k] = v
		}
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 10 * time.Second
	}
	if c.Metrics.ExportTimeout == 0 {
		if c.Environment == EnvironmentDevelopment || c.Metrics.Endpoint == EndpointStdout {
			c.Metrics.ExportTimeout = 10 * time.Second
		} else {
			c.Metrics.ExportTimeout = 60 * time.Second
		}
	}
}

// Validate checks the configuration for common errors.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.Service.Name == "" {
		return ErrMissingServiceName
	}

	if c.Trace.SampleRate != nil {
		rate := *c.Trace.SampleRate
		if rate < 0.0 || rate > 1.0 {
			return ErrInvalidSampleRate
		}
	}
	if err := validateEndpoint(c.Trace.Endpoint, c.Trace.Protocol); err != nil {
		return err
	}
	return validateEndpoint(c.Metrics.Endpoint, c.Metrics.Protocol)
}

// validateEndpoint checks that the protocol is known and the endpoint format matches it.
// gRPC endpoints use "host:port"; HTTP endpoints carry the scheme.
func validateEndpoint(endpoint, protocol string) error {
	if endpoint == EndpointStdout || endpoint == "" {
		return nil
	}
	if protocol != ProtocolHTTP && protocol != ProtocolGRPC {
		return ErrInvalidProtocol
	}

	hasScheme := strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
	if protocol == ProtocolGRPC && hasScheme {
		return ErrInvalidEndpointFormat
	}
	if protocol == ProtocolHTTP && !hasScheme {
		return ErrInvalidEndpointFormat
	}
	return nil
}
