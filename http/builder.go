package http

import (
	"time"

	"github.com/qyquant/qyquant-client/logger"
)

// Builder provides a fluent interface for configuring the API client
type Builder struct {
	config Config
	opts   []Option
	logger logger.Logger
}

// NewBuilder creates a new client builder with the default timeout, retry
// plan and envelope dialect.
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: Config{
			BaseURL:        DefaultBaseURL,
			Timeout:        DefaultTimeout,
			Retry:          DefaultRetryPlan(),
			Dialect:        DialectCode,
			DefaultHeaders: make(map[string]string),
		},
		logger: log,
	}
}

// WithBaseURL sets the API root requests are resolved against
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the per-attempt timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetryPlan sets the attempt budget and the delay schedule
func (b *Builder) WithRetryPlan(plan RetryPlan) *Builder {
	b.config.Retry = plan
	return b
}

// WithDialect selects the response envelope dialect
func (b *Builder) WithDialect(d Dialect) *Builder {
	b.config.Dialect = d
	return b
}

// WithUserAgent overrides the User-Agent header
func (b *Builder) WithUserAgent(ua string) *Builder {
	b.config.UserAgent = ua
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.config.RequestInterceptors = append(b.config.RequestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.config.ResponseInterceptors = append(b.config.ResponseInterceptors, interceptor)
	return b
}

// WithPayloadLogging enables debug logging of bodies, truncated to maxBytes
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// WithOptions appends client options such as WithSession or WithClock
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Build creates the API client with the configured options
func (b *Builder) Build() (*Client, error) {
	return NewClient(b.config, b.logger, b.opts...)
}
