package http

import (
	"context"
	nethttp "net/http"
	"time"
)

// Method is an HTTP method accepted by the dashboard API.
type Method string

const (
	MethodGet    Method = nethttp.MethodGet
	MethodPost   Method = nethttp.MethodPost
	MethodPut    Method = nethttp.MethodPut
	MethodPatch  Method = nethttp.MethodPatch
	MethodDelete Method = nethttp.MethodDelete
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete:
		return true
	}
	return false
}

// Query holds query parameters. Values must be strings, booleans or numbers.
type Query map[string]any

// Request describes one API call. It is not modified by the client; per-call
// headers such as Authorization are added to a copy.
type Request struct {
	Method Method
	// Path is joined to the client's base URL unless it is an absolute URL.
	Path    string
	Query   Query
	Headers map[string]string
	// Body is sent as-is when it is []byte or json.RawMessage and JSON-encoded
	// otherwise. Ignored when Multipart is set.
	Body      any
	Multipart *Multipart
}

// Multipart is a multipart/form-data body.
type Multipart struct {
	Fields map[string]string
	Files  []FormFile
}

// FormFile is one file part. Content is held in memory so retries can resend it.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// Response is the raw result of a single attempt.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	Stats      Stats
}

// Stats contains per-attempt execution statistics
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// Transport performs a single network attempt. Implementations must not
// retry and must not interpret the body.
type Transport interface {
	Attempt(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Attempt calls f.
func (f TransportFunc) Attempt(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// RequestInterceptor is called before sending the request
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// ResponseInterceptor is called after receiving the response
type ResponseInterceptor func(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error

// Config holds the client configuration. It is read-only once the client is built.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:5000/api".
	BaseURL string
	// Timeout bounds each attempt, not the whole call.
	Timeout time.Duration
	Retry   RetryPlan
	Dialect Dialect

	UserAgent            string
	DefaultHeaders       map[string]string
	RequestInterceptors  []RequestInterceptor
	ResponseInterceptors []ResponseInterceptor

	// LogPayloads enables debug-level logging of request and response bodies
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
}
