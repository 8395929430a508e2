package http

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/qyquant/qyquant-client/logger"
	"github.com/qyquant/qyquant-client/trace"
)

const (
	// DefaultBaseURL is the API root used when none is configured
	DefaultBaseURL = "http://localhost:5000/api"

	headerAuthorization  = "Authorization"
	headerAcceptLanguage = "Accept-Language"
)

// ErrorHandler observes every error a call surfaces, once per call.
type ErrorHandler func(ctx context.Context, req *Request, err *NormalizedError)

// Client is the single entry point application code calls. It is safe for
// concurrent use; calls share only the session and the metric instruments.
type Client struct {
	transport Transport
	session   *Session
	logger    logger.Logger
	plan      RetryPlan
	timeout   time.Duration
	dialect   Dialect
	clock     Clock
	onError   ErrorHandler
	metrics   *clientMetrics
	tracer    oteltrace.Tracer
}

// Option customizes a Client beyond its Config.
type Option func(*options)

type options struct {
	session        *Session
	clock          Clock
	transport      Transport
	httpClient     *nethttp.Client
	onError        ErrorHandler
	meterProvider  metric.MeterProvider
	tracerProvider oteltrace.TracerProvider
}

// WithSession shares s between clients; by default each client gets a fresh session.
func WithSession(s *Session) Option {
	return func(o *options) { o.session = s }
}

// WithClock replaces the clock used for backoff waits.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithTransport replaces the net/http transport.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithHTTPClient sets the *http.Client used by the default transport.
func WithHTTPClient(hc *nethttp.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithErrorHandler registers the hook called with every surfaced error.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.onError = h }
}

// WithMeterProvider records client metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTracerProvider creates call spans on tp instead of the global provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// NewClient creates a client from cfg. Zero values in cfg get defaults:
// DefaultBaseURL, DefaultTimeout, DefaultRetryPlan and DialectCode.
func NewClient(cfg Config, log logger.Logger, opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if log == nil {
		log = logger.Nop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry.MaxAttempts == 0 && cfg.Retry.Delays == nil {
		cfg.Retry = DefaultRetryPlan()
	}
	if cfg.Dialect == "" {
		cfg.Dialect = DialectCode
	}

	if err := cfg.Retry.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Dialect.Valid() {
		return nil, fmt.Errorf("unsupported envelope dialect %q", cfg.Dialect)
	}

	c := &Client{
		transport: o.transport,
		session:   o.session,
		logger:    log,
		plan:      cfg.Retry,
		timeout:   cfg.Timeout,
		dialect:   cfg.Dialect,
		clock:     o.clock,
		onError:   o.onError,
		metrics:   newClientMetrics(o.meterProvider),
	}
	if c.transport == nil {
		c.transport = NewTransport(cfg, log, o.httpClient)
	}
	if c.session == nil {
		c.session = NewSession()
	}
	if c.clock == nil {
		c.clock = RealClock()
	}

	tp := o.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(instrumentationName)

	return c, nil
}

// Session returns the session the client reads credentials and preferences from.
func (c *Client) Session() *Session {
	return c.session
}

// RetryPlan returns the client's retry plan.
func (c *Client) RetryPlan() RetryPlan {
	return c.plan
}

// WorstCaseDuration is the longest a single call can take: every attempt
// running into the per-attempt timeout plus the backoff between them.
func (c *Client) WorstCaseDuration() time.Duration {
	return c.plan.WorstCase(c.timeout)
}

// Do executes req with retries and returns the unwrapped envelope payload.
// Every returned error is a *NormalizedError.
func (c *Client) Do(ctx context.Context, req *Request) (json.RawMessage, error) {
	return c.do(ctx, req, nil)
}

// do runs the retry loop inside the call span. accept, when set, consumes
// the payload before the call is recorded; its error fails the call.
func (c *Client) do(ctx context.Context, req *Request, accept func(json.RawMessage) error) (json.RawMessage, error) {
	start := time.Now()
	locale := c.session.Locale()

	if err := validateRequest(req); err != nil {
		return nil, c.fail(ctx, req, nil, NormalizeIn(locale, err))
	}

	ctx, requestID := trace.EnsureRequestID(ctx)
	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("%s %s", req.Method, req.Path),
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			attribute.String(attrMethod, string(req.Method)),
			attribute.String(attrPath, req.Path),
			attribute.String("qyquant.request_id", requestID),
		),
	)
	defer span.End()

	call := c.prepare(req, requestID, locale)

	for attempt := 0; ; attempt++ {
		c.metrics.recordAttempt(ctx, req.Method, req.Path)

		data, err := c.attempt(ctx, call)
		if err == nil && accept != nil {
			if derr := accept(data); derr != nil {
				nerr := NormalizeIn(locale, derr)
				span.SetAttributes(attribute.Int(attrAttempts, attempt+1))
				c.metrics.recordDuration(ctx, req.Method, req.Path, time.Since(start), nerr)
				return nil, c.fail(ctx, req, span, nerr)
			}
		}
		if err == nil {
			span.SetAttributes(attribute.Int(attrAttempts, attempt+1))
			span.SetStatus(codes.Ok, "")
			c.metrics.recordDuration(ctx, req.Method, req.Path, time.Since(start), nil)
			return data, nil
		}

		nerr := NormalizeIn(locale, err)
		if nerr.Kind == HTTPError && nerr.StatusCode == nethttp.StatusUnauthorized {
			c.session.handleUnauthorized()
		}

		decision := ShouldRetry(attempt, nerr, c.plan)
		if !decision.Retry {
			span.SetAttributes(attribute.Int(attrAttempts, attempt+1))
			c.metrics.recordDuration(ctx, req.Method, req.Path, time.Since(start), nerr)
			return nil, c.fail(ctx, req, span, nerr)
		}

		c.logger.Warn().
			Str("request_id", requestID).
			Str("method", string(req.Method)).
			Str("path", req.Path).
			Int("attempt", attempt+1).
			Int("status", nerr.StatusCode).
			Str("kind", string(nerr.Kind)).
			Dur("delay", decision.Delay).
			Msg("Retrying API request")
		c.metrics.recordRetry(ctx, req.Method, req.Path, nerr.Kind)
		span.AddEvent("retry", oteltrace.WithAttributes(
			attribute.Int("attempt", attempt+1),
			attribute.String(attrErrorType, string(nerr.Kind)),
		))

		if err := c.wait(ctx, decision.Delay); err != nil {
			canceled := NormalizeIn(locale, NewCanceledError(err))
			span.SetAttributes(attribute.Int(attrAttempts, attempt+1))
			c.metrics.recordDuration(ctx, req.Method, req.Path, time.Since(start), canceled)
			return nil, c.fail(ctx, req, span, canceled)
		}
	}
}

// attempt runs one transport attempt and unwraps the envelope on success.
func (c *Client) attempt(ctx context.Context, call *Request) (json.RawMessage, error) {
	resp, err := c.transport.Attempt(ctx, call)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return Unwrap(c.dialect, resp.StatusCode, resp.Body)
}

// wait sleeps for d on the client clock. A zero delay only checks ctx.
func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return c.clock.Sleep(ctx, d)
}

// prepare copies req and adds the per-call headers. The caller's maps are not modified.
func (c *Client) prepare(req *Request, requestID string, locale Locale) *Request {
	call := *req
	headers := make(map[string]string, len(req.Headers)+3)
	if token, ok := c.session.Token(); ok {
		headers[headerAuthorization] = "Bearer " + token
	}
	headers[headerAcceptLanguage] = string(locale)
	headers[trace.HeaderRequestID] = requestID
	for k, v := range req.Headers {
		headers[k] = v
	}
	call.Headers = headers
	return &call
}

// fail logs and reports a surfaced error, then returns it.
func (c *Client) fail(ctx context.Context, req *Request, span oteltrace.Span, nerr *NormalizedError) error {
	event := c.logger.Error().
		Str("kind", string(nerr.Kind)).
		Int("status", nerr.StatusCode)
	if req != nil {
		event = event.Str("method", string(req.Method)).Str("path", req.Path)
	}
	if id, ok := trace.RequestIDFromContext(ctx); ok {
		event = event.Str("request_id", id)
	}
	if nerr.Code != "" {
		event = event.Str("code", nerr.Code)
	}
	event.Msg(nerr.Message)

	if span != nil {
		span.RecordError(nerr)
		span.SetStatus(codes.Error, nerr.Message)
		if nerr.StatusCode != 0 {
			span.SetAttributes(attribute.Int(attrStatusCode, nerr.StatusCode))
		}
	}

	if c.onError != nil {
		c.onError(ctx, req, nerr)
	}
	return nerr
}

// Send executes req and decodes the payload into T.
func Send[T any](ctx context.Context, c *Client, req *Request) (T, error) {
	var out T
	_, err := c.do(ctx, req, func(data json.RawMessage) error {
		v, err := Decode[T](nethttp.StatusOK, data)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Get performs a GET request and decodes the payload into T.
func Get[T any](ctx context.Context, c *Client, path string, query Query) (T, error) {
	return Send[T](ctx, c, &Request{Method: MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body and decodes the payload into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return Send[T](ctx, c, &Request{Method: MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body and decodes the payload into T.
func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return Send[T](ctx, c, &Request{Method: MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body and decodes the payload into T.
func Patch[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return Send[T](ctx, c, &Request{Method: MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request and decodes the payload into T.
func Delete[T any](ctx context.Context, c *Client, path string) (T, error) {
	return Send[T](ctx, c, &Request{Method: MethodDelete, Path: path})
}
