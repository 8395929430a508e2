// Package mockapi serves the dashboard API from in-memory fixtures. It speaks
// both envelope dialects and can script failures per route, which makes it
// the backend for the client's integration tests and for local demos.
package mockapi

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel/trace"

	"github.com/qyquant/qyquant-client/api"
	qyhttp "github.com/qyquant/qyquant-client/http"
	"github.com/qyquant/qyquant-client/logger"
)

const (
	// BasePath prefixes every route.
	BasePath = "/api"

	// DefaultEmail and DefaultPassword are the credentials of the seeded account.
	DefaultEmail    = "demo@qyquant.io"
	DefaultPassword = "demo123"

	defaultServiceName = "qyquant-mockapi"
)

// Options configures a Server.
type Options struct {
	// Dialect selects the envelope written around every payload. Defaults to code.
	Dialect qyhttp.Dialect
	// Latency is added before every response.
	Latency time.Duration
	// Users maps login emails to passwords. Defaults to the seeded account.
	Users map[string]string
	// RateLimit caps requests per second per client IP; 0 disables it.
	// Excess requests get a 429 envelope.
	RateLimit float64
	// ServiceName names the server spans.
	ServiceName string
	// TracerProvider records server spans; nil uses the global provider.
	TracerProvider trace.TracerProvider
}

// RecordedRequest is what the server saw of one request.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
}

// Server is an echo application holding the mutable fixture state.
type Server struct {
	echo    *echo.Echo
	logger  logger.Logger
	dialect qyhttp.Dialect
	latency time.Duration

	mu       sync.Mutex
	users    map[string]string
	tokens   map[string]string
	user     api.User
	bots     []api.Bot
	posts    []api.Post
	strats   []api.Strategy
	backtest api.Backtest
	jobs     map[string]api.Backtest
	files    map[string]api.File
	faults   map[string][]Fault
	hits     map[string]int
	requests []RecordedRequest
}

// New creates a server seeded with the fixture data.
func New(opts Options, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Dialect == "" {
		opts.Dialect = qyhttp.DialectCode
	}
	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}
	users := opts.Users
	if len(users) == 0 {
		users = map[string]string{DefaultEmail: DefaultPassword}
	}

	fx, err := loadFixtures()
	if err != nil {
		return nil, err
	}

	s := &Server{
		logger:   log,
		dialect:  opts.Dialect,
		latency:  opts.Latency,
		users:    users,
		tokens:   make(map[string]string),
		user:     fx.user,
		bots:     fx.bots,
		posts:    fx.posts,
		strats:   fx.strategies,
		backtest: fx.backtest,
		jobs:     make(map[string]api.Backtest),
		files:    make(map[string]api.File),
		faults:   make(map[string][]Fault),
		hits:     make(map[string]int),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = s.errorHandler

	var otelOpts []otelecho.Option
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelecho.WithTracerProvider(opts.TracerProvider))
	}

	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware(opts.ServiceName, otelOpts...))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Bytes("stack", stack).
				Msg("Panic recovered")
			return err
		},
	}))
	e.Use(s.requestLogger())
	e.Use(s.recorder())
	if opts.RateLimit > 0 {
		e.Use(s.rateLimiter(opts.RateLimit))
	}
	e.Use(s.faultInjector())

	s.echo = e
	s.registerRoutes()
	return s, nil
}

// Handler exposes the server for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.logger.Info().
		Str("address", addr).
		Str("dialect", string(s.dialect)).
		Msg("Starting mock API...")
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request to method and path.
func (s *Server) LastRequest(method, path string) (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return RecordedRequest{}, false
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			s.logger.Debug().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Msg("Mock request")
			return nil
		}
	}
}

func (s *Server) recorder() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			s.mu.Lock()
			s.requests = append(s.requests, RecordedRequest{
				Method: req.Method,
				Path:   req.URL.Path,
				Query:  req.URL.Query(),
				Header: req.Header.Clone(),
			})
			s.mu.Unlock()
			return next(c)
		}
	}
}

// pause waits for d or until the client goes away.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
