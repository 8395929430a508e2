package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	nethttp "net/http"
	"net/textproto"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/qyquant/qyquant-client/logger"
	"github.com/qyquant/qyquant-client/trace"
)

const (
	// DefaultTimeout is the default per-attempt timeout
	DefaultTimeout = 8 * time.Second

	// DefaultUserAgent identifies the client to the API
	DefaultUserAgent = "qyquant-client"

	defaultMaxPayloadLogBytes = 1024
	jsonContentType           = "application/json"
)

// netTransport implements Transport on top of net/http
type netTransport struct {
	httpClient           *nethttp.Client
	logger               logger.Logger
	filter               *logger.SensitiveDataFilter
	config               Config
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	callCount            int64
}

// NewTransport creates the net/http transport. A nil httpClient gets a
// default client; the per-attempt timeout is applied through the request
// context, so httpClient.Timeout is left alone.
func NewTransport(cfg Config, log logger.Logger, httpClient *nethttp.Client) Transport {
	if httpClient == nil {
		httpClient = &nethttp.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxPayloadLogBytes <= 0 {
		cfg.MaxPayloadLogBytes = defaultMaxPayloadLogBytes
	}
	return &netTransport{
		httpClient:           httpClient,
		logger:               log,
		filter:               logger.NewSensitiveDataFilter(nil),
		config:               cfg,
		requestInterceptors:  cfg.RequestInterceptors,
		responseInterceptors: cfg.ResponseInterceptors,
	}
}

// Attempt performs a single round trip.
func (t *netTransport) Attempt(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	httpReq, err := t.buildRequest(attemptCtx, req)
	if err != nil {
		return nil, err
	}
	t.logRequest(httpReq, req)

	start := time.Now()
	callCount := atomic.AddInt64(&t.callCount, 1)

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, t.classify(ctx, err)
	}

	resp, err := t.buildResponse(attemptCtx, start, callCount, httpReq, httpResp)
	if err != nil {
		if IsErrorType(err, InterceptorError) {
			return nil, err
		}
		return nil, t.classify(ctx, err)
	}
	t.logResponse(httpReq, resp)

	if resp.StatusCode >= 400 {
		return resp, NewHTTPError(
			fmt.Sprintf("HTTP request failed with status %d", resp.StatusCode),
			resp.StatusCode,
			resp.Body,
		)
	}
	return resp, nil
}

// classify turns a round-trip error into a ClientError. The caller's own
// context ending is a cancellation, not a timeout of this attempt.
func (t *netTransport) classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return NewCanceledError(parent.Err())
	}
	if isTimeout(err) {
		return NewTimeoutError("request timeout", t.config.Timeout)
	}
	return NewNetworkError("request execution failed", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// validateRequest rejects descriptors that can never succeed
func validateRequest(req *Request) error {
	if req == nil {
		return NewValidationError("request cannot be nil", "request")
	}
	if !req.Method.Valid() {
		return NewValidationError(fmt.Sprintf("unsupported method %q", req.Method), "method")
	}
	if req.Path == "" {
		return NewValidationError("path cannot be empty", "path")
	}
	return nil
}

// resolveURL joins the base URL, the request path and the query string.
func resolveURL(base, path string, query Query) (string, error) {
	raw := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		raw = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("invalid URL %q: %v", raw, err), "path")
	}
	if u.Scheme == "" || u.Host == "" {
		return "", NewValidationError(fmt.Sprintf("URL %q is not absolute", raw), "path")
	}

	if len(query) > 0 {
		q := u.Query()
		for key, value := range query {
			s, err := formatQueryValue(value)
			if err != nil {
				return "", NewValidationError(err.Error(), "query."+key)
			}
			q.Set(key, s)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// formatQueryValue renders strings, booleans and numbers, including named
// types built on them such as a status enum.
func formatQueryValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported query value type %T", v)
	}
}

// encodeBody returns the body reader and its content type.
func encodeBody(req *Request) (io.Reader, string, error) {
	if req.Multipart != nil {
		return encodeMultipart(req.Multipart)
	}
	switch body := req.Body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(body), jsonContentType, nil
	case json.RawMessage:
		return bytes.NewReader(body), jsonContentType, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", NewValidationError(fmt.Sprintf("cannot encode body: %v", err), "body")
		}
		return bytes.NewReader(data), jsonContentType, nil
	}
}

func encodeMultipart(m *Multipart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range m.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", NewValidationError(fmt.Sprintf("cannot write field: %v", err), "multipart."+name)
		}
	}

	for _, f := range m.Files {
		if f.Field == "" || f.Filename == "" {
			return nil, "", NewValidationError("file part needs a field name and a filename", "multipart.files")
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", NewValidationError(fmt.Sprintf("cannot create file part: %v", err), "multipart.files")
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, "", NewValidationError(fmt.Sprintf("cannot write file part: %v", err), "multipart.files")
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", NewValidationError(fmt.Sprintf("cannot finish multipart body: %v", err), "multipart")
	}
	return &buf, w.FormDataContentType(), nil
}

// buildRequest constructs an *http.Request, applies headers, and runs request interceptors.
func (t *netTransport) buildRequest(ctx context.Context, req *Request) (*nethttp.Request, error) {
	target, err := resolveURL(t.config.BaseURL, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := nethttp.NewRequestWithContext(ctx, string(req.Method), target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("failed to create HTTP request: %v", err), "request")
	}

	httpReq.Header.Set("Accept", jsonContentType)
	httpReq.Header.Set("User-Agent", t.config.UserAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	// Apply default headers, then request-specific ones (these override defaults)
	for key, value := range t.config.DefaultHeaders {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	trace.Inject(ctx, httpReq.Header)

	if err := t.runRequestInterceptors(ctx, httpReq); err != nil {
		return nil, NewInterceptorError("request interceptor failed", "request", err)
	}
	return httpReq, nil
}

// buildResponse runs response interceptors, reads body, and builds a Response.
func (t *netTransport) buildResponse(ctx context.Context, start time.Time, callCount int64, httpReq *nethttp.Request, httpResp *nethttp.Response) (*Response, error) {
	defer httpResp.Body.Close()

	if err := t.runResponseInterceptors(ctx, httpReq, httpResp); err != nil {
		return nil, NewInterceptorError("response interceptor failed", "response", err)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   callCount,
		},
	}, nil
}

// runRequestInterceptors executes all request interceptors
func (t *netTransport) runRequestInterceptors(ctx context.Context, req *nethttp.Request) error {
	for _, interceptor := range t.requestInterceptors {
		if err := interceptor(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// runResponseInterceptors executes all response interceptors
func (t *netTransport) runResponseInterceptors(ctx context.Context, req *nethttp.Request, resp *nethttp.Response) error {
	for _, interceptor := range t.responseInterceptors {
		if err := interceptor(ctx, req, resp); err != nil {
			return err
		}
	}
	return nil
}

func (t *netTransport) truncate(b []byte) []byte {
	if len(b) > t.config.MaxPayloadLogBytes {
		return b[:t.config.MaxPayloadLogBytes]
	}
	return b
}

// logRequest logs the outgoing request at debug level
func (t *netTransport) logRequest(httpReq *nethttp.Request, req *Request) {
	event := t.logger.Debug().
		Str("direction", "outbound").
		Str("method", httpReq.Method).
		Str("url", httpReq.URL.String()).
		Interface("headers", t.filter.FilterHeader(httpReq.Header))

	if t.config.LogPayloads && req.Multipart == nil && req.Body != nil {
		if data, err := json.Marshal(req.Body); err == nil {
			event = event.Bytes("body", t.truncate(data))
		}
	}
	event.Msg("API request")
}

// logResponse logs the incoming response at debug level
func (t *netTransport) logResponse(httpReq *nethttp.Request, resp *Response) {
	event := t.logger.Debug().
		Str("direction", "inbound").
		Str("url", httpReq.URL.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount)

	if t.config.LogPayloads && len(resp.Body) > 0 {
		event = event.Bytes("body", t.truncate(resp.Body))
	}
	event.Msg("API response")
}
