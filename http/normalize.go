package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// NormalizedError is the only error shape the client surfaces to callers.
type NormalizedError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Code is the server-supplied machine code, if any.
	Code string
	// Message is never empty.
	Message string
	// Kind is the failure category used by the retry policy.
	Kind ErrorType

	cause error
}

func (e *NormalizedError) Error() string {
	return e.Message
}

func (e *NormalizedError) Unwrap() error {
	return e.cause
}

// Normalize maps any failure into a NormalizedError with English messages.
func Normalize(err error) *NormalizedError {
	return NormalizeIn(LocaleEN, err)
}

// NormalizeIn maps any failure into a NormalizedError, localizing the
// messages the client generates itself. It never panics, returns nil only
// for a nil error, and returns an already normalized error unchanged.
func NormalizeIn(locale Locale, err error) *NormalizedError {
	if err == nil {
		return nil
	}

	var normalized *NormalizedError
	if errors.As(err, &normalized) {
		return normalized
	}

	n := normalizeKind(locale, err)
	n.cause = err
	if strings.TrimSpace(n.Message) == "" {
		n.Message = UnknownErrorMessage
	}
	return n
}

func normalizeKind(locale Locale, err error) *NormalizedError {
	var (
		timeoutErr  *timeoutError
		networkErr  *networkError
		canceledErr *canceledError
		httpErr     *httpError
		domainErr   *DomainError
		decodeErr   *decodeError
		clientErr   ClientError
	)

	switch {
	case errors.As(err, &canceledErr):
		return &NormalizedError{Kind: CanceledError, Message: fixedMessage(locale, msgCanceled)}
	case errors.As(err, &timeoutErr):
		return &NormalizedError{Kind: TimeoutError, Message: fixedMessage(locale, msgTimeout)}
	case errors.As(err, &networkErr):
		return &NormalizedError{Kind: NetworkError, Message: fixedMessage(locale, msgNetwork)}
	case errors.As(err, &httpErr):
		return normalizeHTTP(locale, httpErr)
	case errors.As(err, &domainErr):
		msg := domainErr.Message
		if msg == "" {
			msg = fixedMessage(locale, msgRequestFailed)
		}
		return &NormalizedError{
			Kind:       DomainFailure,
			StatusCode: domainErr.StatusCode,
			Code:       domainErr.Code,
			Message:    msg,
		}
	case errors.As(err, &decodeErr):
		return &NormalizedError{Kind: DecodeError, StatusCode: decodeErr.statusCode, Message: err.Error()}
	case errors.As(err, &clientErr):
		// validation and interceptor failures keep their own description
		return &NormalizedError{Kind: clientErr.Type(), Message: err.Error()}
	case errors.Is(err, context.Canceled):
		return &NormalizedError{Kind: CanceledError, Message: fixedMessage(locale, msgCanceled)}
	case errors.Is(err, context.DeadlineExceeded):
		return &NormalizedError{Kind: TimeoutError, Message: fixedMessage(locale, msgTimeout)}
	default:
		return &NormalizedError{Kind: UnknownError, Message: err.Error()}
	}
}

// errorBody is the subset of an error response body the normalizer reads.
// Both envelope dialects are covered: {"code","message"} and {"success","error"}.
type errorBody struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func normalizeHTTP(locale Locale, he *httpError) *NormalizedError {
	n := &NormalizedError{Kind: HTTPError, StatusCode: he.statusCode}

	var body errorBody
	if len(bytes.TrimSpace(he.body)) > 0 && json.Unmarshal(he.body, &body) == nil {
		n.Code = machineCode(body.Code)
		if n.Code == "" {
			n.Code = body.Error
		}
		switch {
		case body.Message != "":
			n.Message = body.Message
		case body.Error != "":
			n.Message = body.Error
		}
	}

	if n.Message == "" {
		if msg, ok := statusMessage(locale, he.statusCode); ok {
			n.Message = msg
		} else {
			n.Message = he.message
		}
	}
	return n
}

// machineCode renders a JSON number or string code; zero and absent codes yield "".
func machineCode(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s == "0" {
			return ""
		}
		return s
	}
	var num json.Number
	if json.Unmarshal(raw, &num) == nil {
		if f, err := num.Float64(); err == nil && f == 0 {
			return ""
		}
		if i, err := num.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return num.String()
	}
	return ""
}
