package http

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Dialect selects how the server's response envelope is interpreted.
type Dialect string

const (
	// DialectCode reads {"code": 0, "message": "...", "data": ...}; code 0 is success.
	DialectCode Dialect = "code"
	// DialectSuccess reads {"success": true, "data": ..., "error": "..."}.
	DialectSuccess Dialect = "success"
)

// Valid reports whether d is a known dialect.
func (d Dialect) Valid() bool {
	return d == DialectCode || d == DialectSuccess
}

type codeEnvelope struct {
	Code    json.RawMessage `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type successEnvelope struct {
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Unwrap strips the envelope from a successful response body and returns the
// payload verbatim. A failure indicator yields a *DomainError and the payload
// is discarded even when present. An absent indicator is treated as success.
func Unwrap(dialect Dialect, statusCode int, body []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	switch dialect {
	case DialectSuccess:
		var env successEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, malformedEnvelope(statusCode, err)
		}
		if env.Success != nil && !*env.Success {
			msg := env.Error
			if msg == "" {
				msg = env.Message
			}
			return nil, domainError(statusCode, "", msg)
		}
		return env.Data, nil
	default:
		var env codeEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, malformedEnvelope(statusCode, err)
		}
		if code := machineCode(env.Code); code != "" {
			return nil, domainError(statusCode, code, env.Message)
		}
		return env.Data, nil
	}
}

func domainError(statusCode int, code, message string) *DomainError {
	if message == "" {
		message = DefaultDomainMessage
	}
	return &DomainError{StatusCode: statusCode, Code: code, Message: message}
}

func malformedEnvelope(statusCode int, err error) *DomainError {
	return &DomainError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("malformed response envelope: %v", err),
	}
}

// Decode decodes an unwrapped payload into T. An empty or null payload
// yields the zero value.
func Decode[T any](statusCode int, raw json.RawMessage) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, &decodeError{statusCode: statusCode, wrapped: err}
	}
	return out, nil
}
