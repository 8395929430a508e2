package fixtures

import (
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"

	qyhttp "github.com/qyquant/qyquant-client/http"
	"github.com/qyquant/qyquant-client/testing/mocks"
)

// Content type constants
const (
	ApplicationJSONContentType = "application/json"
)

var errConnectionRefused = errors.New("connection refused")

// Respond builds the result of a single attempt the way the net/http
// transport reports it: statuses >= 400 come back as an HTTP error with the
// response attached.
func Respond(status int, body []byte) (*qyhttp.Response, error) {
	resp := &qyhttp.Response{
		StatusCode: status,
		Body:       body,
		Headers:    nethttp.Header{"Content-Type": []string{ApplicationJSONContentType}},
	}
	if status >= 400 {
		return resp, qyhttp.NewHTTPError(fmt.Sprintf("HTTP request failed with status %d", status), status, body)
	}
	return resp, nil
}

// Envelope wraps data in a successful envelope of the given dialect.
func Envelope(dialect qyhttp.Dialect, data any) []byte {
	var env map[string]any
	if dialect == qyhttp.DialectSuccess {
		env = map[string]any{"success": true, "data": data}
	} else {
		env = map[string]any{"code": 0, "message": "ok", "data": data}
	}
	return mustJSON(env)
}

// FailureEnvelope builds a failing envelope. In the code dialect code is the
// machine code; the success dialect carries only the message.
func FailureEnvelope(dialect qyhttp.Dialect, code int, message string) []byte {
	if dialect == qyhttp.DialectSuccess {
		return mustJSON(map[string]any{"success": false, "error": message})
	}
	return mustJSON(map[string]any{"code": code, "message": message})
}

// NewWorkingTransport creates a mock transport that answers every request
// with a 200 envelope carrying data. This is useful for testing happy path
// scenarios.
func NewWorkingTransport(dialect qyhttp.Dialect, data any) *mocks.MockTransport {
	tr := &mocks.MockTransport{}
	resp, _ := Respond(nethttp.StatusOK, Envelope(dialect, data))
	tr.ExpectAny(resp, nil)
	return tr
}

// NewFlakyTransport creates a mock transport that fails the first failures
// attempts with status and then succeeds with data. This is useful for
// testing retry behavior.
func NewFlakyTransport(dialect qyhttp.Dialect, failures, status int, data any) *mocks.MockTransport {
	tr := &mocks.MockTransport{}
	if failures > 0 {
		failResp, failErr := Respond(status, FailureEnvelope(dialect, status*100, nethttp.StatusText(status)))
		tr.ExpectAny(failResp, failErr).Times(failures)
	}
	okResp, _ := Respond(nethttp.StatusOK, Envelope(dialect, data))
	tr.ExpectAny(okResp, nil)
	return tr
}

// NewUnreachableTransport creates a mock transport whose every attempt
// fails without a response, as when the API host refuses connections.
func NewUnreachableTransport() *mocks.MockTransport {
	tr := &mocks.MockTransport{}
	tr.ExpectAny(nil, qyhttp.NewNetworkError("request execution failed", errConnectionRefused))
	return tr
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
