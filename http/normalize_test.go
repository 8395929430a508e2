package http

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qyquant/qyquant-client/internal/testutil"
)

func TestNormalizeNil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestNormalizeNoResponse(t *testing.T) {
	t.Run("timeout ignores everything but the kind", func(t *testing.T) {
		n := Normalize(NewTimeoutError("request timeout", 8*time.Second))
		require.NotNil(t, n)
		assert.Equal(t, 0, n.StatusCode)
		assert.Equal(t, TimeoutError, n.Kind)
		assert.Equal(t, fixedMessages[LocaleEN][msgTimeout], n.Message)
		assert.Empty(t, n.Code)
	})

	t.Run("network failure", func(t *testing.T) {
		n := Normalize(NewNetworkError("request execution failed", errors.New(testutil.TestConnectionRefused)))
		assert.Equal(t, 0, n.StatusCode)
		assert.Equal(t, NetworkError, n.Kind)
		assert.Equal(t, fixedMessages[LocaleEN][msgNetwork], n.Message)
	})

	t.Run("canceled keeps the context error reachable", func(t *testing.T) {
		n := Normalize(NewCanceledError(context.Canceled))
		assert.Equal(t, CanceledError, n.Kind)
		assert.ErrorIs(t, n, context.Canceled)
	})

	t.Run("bare context errors", func(t *testing.T) {
		assert.Equal(t, CanceledError, Normalize(context.Canceled).Kind)
		assert.Equal(t, TimeoutError, Normalize(context.DeadlineExceeded).Kind)
	})
}

func TestNormalizeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		message     string
		body        string
		wantMessage string
		wantCode    string
	}{
		{"body message wins", 500, "HTTP request failed with status 500", `{"message":"boom"}`, "boom", ""},
		{"numeric machine code", 400, "bad", `{"code":1001,"message":"invalid params"}`, "invalid params", "1001"},
		{"string machine code", 409, "bad", `{"code":"E_CONFLICT","message":"exists"}`, "exists", "E_CONFLICT"},
		{"zero code is not a code", 400, "bad", `{"code":0,"message":"odd"}`, "odd", ""},
		{"success dialect error field", 403, "bad", `{"success":false,"error":"forbidden"}`, "forbidden", "forbidden"},
		{"generic status message", 404, "HTTP request failed with status 404", ``, "The requested resource does not exist", ""},
		{"non JSON body falls back to status message", 502, "bad gateway", `<html>nginx</html>`, "Service temporarily unavailable, please try again later", ""},
		{"unknown status keeps transport message", 418, "HTTP request failed with status 418", `{}`, "HTTP request failed with status 418", ""},
		{"nothing at all", 418, "", ``, UnknownErrorMessage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(NewHTTPError(tt.message, tt.status, []byte(tt.body)))
			require.NotNil(t, n)
			assert.Equal(t, HTTPError, n.Kind)
			assert.Equal(t, tt.status, n.StatusCode)
			assert.Equal(t, tt.wantMessage, n.Message)
			assert.Equal(t, tt.wantCode, n.Code)
		})
	}
}

func TestNormalizeLocalized(t *testing.T) {
	n := NormalizeIn(LocaleZH, NewTimeoutError("request timeout", time.Second))
	assert.Equal(t, "请求超时，请检查网络连接", n.Message)

	n = NormalizeIn(LocaleZH, NewHTTPError("", 401, nil))
	assert.Equal(t, "未授权，请重新登录", n.Message)

	// server-supplied messages are never translated
	n = NormalizeIn(LocaleZH, NewHTTPError("", 500, []byte(`{"message":"boom"}`)))
	assert.Equal(t, "boom", n.Message)
}

func TestNormalizeDomainError(t *testing.T) {
	n := Normalize(&DomainError{StatusCode: 200, Code: "1001", Message: "strategy not found"})
	assert.Equal(t, DomainFailure, n.Kind)
	assert.Equal(t, 200, n.StatusCode)
	assert.Equal(t, "1001", n.Code)
	assert.Equal(t, "strategy not found", n.Message)

	empty := Normalize(&DomainError{StatusCode: 200})
	assert.Equal(t, fixedMessages[LocaleEN][msgRequestFailed], empty.Message)
}

func TestNormalizeOtherErrors(t *testing.T) {
	t.Run("validation keeps its description", func(t *testing.T) {
		n := Normalize(NewValidationError("path cannot be empty", "path"))
		assert.Equal(t, ValidationError, n.Kind)
		assert.Contains(t, n.Message, "path cannot be empty")
	})

	t.Run("decode failure", func(t *testing.T) {
		_, err := Decode[int](200, []byte(`"text"`))
		n := Normalize(err)
		assert.Equal(t, DecodeError, n.Kind)
		assert.Equal(t, 200, n.StatusCode)
	})

	t.Run("plain error", func(t *testing.T) {
		n := Normalize(errors.New(testutil.TestError))
		assert.Equal(t, UnknownError, n.Kind)
		assert.Equal(t, 0, n.StatusCode)
		assert.Equal(t, testutil.TestError, n.Message)
	})

	t.Run("empty message becomes the fallback literal", func(t *testing.T) {
		n := Normalize(errors.New(""))
		assert.Equal(t, UnknownErrorMessage, n.Message)
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []error{
		NewTimeoutError("t", time.Second),
		NewHTTPError("x", 500, []byte(`{"message":"boom"}`)),
		&DomainError{StatusCode: 200, Message: "nope"},
		errors.New("plain"),
	}
	for _, in := range inputs {
		first := Normalize(in)
		assert.Same(t, first, Normalize(first))
		assert.Same(t, first, NormalizeIn(LocaleZH, first))
		assert.Same(t, first, Normalize(fmt.Errorf("context: %w", first)))
	}
}

func TestNormalizedMessageNeverEmpty(t *testing.T) {
	inputs := []error{
		errors.New(""),
		NewHTTPError("", 599, nil),
		NewHTTPError("", 500, []byte(`{"message":""}`)),
		&DomainError{},
		NewNetworkError("", nil),
		NewTimeoutError("", 0),
		NewCanceledError(nil),
		NewValidationError("", ""),
		NewInterceptorError("", "", nil),
	}
	for _, locale := range []Locale{LocaleEN, LocaleZH} {
		for _, in := range inputs {
			n := NormalizeIn(locale, in)
			require.NotNil(t, n)
			assert.NotEmpty(t, n.Message, "input %T", in)
			assert.Equal(t, n.Message, n.Error())
		}
	}
}
