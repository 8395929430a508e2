package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapCodeDialect(t *testing.T) {
	t.Run("code 0 returns data verbatim", func(t *testing.T) {
		data, err := Unwrap(DialectCode, 200, []byte(`{"code":0,"message":"ok","data":{"ok":true}}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(data))
	})

	t.Run("string zero code is success", func(t *testing.T) {
		data, err := Unwrap(DialectCode, 200, []byte(`{"code":"0","data":[1,2]}`))
		require.NoError(t, err)
		assert.JSONEq(t, `[1,2]`, string(data))
	})

	t.Run("non-zero code is a domain failure and discards data", func(t *testing.T) {
		data, err := Unwrap(DialectCode, 200, []byte(`{"code":1001,"message":"strategy not found","data":{"id":1}}`))
		assert.Nil(t, data)
		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "1001", de.Code)
		assert.Equal(t, "strategy not found", de.Message)
		assert.Equal(t, 200, de.StatusCode)
	})

	t.Run("failure without message", func(t *testing.T) {
		_, err := Unwrap(DialectCode, 200, []byte(`{"code":"E_LIMIT"}`))
		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "E_LIMIT", de.Code)
		assert.Equal(t, DefaultDomainMessage, de.Message)
	})

	t.Run("absent indicator is success", func(t *testing.T) {
		data, err := Unwrap(DialectCode, 200, []byte(`{"data":{"x":1}}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":1}`, string(data))
	})
}

func TestUnwrapSuccessDialect(t *testing.T) {
	t.Run("success true", func(t *testing.T) {
		data, err := Unwrap(DialectSuccess, 200, []byte(`{"success":true,"data":{"ok":true}}`))
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(data))
	})

	t.Run("success false uses error", func(t *testing.T) {
		data, err := Unwrap(DialectSuccess, 200, []byte(`{"success":false,"error":"boom","data":{"ok":true}}`))
		assert.Nil(t, data)
		var de *DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "boom", de.Message)
		assert.Equal(t, "boom", Normalize(err).Message)
	})

	t.Run("success false falls back to message then literal", func(t *testing.T) {
		_, err := Unwrap(DialectSuccess, 200, []byte(`{"success":false,"message":"denied"}`))
		assert.Equal(t, "denied", Normalize(err).Message)

		_, err = Unwrap(DialectSuccess, 200, []byte(`{"success":false}`))
		assert.Equal(t, DefaultDomainMessage, Normalize(err).Message)
	})

	t.Run("a code field is not an indicator in this dialect", func(t *testing.T) {
		data, err := Unwrap(DialectSuccess, 200, []byte(`{"success":true,"code":7,"data":1}`))
		require.NoError(t, err)
		assert.Equal(t, "1", string(data))
	})
}

func TestUnwrapEdgeCases(t *testing.T) {
	t.Run("empty body", func(t *testing.T) {
		data, err := Unwrap(DialectCode, 204, nil)
		assert.NoError(t, err)
		assert.Nil(t, data)

		data, err = Unwrap(DialectSuccess, 200, []byte("  \n"))
		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("malformed body", func(t *testing.T) {
		for _, d := range []Dialect{DialectCode, DialectSuccess} {
			_, err := Unwrap(d, 200, []byte(`<html>`))
			var de *DomainError
			require.ErrorAs(t, err, &de)
			assert.Contains(t, de.Message, "malformed response envelope")
		}
	})
}

func TestDialectValid(t *testing.T) {
	assert.True(t, DialectCode.Valid())
	assert.True(t, DialectSuccess.Valid())
	assert.False(t, Dialect("other").Valid())
}

type strategy struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestDecode(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		s, err := Decode[strategy](200, []byte(`{"id":3,"name":"grid"}`))
		require.NoError(t, err)
		assert.Equal(t, strategy{ID: 3, Name: "grid"}, s)
	})

	t.Run("empty and null yield zero value", func(t *testing.T) {
		s, err := Decode[strategy](200, nil)
		require.NoError(t, err)
		assert.Zero(t, s)

		list, err := Decode[[]strategy](200, []byte("null"))
		require.NoError(t, err)
		assert.Nil(t, list)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := Decode[[]strategy](200, []byte(`{"id":1}`))
		require.Error(t, err)
		assert.True(t, IsErrorType(err, DecodeError))
	})
}
