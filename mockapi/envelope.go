package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	qyhttp "github.com/qyquant/qyquant-client/http"
)

// codeEnvelope mirrors the backend's {"code", "message", "data"} shape.
type codeEnvelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) ok(c echo.Context, data any) error {
	if s.dialect == qyhttp.DialectSuccess {
		return c.JSON(http.StatusOK, successEnvelope{Success: true, Data: data})
	}
	return c.JSON(http.StatusOK, codeEnvelope{
		Code:      0,
		Message:   "ok",
		Data:      data,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}

// writeFailure writes a failed envelope. code defaults to status*100 and
// message to a snake_case status text, matching the backend.
func (s *Server) writeFailure(c echo.Context, status, code int, message string) error {
	if code == 0 {
		code = status * 100
	}
	if message == "" {
		message = statusMessage(status)
	}
	if s.dialect == qyhttp.DialectSuccess {
		return c.JSON(status, successEnvelope{Success: false, Error: message})
	}
	return c.JSON(status, codeEnvelope{Code: code, Message: message})
}

func (s *Server) fail(c echo.Context, status int, message string) error {
	return s.writeFailure(c, status, 0, message)
}

func statusMessage(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "internal_error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "internal_error"

	var he *echo.HTTPError
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		message = validationMessage(ve[0])
	case errors.As(err, &he):
		status = he.Code
		message = statusMessage(status)
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Mock handler failed")
	}
	_ = s.fail(c, status, message)
}

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// validationMessage renders e.g. "title_required" or "email_invalid".
func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	if fe.Tag() == "required" {
		return field + "_required"
	}
	return field + "_invalid"
}
