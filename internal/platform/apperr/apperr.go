// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP boundary: validation, conflict, not-found, integration and
// internal errors, each carrying the HTTP status and an internal code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"
	CodeNotFound     = "NOT_FOUND"
	CodeIntegration  = "INTEGRATION_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error is a typed application error. Message is safe to show to clients for
// statuses below 500; the cause is only ever logged.
type Error struct {
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Validation builds a 400 error for missing or malformed input.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a 409 error for a violated scheduling rule.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidState builds a 400 error for an operation attempted against a
// resource in a terminal or incompatible state.
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a 404 error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Integration wraps a failure talking to an external collaborator. When the
// upstream responded, its status is propagated; otherwise 502 is used.
func Integration(message string, status int, cause error) *Error {
	if status < 400 {
		status = http.StatusBadGateway
	}
	return &Error{Status: status, Code: CodeIntegration, Message: message, cause: cause}
}

// Internal wraps an unexpected failure (database, bug). The client only ever
// sees a masked message.
func Internal(cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "error interno del servidor", cause: cause}
}

// StatusOf reports the HTTP status an error maps to (500 for unknown errors).
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// CodeOf reports the internal code of an error, or CodeInternal.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

type responseBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HTTPErrorHandler returns the global echo error handler. It normalizes any
// uncaught error into {"error": <safe message>, "code": <internal code>},
// masking messages for 5xx responses.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := responseBody{Error: "error interno del servidor", Code: CodeInternal}

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Status
			body.Code = ae.Code
			if status < http.StatusInternalServerError {
				body.Error = ae.Message
			}
		case errors.As(err, &he):
			status = he.Code
			if status < http.StatusInternalServerError {
				body.Error = fmt.Sprintf("%v", he.Message)
				body.Code = ""
			}
		}

		evt := logger.Warn()
		if status >= http.StatusInternalServerError {
			evt = logger.Error()
		}
		evt.Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", status).
			Msg("request failed")

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
