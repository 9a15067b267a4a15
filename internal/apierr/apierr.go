// ABOUTME: Typed service errors carrying an HTTP status and a stable code
// ABOUTME: Shared by the HTTP API, the MCP tools and the CLI for consistent messages
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Validation reports malformed input or a violated precondition
func Validation(code, msg string) *Error {
	return New(http.StatusBadRequest, code, errors.New(msg))
}

// NotFound reports an absent resource; err is kept for errors.Is checks
func NotFound(code, msg string, err error) *Error {
	if err == nil {
		return New(http.StatusNotFound, code, errors.New(msg))
	}
	return New(http.StatusNotFound, code, fmt.Errorf("%s: %w", msg, err))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, "forbidden", errors.New(msg))
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", errors.New(msg))
}

// Internal wraps an unexpected failure
func Internal(err error) *Error {
	return New(http.StatusInternalServerError, "internal", err)
}

// As extracts an *Error from err, treating anything else as internal
func As(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal(err)
}

// Status returns the HTTP status implied by err
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return As(err).Status
}

// Detail returns the message shown to callers; internal errors are not echoed
func Detail(err error) string {
	apiErr := As(err)
	if apiErr.Status >= http.StatusInternalServerError {
		return "Internal server error"
	}
	if apiErr.Err != nil {
		return detailOf(apiErr)
	}
	return apiErr.Error()
}

// detailOf strips wrapped causes from not-found messages
func detailOf(e *Error) string {
	msg := e.Err.Error()
	if e.Status == http.StatusNotFound {
		if inner := errors.Unwrap(e.Err); inner != nil {
			return strings.TrimSuffix(msg, ": "+inner.Error())
		}
	}
	return msg
}
