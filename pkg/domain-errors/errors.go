// Package derrors defines the coded error type shared across the module.
// Services and stores wrap infrastructure failures into a ConnectError so
// callers can branch on codes instead of string matching, and transports can
// translate codes into status lines.
package derrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for programmatic handling.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeUnauthorized       Code = "unauthorized"
	CodeConflict           Code = "conflict"
	CodeUnavailable        Code = "unavailable"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
)

// ConnectError carries a code, a human-readable message, and an optional
// wrapped cause.
type ConnectError struct {
	Code    Code
	Message string
	Err     error
}

func (e ConnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e ConnectError) Unwrap() error {
	return e.Err
}

// New creates a ConnectError with the given code and message.
func New(code Code, message string) error {
	return ConnectError{Code: code, Message: message}
}

// Wrap attaches a code and message to an existing error, preserving the
// cause for errors.Is and errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return ConnectError{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain is a ConnectError with the
// given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var ce ConnectError
		if errors.As(err, &ce) {
			if ce.Code == code {
				return true
			}
			err = ce.Err
			continue
		}
		return false
	}
	return false
}

// Is is an alias for HasCode; it reads better at call sites that test a
// single code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// ToHTTPStatus maps a code onto the HTTP status transports should answer
// with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
