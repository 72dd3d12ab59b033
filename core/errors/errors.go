package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

type ErrorCode string

const (
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrInvalidState               ErrorCode = "INVALID_STATE"
	ErrConfig                     ErrorCode = "CONFIG_ERROR"
	ErrUpstream                   ErrorCode = "UPSTREAM_ERROR"
	ErrTimeout                    ErrorCode = "TIMEOUT"
	ErrShape                      ErrorCode = "SHAPE_ERROR"
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
)

// AppError is the error type returned across service boundaries.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	Err     error     `json:"-"`
}

// FieldError is one flattened validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UpstreamDetails carries what the remote endpoint answered.
type UpstreamDetails struct {
	Status   int      `json:"status"`
	Body     string   `json:"body,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewValidationError(message string, fields []FieldError) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: message,
		Details: fields,
	}
}

func NewUpstreamError(message string, status int, body string) *AppError {
	return &AppError{
		Code:    ErrUpstream,
		Message: message,
		Details: UpstreamDetails{Status: status, Body: body},
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by code so callers can use errors.Is with a sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t == nil {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// FieldErrors returns the validation details when the error carries them.
func (e *AppError) FieldErrors() []FieldError {
	fields, _ := e.Details.([]FieldError)
	return fields
}

// As extracts an *AppError from err, wrapping foreign errors as internal.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae
	}
	return NewAppError(ErrInternalServer, "internal server error", err)
}

// HasCode reports whether err is an *AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// FromTransport classifies a failed outbound HTTP call as a timeout or an
// upstream failure. The cause stays reachable through Unwrap.
func FromTransport(message string, err error) *AppError {
	var ne net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &ne) && ne.Timeout()) {
		return NewAppError(ErrTimeout, message+": request timed out", err)
	}
	return NewAppError(ErrUpstream, message, err)
}
