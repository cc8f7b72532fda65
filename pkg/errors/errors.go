package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned in API error bodies
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeBusinessRule       = "BUSINESS_RULE_VIOLATION"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// AppError is an error the HTTP layer can render as-is.
//
// Reason is a stable snake_case identifier for rejections (for example
// "insufficient_stock" or "batch_locked") that callers branch on instead of
// parsing Message. Details carries the values behind the message, such as
// the shortfall of an outbound request.
type AppError struct {
	Code       string            `json:"code"`
	Reason     string            `json:"reason,omitempty"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Retryable  bool              `json:"retryable,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Code
	if e.Reason != "" {
		msg += "(" + e.Reason + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails replaces the details map
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap keeps err as the cause so errors.Is still matches domain sentinels
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

func NewAppError(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrValidationWithFields reports per-field problems keyed by JSON field name
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

// ErrConflict reports a request that clashes with other live state, such as
// deleting a warehouse that still holds stock rows
func ErrConflict(reason, message string) *AppError {
	e := NewAppError(CodeConflict, message, http.StatusConflict)
	e.Reason = reason
	return e
}

// ErrBusinessRule reports a deterministic refusal: repeating the same request
// against the same state fails the same way
func ErrBusinessRule(reason, message string) *AppError {
	e := NewAppError(CodeBusinessRule, message, http.StatusUnprocessableEntity)
	e.Reason = reason
	return e
}

func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return NewAppError(CodeInternalError, message, http.StatusInternalServerError)
}

func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

// ErrServiceUnavailable marks a failure the caller may retry unchanged
func ErrServiceUnavailable(dependency string) *AppError {
	e := NewAppError(CodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", dependency), http.StatusServiceUnavailable)
	e.Retryable = true
	return e
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError returns err's AppError, or an internal error wrapping it
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return ErrInternal("").Wrap(err)
}
