package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// Caller input errors
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// Generation pipeline errors
	CodeUpstreamFailure           ErrorCode = "UPSTREAM_FAILURE"
	CodeMalformedUpstreamResponse ErrorCode = "MALFORMED_UPSTREAM_RESPONSE"
	CodeUnexpectedSchema          ErrorCode = "UNEXPECTED_SCHEMA"
)

// GenerationFailedMessage is the only text a caller sees for any failure
// past input validation.
const GenerationFailedMessage = "Failed to generate questions."

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code, so callers
// can write errors.Is(err, domain.ErrUpstreamFailure).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// WithContext attaches a diagnostic key/value that is logged but never sent
// to the caller.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidRequest            = &DomainError{Code: CodeInvalidRequest}
	ErrUpstreamFailure           = &DomainError{Code: CodeUpstreamFailure}
	ErrMalformedUpstreamResponse = &DomainError{Code: CodeMalformedUpstreamResponse}
	ErrUnexpectedSchema          = &DomainError{Code: CodeUnexpectedSchema}
)

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewInvalidRequestError(message string) *DomainError {
	return NewError(CodeInvalidRequest, message, nil)
}

func NewUpstreamFailureError(cause error) *DomainError {
	return NewError(CodeUpstreamFailure, "generation service call failed", cause)
}

func NewMalformedUpstreamResponseError(cause error) *DomainError {
	return NewError(CodeMalformedUpstreamResponse, "generation service returned invalid JSON", cause)
}

func NewUnexpectedSchemaError(format string, args ...interface{}) *DomainError {
	return NewError(CodeUnexpectedSchema, fmt.Sprintf(format, args...), nil)
}

func NewInternalError(message string, cause error) *DomainError {
	return NewError(CodeInternal, message, cause)
}

// CodeOf returns the ErrorCode carried by err, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return CodeInvalidRequest
	}
	return CodeInternal
}

// ValidationError describes a single invalid request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is returned when one or more request fields are invalid.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is makes ValidationErrors match ErrInvalidRequest.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrInvalidRequest
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("has an invalid format: %v", value)}
}

func NewOutOfRangeError(field string, value, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d, got %d", min, max, value)}
}
