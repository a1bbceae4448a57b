package otter

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConversion ErrorType = "conversion"
	ErrorTypeExecution  ErrorType = "execution"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes
const (
	ErrCodeMissingField      = "MISSING_FIELD"
	ErrCodeKeyNotFound       = "KEY_NOT_FOUND"
	ErrCodeTypeConversion    = "TYPE_CONVERSION"
	ErrCodeTransientNotFound = "TRANSIENT_NOT_FOUND"
	ErrCodeInvalidDocument   = "INVALID_DOCUMENT"
	ErrCodePartialTransient  = "PARTIAL_TRANSIENT"
	ErrCodeExportFailed      = "EXPORT_FAILED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Any *OtterError carrying the same code matches.
var (
	ErrMissingField      = &OtterError{Type: ErrorTypeValidation, Code: ErrCodeMissingField, Message: "missing field"}
	ErrKeyNotFound       = &OtterError{Type: ErrorTypeNotFound, Code: ErrCodeKeyNotFound, Message: "key not found"}
	ErrTypeConversion    = &OtterError{Type: ErrorTypeConversion, Code: ErrCodeTypeConversion, Message: "type conversion failed"}
	ErrTransientNotFound = &OtterError{Type: ErrorTypeNotFound, Code: ErrCodeTransientNotFound, Message: "transient not found"}
)

// OtterError is the error returned by record construction, storage and export.
type OtterError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *OtterError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *OtterError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *OtterError with the same code.
func (e *OtterError) Is(target error) bool {
	t, ok := target.(*OtterError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail adds a single detail to an OtterError
func (e *OtterError) WithDetail(key string, value any) *OtterError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to an OtterError
func (e *OtterError) WithCause(cause error) *OtterError {
	e.Cause = cause
	return e
}

// WithField adds field context to an OtterError
func (e *OtterError) WithField(field string) *OtterError {
	e.Field = field
	return e
}

// NewOtterError creates a new OtterError
func NewOtterError(errorType ErrorType, code, message string) *OtterError {
	return &OtterError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewMissingFieldError reports a required key absent from an input record.
func NewMissingFieldError(field string) *OtterError {
	return &OtterError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeMissingField,
		Message: "required field is missing",
		Field:   field,
		Details: map[string]any{"fields": []string{field}},
	}
}

// NewMissingFieldsError reports a record lacking one of a set of required keys.
// All required keys are named, not only the missing ones.
func NewMissingFieldsError(message string, fields ...string) *OtterError {
	return &OtterError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeMissingField,
		Message: message,
		Field:   strings.Join(fields, ","),
		Details: map[string]any{"fields": fields},
	}
}

// NewKeyNotFoundError reports an alias absent from the sourcemap.
func NewKeyNotFoundError(alias string) *OtterError {
	return &OtterError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeKeyNotFound,
		Message: fmt.Sprintf("alias '%s' not found in sourcemap", alias),
		Details: map[string]any{"alias": alias},
	}
}

// NewTypeConversionError reports a value that cannot be parsed to the expected type.
func NewTypeConversionError(field string, value any, target string) *OtterError {
	return &OtterError{
		Type:    ErrorTypeConversion,
		Code:    ErrCodeTypeConversion,
		Message: fmt.Sprintf("cannot convert %T value %v to %s", value, value, target),
		Field:   field,
		Details: map[string]any{"target": target},
	}
}

// NewTransientNotFoundError creates a not found error for a stored transient.
func NewTransientNotFoundError(name string) *OtterError {
	return &OtterError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeTransientNotFound,
		Message: fmt.Sprintf("transient '%s' not found", name),
		Details: map[string]any{"name": name},
	}
}

// NewInvalidDocumentError creates a document validation error
func NewInvalidDocumentError(message string, cause error) *OtterError {
	return &OtterError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidDocument,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewExportError creates an export error
func NewExportError(message string, cause error) *OtterError {
	return &OtterError{
		Type:    ErrorTypeExecution,
		Code:    ErrCodeExportFailed,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *OtterError {
	return &OtterError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// ============================================================================
// AttributeErrors
// ============================================================================

// AttributeError is a failure to build one attribute of a transient.
type AttributeError struct {
	Attribute string `json:"attribute"`
	Index     int    `json:"index"`
	Err       error  `json:"-"`
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Attribute, e.Index, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

// AttributeErrors collects per-attribute failures while the sibling attributes are kept.
type AttributeErrors struct {
	Errors []*AttributeError `json:"errors"`
}

// Error implements the error interface for AttributeErrors
func (ae *AttributeErrors) Error() string {
	if len(ae.Errors) == 0 {
		return "no attribute errors"
	}
	if len(ae.Errors) == 1 {
		return ae.Errors[0].Error()
	}
	return fmt.Sprintf("multiple attribute errors: %d errors found, first: %v", len(ae.Errors), ae.Errors[0])
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (ae *AttributeErrors) Unwrap() []error {
	errs := make([]error, 0, len(ae.Errors))
	for _, e := range ae.Errors {
		errs = append(errs, e)
	}
	return errs
}

// Add records a failure for attribute at index.
func (ae *AttributeErrors) Add(attribute string, index int, err error) {
	ae.Errors = append(ae.Errors, &AttributeError{Attribute: attribute, Index: index, Err: err})
}

// HasErrors returns true if there are any errors
func (ae *AttributeErrors) HasErrors() bool {
	return len(ae.Errors) > 0
}

// ToError returns the AttributeErrors as an error if there are any errors, nil otherwise
func (ae *AttributeErrors) ToError() error {
	if ae.HasErrors() {
		return ae
	}
	return nil
}

// NewAttributeErrors creates a new AttributeErrors instance
func NewAttributeErrors() *AttributeErrors {
	return &AttributeErrors{
		Errors: make([]*AttributeError, 0),
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
