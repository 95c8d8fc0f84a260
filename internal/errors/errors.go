package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a deadline was reached with no terminal status.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeProbe indicates a status query against an external provider failed.
	ErrCodeProbe ErrorCode = "probe"
	// ErrCodeReport indicates job-control or notification delivery failed.
	ErrCodeReport ErrorCode = "report"
	// ErrCodeStaleToken indicates a log append lost the sequence-token race.
	ErrCodeStaleToken ErrorCode = "stale_token"
	// ErrCodeConfiguration indicates a required setting is absent or invalid.
	ErrCodeConfiguration ErrorCode = "configuration"
	// ErrCodeFailedStatus indicates the provider reported a terminal failure status.
	ErrCodeFailedStatus ErrorCode = "failed_status"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the setting, column or target the error refers to (optional)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Configuration reports a missing or invalid setting. It is fatal for an invocation.
func Configuration(setting, message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: message,
		Field:   setting,
	}
}

// Probe wraps a failed status query for the given target.
func Probe(err error, target string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    ErrCodeProbe,
		Message: "status probe failed for " + target,
		Cause:   err,
		Field:   target,
	}
}

// Report wraps a failed job-control or notification delivery.
func Report(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    ErrCodeReport,
		Message: message,
		Cause:   err,
	}
}

// StaleToken reports that an append to stream was rejected because its sequence token was stale.
func StaleToken(stream string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeStaleToken,
		Message: "sequence token for log stream " + stream + " is stale",
		Cause:   cause,
		Field:   stream,
	}
}

// FailedStatus reports that target settled in a provider failure status.
func FailedStatus(target, status string) *AppError {
	return &AppError{
		Code:    ErrCodeFailedStatus,
		Message: target + " reported failure status " + status,
		Field:   target,
	}
}

// Timeoutf creates a new Timeout error with formatted message.
func Timeoutf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf(format, args...),
	}
}

// Canceled wraps a context cancellation.
func Canceled(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeCanceled,
		Message: "operation canceled",
		Cause:   cause,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// IsProbe checks if an error is a Probe error.
func IsProbe(err error) bool {
	return isCode(err, ErrCodeProbe)
}

// IsReport checks if an error is a Report error.
func IsReport(err error) bool {
	return isCode(err, ErrCodeReport)
}

// IsStaleToken checks if an error is a StaleToken error.
func IsStaleToken(err error) bool {
	return isCode(err, ErrCodeStaleToken)
}

// IsConfiguration checks if an error is a Configuration error.
func IsConfiguration(err error) bool {
	return isCode(err, ErrCodeConfiguration)
}

// IsFailedStatus checks if an error is a FailedStatus error.
func IsFailedStatus(err error) bool {
	return isCode(err, ErrCodeFailedStatus)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
