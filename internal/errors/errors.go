// Package errors defines the structured application error type used across
// the jobscout pipeline, with codes covering the ingestion, lifecycle, and
// search failure taxonomy.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data, rejected before any I/O.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeRateLimited indicates the per-user request budget is exhausted.
	ErrCodeRateLimited ErrorCode = "rate_limited"
	// ErrCodeJobNotSaved indicates an operation that requires a saved job was
	// attempted against an unsaved one.
	ErrCodeJobNotSaved ErrorCode = "job_not_saved"
	// ErrCodeSourceUnavailable indicates a scraping provider rejected the
	// request for quota or authorization reasons. Non-retryable.
	ErrCodeSourceUnavailable ErrorCode = "source_unavailable"
	// ErrCodeSourceTimeout indicates a scraping provider exceeded its fetch
	// budget. Retryable on the next request.
	ErrCodeSourceTimeout ErrorCode = "source_timeout"
	// ErrCodeAllSourcesFailed indicates every configured provider failed,
	// which fails the whole scrape request.
	ErrCodeAllSourcesFailed ErrorCode = "all_sources_failed"
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
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
	// Source names the scraping provider for source-scoped errors (optional)
	Source string
	// RetryAfter carries the wait duration for rate-limited errors (optional)
	RetryAfter time.Duration
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

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
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

// RateLimited creates a new RateLimited error carrying a retry-after hint.
func RateLimited(message string, retryAfter time.Duration) *AppError {
	return &AppError{
		Code:       ErrCodeRateLimited,
		Message:    message,
		RetryAfter: retryAfter,
	}
}

// JobNotSaved creates a new JobNotSaved error.
func JobNotSaved(message string) *AppError {
	return &AppError{
		Code:    ErrCodeJobNotSaved,
		Message: message,
	}
}

// SourceUnavailable creates a new SourceUnavailable error for the named provider.
func SourceUnavailable(source string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeSourceUnavailable,
		Message: fmt.Sprintf("source %s is unavailable", source),
		Source:  source,
		Cause:   cause,
	}
}

// SourceTimeout creates a new SourceTimeout error for the named provider.
func SourceTimeout(source string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeSourceTimeout,
		Message: fmt.Sprintf("source %s timed out", source),
		Source:  source,
		Cause:   cause,
	}
}

// AllSourcesFailed creates a new AllSourcesFailed error joining the per-source causes.
func AllSourcesFailed(causes ...error) *AppError {
	return &AppError{
		Code:    ErrCodeAllSourcesFailed,
		Message: "all sources failed",
		Cause:   errors.Join(causes...),
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
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
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

// IsRateLimited checks if an error is a RateLimited error.
func IsRateLimited(err error) bool {
	return isCode(err, ErrCodeRateLimited)
}

// IsJobNotSaved checks if an error is a JobNotSaved error.
func IsJobNotSaved(err error) bool {
	return isCode(err, ErrCodeJobNotSaved)
}

// IsSourceUnavailable checks if an error is a SourceUnavailable error.
func IsSourceUnavailable(err error) bool {
	return isCode(err, ErrCodeSourceUnavailable)
}

// IsSourceTimeout checks if an error is a SourceTimeout error.
func IsSourceTimeout(err error) bool {
	return isCode(err, ErrCodeSourceTimeout)
}

// IsAllSourcesFailed checks if an error is an AllSourcesFailed error.
func IsAllSourcesFailed(err error) bool {
	return isCode(err, ErrCodeAllSourcesFailed)
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

// GetRetryAfter returns the RetryAfter duration from an error, or zero.
func GetRetryAfter(err error) time.Duration {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.RetryAfter
	}
	return 0
}
