package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Is matches any BaseError carrying the same error code, so errors built with
// WithDetails still satisfy errors.Is against the predefined value.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)

	return ok && t.errorCode == e.errorCode
}

// Predefined error types
var (
	// Family-related errors
	ErrFamilyNotFound = NewBaseError(
		http.StatusNotFound,
		"FAMILY_NOT_FOUND",
		"family not found",
		"",
	)

	ErrRecipientNotFound = NewBaseError(
		http.StatusNotFound,
		"RECIPIENT_NOT_FOUND",
		"recipient not found",
		"",
	)

	// Stealth window errors
	ErrStealthTicketRequired = NewBaseError(
		http.StatusBadRequest,
		"STEALTH_TICKET_REQUIRED",
		"a support ticket id is required",
		"",
	)

	ErrStealthAffectedUsersRequired = NewBaseError(
		http.StatusBadRequest,
		"STEALTH_AFFECTED_USERS_REQUIRED",
		"at least one affected user is required",
		"",
	)

	ErrStealthUserNotInFamily = NewBaseError(
		http.StatusBadRequest,
		"STEALTH_USER_NOT_IN_FAMILY",
		"affected user does not belong to the family",
		"",
	)

	// Notification errors
	ErrInvalidEvent = NewBaseError(
		http.StatusBadRequest,
		"INVALID_EVENT",
		"notification event is malformed",
		"",
	)

	ErrInvalidDigestType = NewBaseError(
		http.StatusBadRequest,
		"INVALID_DIGEST_TYPE",
		"digest type must be hourly or daily",
		"",
	)

	ErrInvalidPreferences = NewBaseError(
		http.StatusBadRequest,
		"INVALID_PREFERENCES",
		"preference update is invalid",
		"",
	)

	ErrUnknownJob = NewBaseError(
		http.StatusNotFound,
		"UNKNOWN_JOB",
		"scheduled job not found",
		"",
	)

	// Push endpoint errors
	ErrEndpointNotFound = NewBaseError(
		http.StatusNotFound,
		"ENDPOINT_NOT_FOUND",
		"push endpoint not found",
		"",
	)

	ErrEndpointOwnershipViolation = NewBaseError(
		http.StatusForbidden,
		"ENDPOINT_OWNERSHIP_VIOLATION",
		"push endpoint belongs to another recipient",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	// Authentication-related errors
	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"missing or invalid access token",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"database transaction failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal server error",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"resource not found",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"resource conflict",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
