// Package apperror provides structured error handling for the ledger core.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the ledger core
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeBucketConfig = "INVALID_BUCKET_CONFIGURATION"

	// Business rule violations (422)
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeStockContention        = "STOCK_CONTENTION"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeShiftAlreadyOpen       = "SHIFT_ALREADY_OPEN"
	CodeShiftNotOpen           = "SHIFT_NOT_OPEN"
	CodeShiftClosed            = "SHIFT_CLOSED"
	CodeShiftStillOpen         = "SHIFT_STILL_OPEN"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound          = "NOT_FOUND"
	CodeReferenceNotFound = "REFERENCE_NOT_FOUND"

	// Conflict (409)
	CodeConflict      = "CONFLICT"
	CodeDuplicate     = "DUPLICATE_ENTRY"
	CodeDuplicateCode = "DUPLICATE_CODE"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewReferenceNotFound reports a declared weak reference (customer, partner,
// invoice, shift) that does not resolve. Surfaced to the caller, not retried.
func NewReferenceNotFound(kind string, id any) *AppError {
	return &AppError{
		Code:       CodeReferenceNotFound,
		Message:    fmt.Sprintf("referenced %s not found", kind),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"kind": kind, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInsufficientStock creates a stock shortage error.
// This is a business rejection ("cannot complete sale"), not a transient fault.
func NewInsufficientStock(productID string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// NewStockContention is returned after bounded internal retries on the stock
// balance row are exhausted.
func NewStockContention(productID string) *AppError {
	return &AppError{
		Code:       CodeStockContention,
		Message:    "Stock balance is contended, try again",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"product_id": productID},
	}
}

// NewInvalidStateTransition creates an illegal lifecycle change error.
func NewInvalidStateTransition(entity string, from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidStateTransition,
		Message:    fmt.Sprintf("cannot transition %s from %s to %s", entity, from, to),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "from": from, "to": to},
	}
}

// NewShiftAlreadyOpen is returned when an employee already has an open shift
// at the warehouse. The open shift id is included so the caller can decide.
func NewShiftAlreadyOpen(shiftID any) *AppError {
	return &AppError{
		Code:       CodeShiftAlreadyOpen,
		Message:    "An open shift already exists for this employee and warehouse",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"shift_id": shiftID},
	}
}

// NewShiftNotOpen is returned when closing a shift that is not open.
func NewShiftNotOpen(shiftID any) *AppError {
	return &AppError{
		Code:       CodeShiftNotOpen,
		Message:    "Shift is not open",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"shift_id": shiftID},
	}
}

// NewShiftClosed is returned when recording a transaction against a closed shift.
func NewShiftClosed(shiftID any) *AppError {
	return &AppError{
		Code:       CodeShiftClosed,
		Message:    "Shift is already closed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"shift_id": shiftID},
	}
}

// NewShiftStillOpen is returned when reconciling a shift whose totals are not final.
func NewShiftStillOpen(shiftID any) *AppError {
	return &AppError{
		Code:       CodeShiftStillOpen,
		Message:    "Shift is still open, totals are not final",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"shift_id": shiftID},
	}
}

// NewDuplicateCode is returned when a transaction code collides with an
// existing one. The caller must request a fresh code, never reuse.
func NewDuplicateCode(code string) *AppError {
	return &AppError{
		Code:       CodeDuplicateCode,
		Message:    "Transaction code already exists",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"code": code},
	}
}

// NewInvalidBucketConfiguration reports a caller programming error in aging
// bucket boundaries. Never retried.
func NewInvalidBucketConfiguration(message string) *AppError {
	return &AppError{
		Code:       CodeBucketConfig,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound or CodeReferenceNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound || appErr.Code == CodeReferenceNotFound
	}
	return false
}

// IsCode checks if error carries the given code
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return IsCode(err, CodeConcurrentModification)
}
