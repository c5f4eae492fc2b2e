package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/medflow/stockcheck-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound               = errors.New("resource not found")
	ErrBadRequest             = errors.New("bad request")
	ErrConflict               = errors.New("resource conflict")
	ErrInternal               = errors.New("internal server error")
	ErrValidation             = errors.New("validation error")
	ErrInvalidScope           = errors.New("invalid scope")
	ErrMissingField           = errors.New("missing field")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrOrderCancelled         = errors.New("check order cancelled")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrAlreadyReconciled      = errors.New("check order already reconciled")
	ErrReconciliationFailed   = errors.New("reconciliation failed")
)

// Error codes exposed to API clients
const (
	CodeNotFound               = "NOT_FOUND"
	CodeBadRequest             = "BAD_REQUEST"
	CodeConflict               = "CONFLICT"
	CodeInternal               = "INTERNAL_ERROR"
	CodeValidation             = "VALIDATION_ERROR"
	CodeInvalidScope           = "INVALID_SCOPE"
	CodeMissingField           = "MISSING_FIELD"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeOrderCancelled         = "ORDER_CANCELLED"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeAlreadyReconciled      = "ALREADY_RECONCILED"
	CodeReconciliationFailed   = "RECONCILIATION_FAILED"
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

func newAppError(sentinel error, code, key string, params map[string]string, status int) *AppError {
	return &AppError{
		Err:        sentinel,
		Code:       code,
		Message:    i18n.T(key, params),
		MessageKey: key,
		Params:     params,
		StatusCode: status,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Common error constructors

func NotFound(resource string) *AppError {
	return newAppError(ErrNotFound, CodeNotFound, "errors.not_found",
		map[string]string{"resource": resource}, http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       CodeBadRequest,
		Message:    message,
		MessageKey: "errors.bad_request",
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       CodeConflict,
		Message:    message,
		MessageKey: "errors.conflict",
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       CodeInternal,
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	e := newAppError(ErrValidation, CodeValidation, "errors.validation_failed", nil, http.StatusBadRequest)
	e.Details = details
	return e
}

// Check order errors

func InvalidScope() *AppError {
	return newAppError(ErrInvalidScope, CodeInvalidScope, "errors.invalid_scope", nil, http.StatusBadRequest)
}

func MissingField(fields ...string) *AppError {
	e := newAppError(ErrMissingField, CodeMissingField, "errors.missing_field", nil, http.StatusBadRequest)
	e.Details = make(map[string]string, len(fields))
	for _, f := range fields {
		e.Details[f] = "this field is required"
	}
	return e
}

func InvalidTransition(from, to string) *AppError {
	return newAppError(ErrInvalidTransition, CodeInvalidTransition, "errors.invalid_transition",
		map[string]string{"from": from, "to": to}, http.StatusConflict)
}

func OrderCancelled(orderID string) *AppError {
	return newAppError(ErrOrderCancelled, CodeOrderCancelled, "errors.order_cancelled",
		map[string]string{"order_id": orderID}, http.StatusConflict)
}

func ConcurrentModification(resource string) *AppError {
	return newAppError(ErrConcurrentModification, CodeConcurrentModification, "errors.concurrent_modification",
		map[string]string{"resource": resource}, http.StatusConflict)
}

func AlreadyReconciled(orderID string) *AppError {
	return newAppError(ErrAlreadyReconciled, CodeAlreadyReconciled, "errors.already_reconciled",
		map[string]string{"order_id": orderID}, http.StatusConflict)
}

// ReconciliationFailed names the check item that stopped the run
func ReconciliationFailed(inspectionID, packageID, reason string) *AppError {
	e := newAppError(ErrReconciliationFailed, CodeReconciliationFailed, "errors.reconciliation_failed",
		map[string]string{"package_id": packageID, "reason": reason}, http.StatusUnprocessableEntity)
	e.Details = map[string]string{
		"inspection_id": inspectionID,
		"package_id":    packageID,
		"reason":        reason,
	}
	return e
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
