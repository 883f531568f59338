package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Policy errors (POLICY_*): expected rejections, recoverable by upgrading
	ErrorCodeFreeLimitReached ErrorCode = "POLICY_FREE_LIMIT_REACHED"
	ErrorCodeFeatureLocked    ErrorCode = "POLICY_FEATURE_LOCKED"

	// Validation errors (VALIDATION_*): caller/input defect, correct and resubmit
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Subscription errors (SUB_*)
	ErrorCodeSubscriptionNotFound ErrorCode = "SUB_NOT_FOUND"

	// Notification errors (NOTIFY_*): dispatch failed after a committed mutation
	ErrorCodeNotificationFailed ErrorCode = "NOTIFY_SCHEDULE_FAILED"

	// Purchase errors (PURCHASE_*)
	ErrorCodeProductNotFound    ErrorCode = "PURCHASE_PRODUCT_NOT_FOUND"
	ErrorCodeFailedVerification ErrorCode = "PURCHASE_FAILED_VERIFICATION"
	ErrorCodeUserCancelled      ErrorCode = "PURCHASE_USER_CANCELLED"
	ErrorCodePurchasePending    ErrorCode = "PURCHASE_PENDING"
	ErrorCodePurchaseUnknown    ErrorCode = "PURCHASE_UNKNOWN"

	// Internal errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// ValidationFailed creates a validation error with a caller-facing reason
func ValidationFailed(reason string) *DomainError {
	return NewDomainError(ErrorCodeValidationFailed, reason)
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsPolicyError checks if an error is an entitlement policy rejection
func IsPolicyError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeFreeLimitReached || code == ErrorCodeFeatureLocked
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorCode(err) == ErrorCodeValidationFailed
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return GetErrorCode(err) == ErrorCodeSubscriptionNotFound
}

// IsPurchaseError checks if an error came from the purchase flow
func IsPurchaseError(err error) bool {
	switch GetErrorCode(err) {
	case ErrorCodeProductNotFound, ErrorCodeFailedVerification,
		ErrorCodeUserCancelled, ErrorCodePurchasePending, ErrorCodePurchaseUnknown:
		return true
	}
	return false
}

// Structured error instances
var (
	ErrFreeLimitReached     = NewDomainError(ErrorCodeFreeLimitReached, "free tier subscription limit reached")
	ErrFeatureLocked        = NewDomainError(ErrorCodeFeatureLocked, "feature requires Pro")
	ErrSubscriptionNotFound = NewDomainError(ErrorCodeSubscriptionNotFound, "subscription not found")

	ErrProductNotFound    = NewDomainError(ErrorCodeProductNotFound, "product not found")
	ErrFailedVerification = NewDomainError(ErrorCodeFailedVerification, "purchase verification failed")
	ErrUserCancelled      = NewDomainError(ErrorCodeUserCancelled, "purchase cancelled by user")
	ErrPurchasePending    = NewDomainError(ErrorCodePurchasePending, "purchase is pending approval")
	ErrPurchaseUnknown    = NewDomainError(ErrorCodePurchaseUnknown, "purchase failed")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
