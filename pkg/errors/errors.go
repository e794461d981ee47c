package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Session errors. Callers compare with errors.Is.
var (
	// ErrDecode means a stored token could not be read. Treat as "no session".
	ErrDecode = errors.New("token decode failed")

	// ErrNoRefreshToken means the session is over and a refresh cannot be attempted.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrRefreshFailed means the backend rejected (or never answered) a refresh.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// ErrorCode is the backend's errorCode field. The set is closed: anything the
// client does not know parses to CodeUnknown.
type ErrorCode string

// Validation errors
const (
	CodeValidationError      ErrorCode = "VALIDATION_ERROR"
	CodeConstraintViolation  ErrorCode = "CONSTRAINT_VIOLATION"
	CodeInvalidArgument      ErrorCode = "INVALID_ARGUMENT"
	CodeMissingParameter     ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameterType ErrorCode = "INVALID_PARAMETER_TYPE"
	CodeMalformedRequest     ErrorCode = "MALFORMED_REQUEST"
)

// Authentication and authorization errors
const (
	CodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	CodeInvalidCredentials   ErrorCode = "INVALID_CREDENTIALS"
	CodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"
	CodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	CodeAccessDenied         ErrorCode = "ACCESS_DENIED"
	CodeAccountLocked        ErrorCode = "ACCOUNT_LOCKED"
	CodeAccountDisabled      ErrorCode = "ACCOUNT_DISABLED"
	CodeEmailAlreadyExists   ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeRateLimitExceeded    ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// Resource, business and server errors
const (
	CodeResourceNotFound         ErrorCode = "RESOURCE_NOT_FOUND"
	CodeEndpointNotFound         ErrorCode = "ENDPOINT_NOT_FOUND"
	CodeBusinessRuleViolation    ErrorCode = "BUSINESS_RULE_VIOLATION"
	CodeIllegalState             ErrorCode = "ILLEGAL_STATE"
	CodeDuplicateApplication     ErrorCode = "DUPLICATE_APPLICATION"
	CodeJobNotAvailable          ErrorCode = "JOB_NOT_AVAILABLE"
	CodeApplicationDeadline      ErrorCode = "APPLICATION_DEADLINE_PASSED"
	CodeInvalidApplicationStatus ErrorCode = "INVALID_APPLICATION_STATUS"
	CodeDataIntegrityViolation   ErrorCode = "DATA_INTEGRITY_VIOLATION"
	CodeMethodNotAllowed         ErrorCode = "METHOD_NOT_ALLOWED"
	CodeInternalServerError      ErrorCode = "INTERNAL_SERVER_ERROR"

	CodeUnknown ErrorCode = "UNKNOWN"
)

var knownCodes = map[ErrorCode]struct{}{
	CodeValidationError: {}, CodeConstraintViolation: {}, CodeInvalidArgument: {},
	CodeMissingParameter: {}, CodeInvalidParameterType: {}, CodeMalformedRequest: {},
	CodeAuthenticationFailed: {}, CodeInvalidCredentials: {}, CodeTokenExpired: {},
	CodeInvalidToken: {}, CodeAccessDenied: {}, CodeAccountLocked: {},
	CodeAccountDisabled: {}, CodeEmailAlreadyExists: {}, CodeRateLimitExceeded: {},
	CodeResourceNotFound: {}, CodeEndpointNotFound: {}, CodeBusinessRuleViolation: {},
	CodeIllegalState: {}, CodeDuplicateApplication: {}, CodeJobNotAvailable: {},
	CodeApplicationDeadline: {}, CodeInvalidApplicationStatus: {},
	CodeDataIntegrityViolation: {}, CodeMethodNotAllowed: {}, CodeInternalServerError: {},
}

// ParseErrorCode maps a raw errorCode string onto the closed set.
func ParseErrorCode(s string) ErrorCode {
	c := ErrorCode(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownCodes[c]; ok {
		return c
	}
	return CodeUnknown
}

// UnmarshalJSON keeps unknown codes from leaking past the decoder.
func (c *ErrorCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = ParseErrorCode(s)
	return nil
}

// AppError is the backend error payload. The dev backend writes it, the
// client decodes it.
type AppError struct {
	Status           int               `json:"status"`
	Code             ErrorCode         `json:"errorCode"`
	Message          string            `json:"message"`
	Details          string            `json:"details,omitempty"`
	Path             string            `json:"path,omitempty"`
	Timestamp        string            `json:"timestamp,omitempty"`
	FieldErrors      map[string]string `json:"fieldErrors,omitempty"`
	ValidationErrors []string          `json:"validationErrors,omitempty"`
	TraceID          string            `json:"traceId,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// WithFieldErrors returns a copy carrying per-field validation messages.
func (e *AppError) WithFieldErrors(fields map[string]string) *AppError {
	cp := *e
	cp.FieldErrors = fields
	return &cp
}

// Common errors
var (
	ErrInvalidCredentials = NewAppError(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	ErrInvalidToken       = NewAppError(CodeInvalidToken, "Invalid token", http.StatusUnauthorized)
	ErrTokenExpired       = NewAppError(CodeTokenExpired, "Token expired", http.StatusUnauthorized)
	ErrAccessDenied       = NewAppError(CodeAccessDenied, "Access denied", http.StatusForbidden)
	ErrRateLimitExceeded  = NewAppError(CodeRateLimitExceeded, "Too many login attempts", http.StatusTooManyRequests)
	ErrNotFound           = NewAppError(CodeResourceNotFound, "Resource not found", http.StatusNotFound)
	ErrEmailExists        = NewAppError(CodeEmailAlreadyExists, "Email already registered", http.StatusConflict)
	ErrAccountDisabled    = NewAppError(CodeAccountDisabled, "Account is disabled", http.StatusForbidden)
	ErrInternal           = NewAppError(CodeInternalServerError, "Internal server error", http.StatusInternalServerError)
)

// FromResponse builds an AppError from a non-2xx status and body. A body that
// is not the backend error shape still yields an error carrying the status.
func FromResponse(status int, body []byte) *AppError {
	var e AppError
	if len(body) > 0 && json.Unmarshal(body, &e) == nil && e.Code != "" {
		if e.Status == 0 {
			e.Status = status
		}
		return &e
	}
	return &AppError{
		Status:  status,
		Code:    CodeUnknown,
		Message: strings.TrimSpace(http.StatusText(status)),
	}
}

// ValidationMessage flattens field and validation errors into one line.
func (e *AppError) ValidationMessage() string {
	if len(e.FieldErrors) > 0 {
		parts := make([]string, 0, len(e.FieldErrors))
		for field, msg := range e.FieldErrors {
			parts = append(parts, field+": "+msg)
		}
		sort.Strings(parts)
		return "Validation failed: " + strings.Join(parts, ", ")
	}
	if len(e.ValidationErrors) > 0 {
		return "Validation failed: " + strings.Join(e.ValidationErrors, ", ")
	}
	return e.Message
}
