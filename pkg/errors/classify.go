package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
)

// Class groups errors by how the caller should react to them.
type Class int

const (
	ClassOther Class = iota
	ClassAuth
	ClassAccessDenied
	ClassValidation
	ClassNetwork
	ClassServer
)

func (c Class) String() string {
	switch c {
	case ClassAuth:
		return "auth"
	case ClassAccessDenied:
		return "access_denied"
	case ClassValidation:
		return "validation"
	case ClassNetwork:
		return "network"
	case ClassServer:
		return "server"
	default:
		return "other"
	}
}

// IsAuthFailure reports whether the payload means "credentials no longer good".
// Only 401 and TOKEN_EXPIRED trigger a refresh; the wider set here is used for
// classification.
func (e *AppError) IsAuthFailure() bool {
	if e.Status == http.StatusUnauthorized {
		return true
	}
	switch e.Code {
	case CodeAuthenticationFailed, CodeTokenExpired, CodeInvalidToken, CodeInvalidCredentials:
		return true
	}
	return false
}

// NeedsRefresh reports whether a refresh-and-retry could fix this failure.
func (e *AppError) NeedsRefresh() bool {
	return e.Status == http.StatusUnauthorized || e.Code == CodeTokenExpired
}

// IsAccessDenied reports a 403 or ACCESS_DENIED.
func (e *AppError) IsAccessDenied() bool {
	return e.Status == http.StatusForbidden || e.Code == CodeAccessDenied
}

// IsValidation reports a 400 or a validation error code.
func (e *AppError) IsValidation() bool {
	if e.Status == http.StatusBadRequest {
		return true
	}
	return e.Code == CodeValidationError || e.Code == CodeConstraintViolation
}

// IsServer reports a 5xx.
func (e *AppError) IsServer() bool {
	return e.Status >= 500
}

// Classify sorts any error returned by the client into a Class.
func Classify(err error) Class {
	if err == nil {
		return ClassOther
	}
	if errors.Is(err, ErrNoRefreshToken) || errors.Is(err, ErrRefreshFailed) || errors.Is(err, ErrDecode) {
		return ClassAuth
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch {
		case appErr.IsAuthFailure():
			return ClassAuth
		case appErr.IsAccessDenied():
			return ClassAccessDenied
		case appErr.IsValidation():
			return ClassValidation
		case appErr.IsServer():
			return ClassServer
		}
		return ClassOther
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ClassNetwork
	}
	return ClassOther
}
