package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestParseErrorCode(t *testing.T) {
	tests := []struct {
		in   string
		want ErrorCode
	}{
		{"TOKEN_EXPIRED", CodeTokenExpired},
		{"token_expired", CodeTokenExpired},
		{" ACCESS_DENIED ", CodeAccessDenied},
		{"INVALID_TOKEN", CodeInvalidToken},
		{"AUTHENTICATION_FAILED", CodeAuthenticationFailed},
		{"SOMETHING_NEW", CodeUnknown},
		{"", CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseErrorCode(tt.in); got != tt.want {
				t.Errorf("ParseErrorCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromResponse(t *testing.T) {
	body := []byte(`{"status":400,"errorCode":"VALIDATION_ERROR","message":"bad","fieldErrors":{"title":"required","salary":"must be positive"}}`)
	e := FromResponse(http.StatusBadRequest, body)

	if e.Code != CodeValidationError {
		t.Errorf("Code = %q, want %q", e.Code, CodeValidationError)
	}
	if !e.IsValidation() {
		t.Error("IsValidation() = false, want true")
	}
	want := "Validation failed: salary: must be positive, title: required"
	if got := e.ValidationMessage(); got != want {
		t.Errorf("ValidationMessage() = %q, want %q", got, want)
	}
}

func TestFromResponse_UnknownCodeAndGarbage(t *testing.T) {
	e := FromResponse(http.StatusConflict, []byte(`{"errorCode":"BRAND_NEW","message":"x"}`))
	if e.Code != CodeUnknown {
		t.Errorf("Code = %q, want %q", e.Code, CodeUnknown)
	}
	if e.Status != http.StatusConflict {
		t.Errorf("Status = %d, want %d", e.Status, http.StatusConflict)
	}

	e = FromResponse(http.StatusBadGateway, []byte("<html>oops</html>"))
	if e.Code != CodeUnknown || e.Status != http.StatusBadGateway {
		t.Errorf("got %+v, want status-only error", e)
	}
	if !e.IsServer() {
		t.Error("IsServer() = false, want true")
	}
}

func TestNeedsRefresh(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want bool
	}{
		{"401", &AppError{Status: 401, Code: CodeUnknown}, true},
		{"token expired code", &AppError{Status: 400, Code: CodeTokenExpired}, true},
		{"forbidden", &AppError{Status: 403, Code: CodeAccessDenied}, false},
		{"invalid credentials on 400", &AppError{Status: 400, Code: CodeInvalidCredentials}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.NeedsRefresh(); got != tt.want {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassOther},
		{"no refresh token", fmt.Errorf("refresh: %w", ErrNoRefreshToken), ClassAuth},
		{"refresh failed", ErrRefreshFailed, ClassAuth},
		{"401", &AppError{Status: 401}, ClassAuth},
		{"403", ErrAccessDenied, ClassAccessDenied},
		{"validation", &AppError{Status: 422, Code: CodeValidationError}, ClassValidation},
		{"server", &AppError{Status: 503, Code: CodeUnknown}, ClassServer},
		{"not found", ErrNotFound, ClassOther},
		{"deadline", context.DeadlineExceeded, ClassNetwork},
		{"net error", fmt.Errorf("dial: %w", timeoutErr{}), ClassNetwork},
		{"plain", errors.New("boom"), ClassOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
