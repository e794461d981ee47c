package backend

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
)

var (
	// Email validation regex (RFC 5322 simplified)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	minPasswordLength = 6
)

// LoginRequest is the POST /api/auth/login body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /api/auth/register body
type RegisterRequest struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      token.Role `json:"role"`
	Phone     string     `json:"phone"`
}

// RefreshRequest is the POST /api/auth/refresh body
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// fieldErrors collects per-field messages; empty means valid.
type fieldErrors map[string]string

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewAppError(apperrors.CodeValidationError, "Validation failed", http.StatusBadRequest).
		WithFieldErrors(f)
}

func (f fieldErrors) email(v string) {
	switch {
	case v == "":
		f["email"] = "Email is required"
	case !IsValidEmail(v):
		f["email"] = "Email format is invalid"
	}
}

func (f fieldErrors) password(v string) {
	switch {
	case v == "":
		f["password"] = "Password is required"
	case len(v) < minPasswordLength:
		f["password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	}
}

func (f fieldErrors) required(field, v string) {
	if strings.TrimSpace(v) == "" {
		f[field] = "must not be blank"
	}
}

// Validate validates a login request
func (r *LoginRequest) Validate() error {
	f := fieldErrors{}
	f.email(r.Email)
	if r.Password == "" {
		f["password"] = "Password is required"
	}
	return f.err()
}

// Validate validates a registration. Admin accounts cannot self-register.
func (r *RegisterRequest) Validate() error {
	f := fieldErrors{}
	f.email(r.Email)
	f.password(r.Password)
	f.required("firstName", r.FirstName)
	f.required("lastName", r.LastName)
	if r.Role != token.RoleWorker && r.Role != token.RoleEmployer {
		f["role"] = "must be WORKER or EMPLOYER"
	}
	return f.err()
}

func validateNewJob(j *api.NewJob) error {
	f := fieldErrors{}
	f.required("title", j.Title)
	f.required("description", j.Description)
	f.required("location", j.Location)
	return f.err()
}

// IsValidEmail checks if an email address is valid
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// SanitizeEmail normalizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (f fieldErrors) rating(v int) {
	if v < api.MinRating || v > api.MaxRating {
		f["rating"] = fmt.Sprintf("must be between %d and %d", api.MinRating, api.MaxRating)
	}
}

func validateNewReview(r *api.NewReview) error {
	f := fieldErrors{}
	f.required("jobId", r.JobID)
	f.required("revieweeId", r.RevieweeID)
	f.rating(r.Rating)
	return f.err()
}

func validateReviewSubmission(r *api.ReviewSubmission) error {
	f := fieldErrors{}
	f.rating(r.Rating)
	return f.err()
}
