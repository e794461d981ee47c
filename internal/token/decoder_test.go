package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/workconnect/session/pkg/errors"
)

func newTestIssuer() *Issuer {
	return NewIssuer(
		"test-secret-key-minimum-32-chars",
		"test-refresh-secret-key-32-chars",
		15*time.Minute,
		168*time.Hour,
	)
}

func TestDecode_RoundTrip(t *testing.T) {
	issuer := newTestIssuer()
	exp := time.Now().Add(42 * time.Minute).Truncate(time.Second)

	for _, role := range []Role{RoleWorker, RoleEmployer, RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			raw, err := issuer.IssueAccess("user-1", "a@example.com", role, exp)
			if err != nil {
				t.Fatalf("IssueAccess() failed: %v", err)
			}

			got, err := Decode(raw)
			if err != nil {
				t.Fatalf("Decode() failed: %v", err)
			}
			if got.Role != role {
				t.Errorf("Role = %q, want %q", got.Role, role)
			}
			if !got.ExpiresAt.Equal(exp) {
				t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, exp)
			}
			if got.Subject != "user-1" {
				t.Errorf("Subject = %q, want %q", got.Subject, "user-1")
			}
		})
	}
}

func TestDecode_IgnoresSignature(t *testing.T) {
	other := NewIssuer("another-secret-key-of-32-characters", "x-refresh-secret-key-of-32-chars", time.Minute, time.Hour)
	raw, err := other.IssueAccess("7", "", RoleAdmin, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("IssueAccess() failed: %v", err)
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() should not verify signatures: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", got.Role, RoleAdmin)
	}
}

func TestDecode_Malformed(t *testing.T) {
	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "ROLE_ADMIN"})
	noExpString, err := noExp.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"invalid format", "not.a.jwt"},
		{"two segments", "eyJhbGciOiJIUzI1NiJ9.e30"},
		{"garbage payload", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.!!!.sig"},
		{"missing exp", noExpString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			if !errors.Is(err, apperrors.ErrDecode) {
				t.Errorf("Decode() error = %v, want ErrDecode", err)
			}
		})
	}
}

func TestDecode_UnknownRole(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "ROLE_SUPERUSER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("SignedString() failed: %v", err)
	}

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got.Role != "" {
		t.Errorf("Role = %q, want empty", got.Role)
	}
	if got.RawRole != "ROLE_SUPERUSER" {
		t.Errorf("RawRole = %q, want %q", got.RawRole, "ROLE_SUPERUSER")
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"ROLE_WORKER", RoleWorker, true},
		{"EMPLOYER", RoleEmployer, true},
		{"role_admin", RoleAdmin, true},
		{"ROLE_", "", false},
		{"GUEST", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseRole(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
