package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role gates route access. The zero value means no resolvable role.
type Role string

const (
	RoleWorker   Role = "WORKER"
	RoleEmployer Role = "EMPLOYER"
	RoleAdmin    Role = "ADMIN"
)

// RolePrefix is prepended to the role claim by the backend.
const RolePrefix = "ROLE_"

// ParseRole strips RolePrefix and checks the result against the known roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), RolePrefix))
	switch r {
	case RoleWorker, RoleEmployer, RoleAdmin:
		return r, true
	}
	return "", false
}

// Claim returns the role as the backend encodes it in a token.
func (r Role) Claim() string {
	return RolePrefix + string(r)
}

// Claims represents the JWT claims structure
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Pair represents an access and refresh token pair as sent on the wire.
// RefreshToken is empty when a refresh response does not rotate it.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// TokenType constants
const (
	TokenTypeBearer = "Bearer"
)
