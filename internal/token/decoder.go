package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/workconnect/session/pkg/errors"
)

// Decoded is what the client reads out of an access token.
type Decoded struct {
	Subject   string
	Email     string
	Role      Role // empty if the claim is missing or unknown
	RawRole   string
	ExpiresAt time.Time
}

var parser = jwt.NewParser()

// Decode reads the payload of a bearer token without checking its signature;
// verification is the backend's job. Every failure wraps apperrors.ErrDecode.
func Decode(raw string) (Decoded, error) {
	if raw == "" {
		return Decoded{}, fmt.Errorf("%w: empty token", apperrors.ErrDecode)
	}

	var claims Claims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", apperrors.ErrDecode, err)
	}
	if claims.ExpiresAt == nil {
		return Decoded{}, fmt.Errorf("%w: missing exp claim", apperrors.ErrDecode)
	}

	role, _ := ParseRole(claims.Role)
	return Decoded{
		Subject:   claims.Subject,
		Email:     claims.Email,
		Role:      role,
		RawRole:   claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
