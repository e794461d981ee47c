package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
	"github.com/workconnect/session/pkg/response"
)

// Context keys set by Auth
const (
	ContextClaims = "claims"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// TokenValidator checks an access token. Satisfied by *token.Issuer.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// Auth creates an authentication middleware. An expired token is answered
// with TOKEN_EXPIRED so clients know a refresh may help.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperrors.NewAppError(apperrors.CodeAuthenticationFailed, "Missing Authorization header", http.StatusUnauthorized))
			return
		}

		// Extract token (format: "Bearer TOKEN")
		tokenString, ok := strings.CutPrefix(authHeader, token.TokenTypeBearer+" ")
		if !ok || tokenString == "" {
			response.Abort(c, apperrors.NewAppError(apperrors.CodeAuthenticationFailed, "Invalid Authorization header format", http.StatusUnauthorized))
			return
		}

		claims, err := validator.Validate(tokenString)
		if errors.Is(err, jwt.ErrTokenExpired) {
			RecordJWTValidation("expired")
			response.Abort(c, apperrors.ErrTokenExpired)
			return
		}
		if err != nil {
			RecordJWTValidation("failure")
			_ = c.Error(err)
			response.Abort(c, apperrors.ErrInvalidToken)
			return
		}
		RecordJWTValidation("success")

		role, _ := token.ParseRole(claims.Role)
		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, role)

		c.Next()
	}
}

// RequireRole rejects authenticated users whose role is not in roles.
// It must run after Auth.
func RequireRole(roles ...token.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(ContextRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Abort(c, apperrors.ErrAccessDenied)
	}
}
