// Package backend is a development server speaking the WorkConnect REST
// protocol: login, register, refresh and the job endpoints. It keeps users
// and jobs in memory and exists so the client can be run and tested end to
// end without the real backend.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/middleware"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
)

// RateLimiter throttles failed logins. Satisfied by *ratelimit.Limiter.
type RateLimiter interface {
	Check(ctx context.Context, email, ipAddress string) (allowed bool, lockoutRemaining time.Duration, err error)
	RecordFailure(ctx context.Context, email, ipAddress string) error
	RecordSuccess(ctx context.Context, email, ipAddress string) error
}

// Revoker tracks rotated-out refresh tokens. Satisfied by *token.Blacklist.
type Revoker interface {
	Add(ctx context.Context, tokenID string, expiry time.Time) error
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// Service handles the authentication logic of the dev backend
type Service struct {
	users       *Directory
	issuer      *token.Issuer
	revoker     Revoker
	rateLimiter RateLimiter
	rotate      bool
	logger      *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithRateLimiter enables login throttling.
func WithRateLimiter(l RateLimiter) ServiceOption {
	return func(s *Service) { s.rateLimiter = l }
}

// WithRotation makes every refresh return a new refresh token and revoke the
// old one.
func WithRotation(r Revoker) ServiceOption {
	return func(s *Service) {
		s.rotate = true
		s.revoker = r
	}
}

// NewService creates a new authentication service
func NewService(users *Directory, issuer *token.Issuer, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		users:  users,
		issuer: issuer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates with email and password and issues a token pair.
func (s *Service) Login(ctx context.Context, req LoginRequest, ipAddress string) (*token.Pair, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := SanitizeEmail(req.Email)

	if s.rateLimiter != nil {
		allowed, lockoutRemaining, err := s.rateLimiter.Check(ctx, email, ipAddress)
		if err != nil {
			// A broken limiter must not lock everyone out.
			s.logger.Warn("rate limiter error", zap.Error(err))
		} else if !allowed {
			middleware.RecordRateLimitHit()
			middleware.RecordLoginAttempt("blocked")
			return nil, apperrors.NewAppError(apperrors.CodeRateLimitExceeded,
				fmt.Sprintf("Too many failed attempts, try again in %v", lockoutRemaining.Round(time.Second)),
				http.StatusTooManyRequests)
		}
	}

	usr, err := s.users.Authenticate(email, req.Password)
	if err != nil {
		middleware.RecordLoginAttempt("failure")
		if s.rateLimiter != nil {
			if rerr := s.rateLimiter.RecordFailure(ctx, email, ipAddress); rerr != nil {
				s.logger.Warn("failed to record login failure", zap.Error(rerr))
			}
		}
		return nil, err
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.RecordSuccess(ctx, email, ipAddress); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}

	pair, err := s.issuer.Issue(usr.ID, usr.Email, usr.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	middleware.RecordLoginAttempt("success")
	s.logger.Info("login", zap.String("user_id", usr.ID), zap.String("role", string(usr.Role)))
	return pair, nil
}

// Register creates a worker or employer account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	usr, err := s.users.Create(req.Email, req.Password, req.Role, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}
	s.logger.Info("registered", zap.String("user_id", usr.ID), zap.String("role", string(usr.Role)))
	return usr, nil
}

// Refresh exchanges a refresh token for a new access token. With rotation on,
// the response also carries a new refresh token and the old one is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	if refreshToken == "" {
		return nil, apperrors.NewAppError(apperrors.CodeValidationError, "refreshToken is required", http.StatusBadRequest).
			WithFieldErrors(map[string]string{"refreshToken": "must not be blank"})
	}

	claims, err := s.issuer.ValidateRefreshToken(refreshToken)
	if err != nil {
		middleware.RecordRefresh("invalid")
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.NewAppError(apperrors.CodeTokenExpired, "Refresh token expired", http.StatusUnauthorized)
		}
		return nil, apperrors.NewAppError(apperrors.CodeInvalidToken, "Invalid refresh token", http.StatusUnauthorized)
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check refresh token: %w", err)
		}
		if revoked {
			middleware.RecordRefresh("revoked")
			return nil, apperrors.NewAppError(apperrors.CodeInvalidToken, "Refresh token revoked", http.StatusUnauthorized)
		}
	}

	usr := s.users.FindByID(claims.Subject)
	if usr == nil {
		middleware.RecordRefresh("invalid")
		return nil, apperrors.NewAppError(apperrors.CodeInvalidToken, "Unknown user", http.StatusUnauthorized)
	}
	if usr.Status != api.UserActive {
		middleware.RecordRefresh("disabled")
		return nil, apperrors.ErrAccountDisabled
	}

	pair, err := s.issuer.Issue(usr.ID, usr.Email, usr.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if !s.rotate {
		pair.RefreshToken = ""
		middleware.RecordRefresh("success")
		return pair, nil
	}

	if err := s.revoker.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("failed to revoke old refresh token: %w", err)
	}
	middleware.RecordRefresh("rotated")
	return pair, nil
}

// CurrentUser resolves the authenticated user set by the auth middleware.
func (s *Service) CurrentUser(userID string) (*User, error) {
	usr := s.users.FindByID(userID)
	if usr == nil {
		return nil, apperrors.NewAppError(apperrors.CodeInvalidToken, "Unknown user", http.StatusUnauthorized)
	}
	return usr, nil
}
