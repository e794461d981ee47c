// Package session derives "who is logged in" from the stored tokens.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/token"
	"go.uber.org/zap"
)

// DefaultExpiryBuffer treats a token as expired this long before its exp, so
// a request never races an imminent expiry.
const DefaultExpiryBuffer = 30 * time.Second

// State answers session questions from the Token Store. It caches the decoded
// role until Invalidate is called; nothing else is cached.
type State struct {
	store  store.Store
	logger *zap.Logger
	buffer time.Duration
	now    func() time.Time

	mu         sync.Mutex
	cachedRole token.Role
	cached     bool
}

// Option configures a State
type Option func(*State)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithExpiryBuffer overrides DefaultExpiryBuffer.
func WithExpiryBuffer(d time.Duration) Option {
	return func(s *State) { s.buffer = d }
}

// NewState creates session state over a token store
func NewState(st store.Store, logger *zap.Logger, opts ...Option) *State {
	s := &State{
		store:  st,
		logger: logger,
		buffer: DefaultExpiryBuffer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the state's clock reading.
func (s *State) Now() time.Time {
	return s.now()
}

func (s *State) decodeAccess(ctx context.Context) (token.Decoded, bool) {
	pair, err := s.store.Read(ctx)
	if err != nil {
		s.logger.Warn("failed to read token store", zap.Error(err))
		return token.Decoded{}, false
	}
	if pair.AccessToken == "" {
		return token.Decoded{}, false
	}

	decoded, err := token.Decode(pair.AccessToken)
	if err != nil {
		s.logger.Debug("stored access token is unreadable", zap.Error(err))
		return token.Decoded{}, false
	}
	return decoded, true
}

// IsLoggedIn is true iff an access token is stored, decodes, and expires
// strictly after now + buffer.
func (s *State) IsLoggedIn(ctx context.Context) bool {
	decoded, ok := s.decodeAccess(ctx)
	if !ok {
		return false
	}
	return decoded.ExpiresAt.After(s.now().Add(s.buffer))
}

// Role returns the current role, or "" when there is none. The first call
// after Invalidate decodes the stored token.
func (s *State) Role(ctx context.Context) token.Role {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached {
		return s.cachedRole
	}

	decoded, ok := s.decodeAccess(ctx)
	if !ok {
		// Nothing to cache; a later token may appear without an Invalidate.
		return ""
	}
	if decoded.Role == "" {
		s.logger.Warn("access token carries no known role", zap.String("role", decoded.RawRole))
	}
	s.cachedRole = decoded.Role
	s.cached = true
	return s.cachedRole
}

// HasRole reports whether the current role is r.
func (s *State) HasRole(ctx context.Context, r token.Role) bool {
	return s.Role(ctx) == r
}

// TokenExpiration returns the access token's exp.
func (s *State) TokenExpiration(ctx context.Context) (time.Time, bool) {
	decoded, ok := s.decodeAccess(ctx)
	if !ok {
		return time.Time{}, false
	}
	return decoded.ExpiresAt, true
}

// TimeUntilExpiry is TokenExpiration minus now; false when there is no token.
func (s *State) TimeUntilExpiry(ctx context.Context) (time.Duration, bool) {
	exp, ok := s.TokenExpiration(ctx)
	if !ok {
		return 0, false
	}
	return exp.Sub(s.now()), true
}

// Invalidate drops cached values. Call after login, refresh and logout.
func (s *State) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = false
	s.cachedRole = ""
}
