// Package auth is the client of the backend auth endpoints. It stores tokens
// on login and clears them on logout or when the session cannot be refreshed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/workconnect/session/internal/guard"
	"github.com/workconnect/session/internal/metrics"
	"github.com/workconnect/session/internal/notify"
	"github.com/workconnect/session/internal/session"
	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
)

// Backend auth endpoints
const (
	PathLogin    = "/api/auth/login"
	PathRegister = "/api/auth/register"
	PathRefresh  = "/api/auth/refresh"
)

// Lifecycle is the proactive refresh loop the client starts on login and
// stops on logout. Satisfied by *refresh.Scheduler.
type Lifecycle interface {
	Start()
	Stop()
}

// Client talks to the backend auth endpoints and owns the session lifecycle:
// login, logout and the reaction to an unrecoverable expiry.
type Client struct {
	http     *resty.Client
	store    store.Store
	session  *session.State
	notifier notify.Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	scheduler Lifecycle
	location  func() string
	expired   bool
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sends requests through hc instead of a default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).SetBaseURL(c.http.BaseURL)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithLocation reports the route the user is on, remembered as the return
// URL when the session expires.
func WithLocation(fn func() string) Option {
	return func(c *Client) { c.location = fn }
}

// NewClient creates an auth client for the backend at baseURL.
func NewClient(baseURL string, st store.Store, state *session.State, notifier notify.Notifier, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		http:     resty.New().SetBaseURL(baseURL),
		store:    st,
		session:  state,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetHeader("Accept", "application/json")
	return c
}

// AttachScheduler sets the proactive refresh loop. The scheduler depends on
// the refresh coordinator, which depends on this client, so it is attached
// after construction.
func (c *Client) AttachScheduler(s Lifecycle) {
	c.mu.Lock()
	c.scheduler = s
	c.mu.Unlock()
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      token.Role `json:"role"`
	Phone     string     `json:"phone,omitempty"`
}

// LoginResult tells the caller who logged in and where to go next.
type LoginResult struct {
	Role     token.Role
	Redirect string
}

// Login authenticates, stores the token pair and starts the refresh loop.
// The redirect is the remembered return URL if any, else the role's landing
// route.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var pair token.Pair
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(&pair).
		Post(PathLogin)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apperrors.FromResponse(resp.StatusCode(), resp.Body())
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("login response has no access token")
	}

	if err := c.store.Save(ctx, pair); err != nil {
		return nil, fmt.Errorf("failed to store tokens: %w", err)
	}
	c.session.Invalidate()

	c.mu.Lock()
	c.expired = false
	c.mu.Unlock()

	role := c.session.Role(ctx)
	redirect, err := c.store.ConsumeReturnURL(ctx)
	if err != nil {
		c.logger.Warn("failed to read return url", zap.Error(err))
	}
	if redirect == "" {
		redirect = guard.Landing(role)
	}

	c.startScheduler()
	c.notifier.Notify(notify.Success("Welcome!", "You have successfully logged in."))
	c.logger.Info("logged in", zap.String("role", string(role)), zap.String("redirect", redirect))

	return &LoginResult{Role: role, Redirect: redirect}, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(reg).
		Post(PathRegister)
	if err != nil {
		return fmt.Errorf("register request failed: %w", err)
	}
	if resp.IsError() {
		return apperrors.FromResponse(resp.StatusCode(), resp.Body())
	}

	c.notifier.Notify(notify.Success("Registration Successful", "Please log in with your new account."))
	return nil
}

// RefreshTokens exchanges a refresh token for a new pair. It only calls the
// backend; storing the result is the coordinator's job.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (token.Pair, error) {
	var pair token.Pair
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"refreshToken": refreshToken}).
		SetResult(&pair).
		Post(PathRefresh)
	if err != nil {
		return token.Pair{}, fmt.Errorf("refresh request failed: %w", err)
	}
	if resp.IsError() {
		return token.Pair{}, apperrors.FromResponse(resp.StatusCode(), resp.Body())
	}
	return pair, nil
}

// Logout stops the refresh loop and clears both tokens and the return URL.
func (c *Client) Logout(ctx context.Context) error {
	c.stopScheduler()
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	c.session.Invalidate()

	c.notifier.Notify(notify.Info("Logged Out", "You have been successfully logged out."))
	c.logger.Info("logged out")
	return nil
}

// HandleSessionExpired reacts to a request whose authorization could not be
// rescued by a refresh: the session is cleared, the current location is
// remembered for after the next login and a sticky notice is shown. Several
// requests failing together produce one notice.
func (c *Client) HandleSessionExpired(ctx context.Context, cause error) {
	c.mu.Lock()
	already := c.expired
	c.expired = true
	location := c.location
	c.mu.Unlock()
	if already {
		return
	}

	metrics.RecordSessionExpired()
	c.logger.Info("session expired", zap.Error(cause))

	c.stopScheduler()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear expired session", zap.Error(err))
	}
	c.session.Invalidate()

	if location != nil {
		if dest := location(); dest != "" && dest != guard.RouteLogin {
			if err := c.store.SetReturnURL(ctx, dest); err != nil {
				c.logger.Warn("failed to remember return url", zap.Error(err))
			}
		}
	}

	c.notifier.Notify(notify.SessionExpired())
}

// Resume starts the refresh loop if a session survived from a previous run.
func (c *Client) Resume(ctx context.Context) bool {
	if !c.session.IsLoggedIn(ctx) {
		return false
	}
	c.startScheduler()
	return true
}

// IsSessionOver reports whether err means the user has to log in again.
func IsSessionOver(err error) bool {
	if errors.Is(err, apperrors.ErrNoRefreshToken) || errors.Is(err, apperrors.ErrRefreshFailed) {
		return true
	}
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.NeedsRefresh()
}

func (c *Client) startScheduler() {
	c.mu.Lock()
	s := c.scheduler
	c.mu.Unlock()
	if s != nil {
		s.Start()
	}
}

func (c *Client) stopScheduler() {
	c.mu.Lock()
	s := c.scheduler
	c.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}
