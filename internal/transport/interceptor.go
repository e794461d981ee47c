// Package transport holds the http.RoundTrippers every API request goes
// through: bearer attachment with refresh-and-retry on authorization
// failure, and retry of idempotent requests on transient failures.
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/workconnect/session/internal/metrics"
	"github.com/workconnect/session/internal/store"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
)

// DefaultAuthPaths are the endpoints that never carry a bearer token and
// never trigger a refresh.
var DefaultAuthPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/refresh",
}

// maxErrorBody bounds how much of an error response is read to look for an
// errorCode.
const maxErrorBody = 64 << 10

// TokenRefresher is satisfied by *refresh.Coordinator.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// ExpiredFunc is called when a request failed authorization and the refresh
// that should have rescued it found no refresh token or was rejected.
type ExpiredFunc func(ctx context.Context, err error)

// Interceptor attaches the stored access token to outgoing requests. When a
// request comes back 401 (or with errorCode TOKEN_EXPIRED) it refreshes the
// token and re-sends the request exactly once.
type Interceptor struct {
	next      http.RoundTripper
	store     store.Store
	refresher TokenRefresher
	onExpired ExpiredFunc
	authPaths []string
	logger    *zap.Logger
}

// InterceptorOption configures an Interceptor
type InterceptorOption func(*Interceptor)

// WithAuthPaths replaces DefaultAuthPaths.
func WithAuthPaths(paths ...string) InterceptorOption {
	return func(i *Interceptor) { i.authPaths = paths }
}

// WithExpiredHandler sets the hook run when the session cannot be rescued.
func WithExpiredHandler(fn ExpiredFunc) InterceptorOption {
	return func(i *Interceptor) { i.onExpired = fn }
}

// NewInterceptor wraps next. A nil next means http.DefaultTransport.
func NewInterceptor(next http.RoundTripper, st store.Store, refresher TokenRefresher, logger *zap.Logger, opts ...InterceptorOption) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	i := &Interceptor{
		next:      next,
		store:     st,
		refresher: refresher,
		authPaths: DefaultAuthPaths,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// IsAuthEndpoint reports whether req targets login, register or refresh.
func (i *Interceptor) IsAuthEndpoint(req *http.Request) bool {
	path := strings.TrimSuffix(req.URL.Path, "/")
	for _, p := range i.authPaths {
		if path == p || strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

// RoundTrip implements http.RoundTripper
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	if i.IsAuthEndpoint(req) {
		return i.next.RoundTrip(req)
	}

	ctx := req.Context()
	replay, first, err := rewindBody(req)
	if err != nil {
		return nil, err
	}

	accessToken := ""
	if pair, err := i.store.Read(ctx); err != nil {
		i.logger.Warn("failed to read access token, sending request without it", zap.Error(err))
	} else {
		accessToken = pair.AccessToken
	}

	resp, err := i.next.RoundTrip(withToken(req, accessToken, first, replay))
	if err != nil {
		return nil, err
	}
	if !needsRefresh(resp) {
		return resp, nil
	}

	newToken, refreshErr := i.refresher.Refresh(ctx)
	if refreshErr != nil {
		// A caller that gave up says nothing about the session. The shared
		// refresh keeps running and persists its result.
		if ctxErr := ctx.Err(); ctxErr != nil {
			drain(resp)
			return nil, ctxErr
		}
		i.logger.Info("session could not be refreshed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(refreshErr),
		)
		if i.onExpired != nil && sessionOver(refreshErr) {
			i.onExpired(ctx, refreshErr)
		}
		// The caller sees the original authorization failure.
		return resp, nil
	}

	var body io.ReadCloser
	if replay != nil {
		if body, err = replay(); err != nil {
			return resp, nil
		}
	}
	drain(resp)

	metrics.RecordRetry("auth")
	i.logger.Debug("retrying request with refreshed token",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
	)
	// Exactly one retry: whatever comes back is final.
	return i.next.RoundTrip(withToken(req, newToken, body, replay))
}

// sessionOver reports whether a refresh error means the refresh token is
// gone or was rejected, as opposed to a local failure worth retrying later.
func sessionOver(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, apperrors.ErrNoRefreshToken) || errors.Is(err, apperrors.ErrRefreshFailed)
}

// rewindBody returns a factory for fresh copies of req's body and the body to
// use for the first send.
func rewindBody(req *http.Request) (func() (io.ReadCloser, error), io.ReadCloser, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, req.Body, nil
	}
	if req.GetBody != nil {
		return req.GetBody, req.Body, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, nil, err
	}
	replay := func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	body, _ := replay()
	return replay, body, nil
}

func withToken(req *http.Request, accessToken string, body io.ReadCloser, replay func() (io.ReadCloser, error)) *http.Request {
	out := req.Clone(req.Context())
	out.Body = body
	out.GetBody = replay
	if accessToken != "" {
		out.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		out.Header.Del("Authorization")
	}
	return out
}

// needsRefresh reports 401 or a TOKEN_EXPIRED payload. It leaves resp.Body
// readable from the start.
func needsRefresh(resp *http.Response) bool {
	if resp.StatusCode == http.StatusUnauthorized {
		return true
	}
	if resp.StatusCode < 400 || resp.Body == nil {
		return false
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	rest := resp.Body
	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), rest), rest}
	if err != nil {
		return false
	}
	return apperrors.FromResponse(resp.StatusCode, data).NeedsRefresh()
}

func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
