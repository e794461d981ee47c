// Package refresh keeps the access token fresh: a Coordinator that collapses
// concurrent refreshes into one backend call, and a Scheduler that refreshes
// ahead of expiry.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/workconnect/session/internal/metrics"
	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Refresher performs the backend refresh call. A returned pair with an empty
// RefreshToken means the refresh token was not rotated.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (token.Pair, error)
}

// Invalidator drops cached session values.
type Invalidator interface {
	Invalidate()
}

const flightKey = "refresh"

// Coordinator guarantees at most one refresh call in flight. Every caller
// that arrives while one is running receives that call's result.
type Coordinator struct {
	store     store.Store
	refresher Refresher
	session   Invalidator
	logger    *zap.Logger

	group singleflight.Group
}

// NewCoordinator creates a refresh coordinator
func NewCoordinator(st store.Store, refresher Refresher, session Invalidator, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:     st,
		refresher: refresher,
		session:   session,
		logger:    logger,
	}
}

// Refresh returns a new access token. The backend call runs detached from
// ctx: cancelling ctx stops this caller waiting but the refresh still
// completes and is persisted for everyone else.
//
// Failures wrap apperrors.ErrNoRefreshToken or apperrors.ErrRefreshFailed.
// The store is left untouched on failure; deciding to log out is the caller's
// job.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	metrics.RecordRefreshWaiting(1)
	defer metrics.RecordRefreshWaiting(-1)

	// Only the caller whose function runs leads the flight. Shared is set for
	// the leader too once anyone joined.
	var leader bool
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		leader = true
		return c.do(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared && !leader {
			metrics.RecordRefreshCoalesced()
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Coordinator) do(ctx context.Context) (string, error) {
	pair, err := c.store.Read(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	if pair.RefreshToken == "" {
		metrics.RecordRefresh("no_token", 0)
		return "", apperrors.ErrNoRefreshToken
	}

	start := time.Now()
	fresh, err := c.refresher.RefreshTokens(ctx, pair.RefreshToken)
	if err == nil && fresh.AccessToken == "" {
		err = errors.New("refresh response carried no access token")
	}
	if err != nil {
		metrics.RecordRefresh("failure", time.Since(start))
		c.logger.Warn("token refresh failed", zap.Error(err))
		if errors.Is(err, apperrors.ErrRefreshFailed) || errors.Is(err, apperrors.ErrNoRefreshToken) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)
	}

	if fresh.RefreshToken != "" {
		err = c.store.Save(ctx, fresh)
	} else {
		err = c.store.SaveAccessToken(ctx, fresh.AccessToken)
	}
	if err != nil {
		metrics.RecordRefresh("failure", time.Since(start))
		return "", fmt.Errorf("%w: failed to persist tokens: %w", apperrors.ErrRefreshFailed, err)
	}
	c.session.Invalidate()

	metrics.RecordRefresh("success", time.Since(start))
	c.logger.Debug("token refreshed",
		zap.Bool("rotated", fresh.RefreshToken != ""),
		zap.Duration("latency", time.Since(start)),
	)
	return fresh.AccessToken, nil
}
