// Package app assembles the session client: token store, session state,
// refresh coordinator and scheduler, the intercepted transport, and the
// clients and guards built on top of them.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/auth"
	"github.com/workconnect/session/internal/config"
	"github.com/workconnect/session/internal/database"
	"github.com/workconnect/session/internal/guard"
	"github.com/workconnect/session/internal/notify"
	"github.com/workconnect/session/internal/refresh"
	"github.com/workconnect/session/internal/session"
	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/transport"
	"go.uber.org/zap"
)

const redisConnectTimeout = 5 * time.Second

// App is a fully wired session client.
type App struct {
	Store     store.Store
	Session   *session.State
	Notices   *notify.Center
	Auth      *auth.Client
	Refresh   *refresh.Coordinator
	Scheduler *refresh.Scheduler
	Transport http.RoundTripper
	API       *api.Client
	Guards    *guard.Guards
	Router    *guard.Router

	logger   *zap.Logger
	closers  []func() error
	mu       sync.Mutex
	location string
}

// New opens the configured token store and wires everything on top of it.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	st, closer, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a := NewWithStore(cfg, st, nil, logger)
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// NewWithStore wires the client over st. base is the innermost transport;
// nil means http.DefaultTransport.
func NewWithStore(cfg *config.Config, st store.Store, base http.RoundTripper, logger *zap.Logger) *App {
	a := &App{
		Store:   st,
		Notices: notify.NewCenter(logger),
		logger:  logger,
	}

	a.Session = session.NewState(st, logger.Named("session"), session.WithExpiryBuffer(cfg.Session.ExpiryBuffer))

	a.Auth = auth.NewClient(cfg.API.BaseURL, st, a.Session, a.Notices, logger.Named("auth"),
		auth.WithHTTPClient(&http.Client{Transport: base}),
		auth.WithTimeout(cfg.API.Timeout),
		auth.WithLocation(a.Location),
	)

	a.Refresh = refresh.NewCoordinator(st, a.Auth, a.Session, logger.Named("refresh"))
	a.Scheduler = refresh.NewScheduler(a.Refresh, a.Session,
		cfg.Session.RefreshInterval, cfg.Session.RefreshThreshold, logger.Named("scheduler"))
	a.Auth.AttachScheduler(a.Scheduler)

	retry := transport.DefaultRetryConfig()
	retry.MaxRetries = cfg.API.MaxRetries
	a.Transport = transport.NewInterceptor(
		transport.NewRetry(base, retry, logger.Named("retry")),
		st, a.Refresh, logger.Named("transport"),
		transport.WithExpiredHandler(a.Auth.HandleSessionExpired),
	)

	a.API = api.NewClient(cfg.API.BaseURL, a.Transport, cfg.API.Timeout)
	a.Guards = guard.New(a.Session, st, a.Auth.Logout, logger.Named("guard"))
	a.Router = guard.NewRouter(guard.DefaultRoutes(a.Guards)...)

	return a
}

// OpenStore builds the token store backend named by cfg. The returned func,
// if any, releases the backend's connection.
func OpenStore(cfg config.StoreConfig) (store.Store, func() error, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), nil, nil
	case "file":
		path := cfg.FilePath
		if path == "" {
			p, err := store.DefaultFilePath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		return store.NewFile(path), nil, nil
	case "redis":
		client, err := database.NewRedisClient(cfg.RedisURL, redisConnectTimeout)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client.Client, cfg.RedisPrefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Navigate runs the route guards for path. An allowed navigation becomes the
// current location, remembered as the return URL if the session expires.
func (a *App) Navigate(ctx context.Context, path string) guard.Decision {
	d := a.Router.Navigate(ctx, path)
	if d.Allow {
		a.SetLocation(path)
	} else {
		a.SetLocation(d.Redirect)
	}
	return d
}

// SetLocation records the route the user is on.
func (a *App) SetLocation(path string) {
	a.mu.Lock()
	a.location = path
	a.mu.Unlock()
}

// Location returns the route the user is on.
func (a *App) Location() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location
}

// Close stops the refresh loop and releases the store.
func (a *App) Close() error {
	a.Scheduler.Stop()
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
