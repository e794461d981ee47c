package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workconnect/session/internal/auth"
	"github.com/workconnect/session/internal/backend"
	"github.com/workconnect/session/internal/config"
	"github.com/workconnect/session/internal/guard"
	"github.com/workconnect/session/internal/metrics"
	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/token"
	"go.uber.org/zap"
)

const testPassword = "password123"

type harness struct {
	app    *App
	issuer *token.Issuer
	worker *backend.User

	refreshHits atomic.Int64
	staleHits   atomic.Int64
	staleToken  atomic.Value
	holdRefresh atomic.Pointer[func()]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &harness{
		issuer: token.NewIssuer("access-secret-minimum-32-characters!", "refresh-secret-minimum-32-characters", 15*time.Minute, time.Hour),
	}
	h.staleToken.Store("")

	users := backend.NewDirectory()
	worker, err := users.Create("worker@example.com", testPassword, token.RoleWorker, "Wendy", "Worker")
	require.NoError(t, err)
	h.worker = worker

	svc := backend.NewService(users, h.issuer, zap.NewNop())
	router := backend.NewRouter(backend.NewHandler(svc, backend.NewBoard()), backend.RouterConfig{
		Issuer:         h.issuer,
		AllowedOrigins: []string{"*"},
		Logger:         zap.NewNop(),
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == auth.PathRefresh {
			h.refreshHits.Add(1)
			if hold := h.holdRefresh.Load(); hold != nil {
				(*hold)()
			}
		}
		if stale := h.staleToken.Load().(string); stale != "" && r.Header.Get("Authorization") == "Bearer "+stale {
			h.staleHits.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		API: config.APIConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, MaxRetries: 3},
		Session: config.SessionConfig{
			RefreshInterval:  time.Hour,
			RefreshThreshold: 10 * time.Minute,
			ExpiryBuffer:     30 * time.Second,
		},
		Store: config.StoreConfig{Backend: "memory"},
	}
	h.app = NewWithStore(cfg, store.NewMemory(), nil, zap.NewNop())
	t.Cleanup(func() { h.app.Close() })
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	res, err := h.app.Auth.Login(context.Background(), auth.Credentials{Email: h.worker.Email, Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, guard.RouteDashboard, res.Redirect)
}

// expireAccess swaps the stored access token for one that expired a minute
// ago, keeping the refresh token.
func (h *harness) expireAccess(t *testing.T) string {
	t.Helper()
	stale, err := h.issuer.IssueAccess(h.worker.ID, h.worker.Email, token.RoleWorker, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	require.NoError(t, h.app.Store.SaveAccessToken(context.Background(), stale))
	h.app.Session.Invalidate()
	h.staleToken.Store(stale)
	return stale
}

func TestApp_ExpiredAccessTokenIsRefreshedAndRetried(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)
	stale := h.expireAccess(t)

	apps, err := h.app.API.MyApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, apps)

	assert.Equal(t, int64(1), h.refreshHits.Load())
	assert.Equal(t, int64(1), h.staleHits.Load())

	pair, err := h.app.Store.Read(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, stale, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, h.app.Session.IsLoggedIn(ctx))

	w := httptest.NewRecorder()
	metrics.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `session_refresh_total{outcome="success"}`)
	assert.Contains(t, w.Body.String(), `http_client_retries_total{reason="auth"}`)
}

func TestApp_ConcurrentFailuresShareOneRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)
	h.expireAccess(t)

	const callers = 5
	hold := func() {
		deadline := time.Now().Add(2 * time.Second)
		for h.staleHits.Load() < callers && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(50 * time.Millisecond)
	}
	h.holdRefresh.Store(&hold)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.app.API.MyApplications(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(1), h.refreshHits.Load())
}

func TestApp_CallerTimeoutDuringRefreshKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	stale := h.expireAccess(t)

	release := make(chan struct{})
	hold := func() { <-release }
	h.holdRefresh.Store(&hold)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := h.app.API.MyApplications(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	bg := context.Background()
	require.Eventually(t, func() bool {
		pair, err := h.app.Store.Read(bg)
		return err == nil && pair.AccessToken != "" && pair.AccessToken != stale
	}, 2*time.Second, 10*time.Millisecond)

	pair, err := h.app.Store.Read(bg)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, h.app.Session.IsLoggedIn(bg))
	for _, n := range h.app.Notices.Active() {
		assert.NotEqual(t, "Session Expired", n.Title)
	}
	assert.Equal(t, int64(1), h.refreshHits.Load())
}

func TestApp_UnrecoverableSessionLogsOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.login(t)

	d := h.app.Navigate(ctx, "/app/applications")
	require.True(t, d.Allow)

	h.expireAccess(t)
	pair, err := h.app.Store.Read(ctx)
	require.NoError(t, err)
	pair.RefreshToken = "not-a-refresh-token"
	require.NoError(t, h.app.Store.Save(ctx, pair))

	_, err = h.app.API.MyApplications(ctx)
	require.Error(t, err)

	assert.False(t, h.app.Session.IsLoggedIn(ctx))
	assert.False(t, h.app.Scheduler.Running())

	returnURL, err := h.app.Store.ConsumeReturnURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/app/applications", returnURL)

	var titles []string
	for _, n := range h.app.Notices.Active() {
		titles = append(titles, n.Title)
	}
	assert.Contains(t, titles, "Session Expired")

	d = h.app.Navigate(ctx, "/app/applications")
	assert.False(t, d.Allow)
	assert.Equal(t, guard.RouteLogin, d.Redirect)

	res, err := h.app.Auth.Login(ctx, auth.Credentials{Email: h.worker.Email, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "/app/applications", res.Redirect)
}

func TestOpenStore(t *testing.T) {
	st, closer, err := OpenStore(config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.IsType(t, &store.Memory{}, st)

	path := t.TempDir() + "/session.yaml"
	st, _, err = OpenStore(config.StoreConfig{Backend: "file", FilePath: path})
	require.NoError(t, err)
	assert.IsType(t, &store.File{}, st)

	_, _, err = OpenStore(config.StoreConfig{Backend: "cookies"})
	assert.Error(t, err)
}
