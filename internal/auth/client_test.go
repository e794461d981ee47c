package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workconnect/session/internal/guard"
	"github.com/workconnect/session/internal/notify"
	"github.com/workconnect/session/internal/refresh"
	"github.com/workconnect/session/internal/session"
	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
)

type fakeScheduler struct {
	starts, stops atomic.Int32
}

func (f *fakeScheduler) Start() { f.starts.Add(1) }
func (f *fakeScheduler) Stop()  { f.stops.Add(1) }

type harness struct {
	store     *store.Memory
	session   *session.State
	notices   *notify.Center
	scheduler *fakeScheduler
	client    *Client
	refreshes atomic.Int32
}

func newHarness(t *testing.T, role token.Role, opts ...Option) *harness {
	t.Helper()
	issuer := token.NewIssuer("access-secret-minimum-32-characters!", "refresh-secret-minimum-32-characters", 15*time.Minute, time.Hour)
	h := &harness{
		store:     store.NewMemory(),
		notices:   notify.NewCenter(zap.NewNop()),
		scheduler: &fakeScheduler{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(PathLogin, func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		w.Header().Set("Content-Type", "application/json")
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(apperrors.ErrInvalidCredentials)
			return
		}
		pair, err := issuer.Issue("user-1", creds.Email, role)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(pair)
	})
	mux.HandleFunc(PathRegister, func(w http.ResponseWriter, r *http.Request) {
		var reg Registration
		_ = json.NewDecoder(r.Body).Decode(&reg)
		w.Header().Set("Content-Type", "application/json")
		if reg.Email == "taken@example.com" {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(apperrors.ErrEmailExists)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"created"}`))
	})
	mux.HandleFunc(PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		h.refreshes.Add(1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if _, err := issuer.ValidateRefreshToken(body.RefreshToken); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(apperrors.ErrInvalidToken)
			return
		}
		access, err := issuer.IssueAccess("user-1", "", role, time.Now().Add(15*time.Minute))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(token.Pair{AccessToken: access})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h.session = session.NewState(h.store, zap.NewNop())
	h.client = NewClient(srv.URL, h.store, h.session, h.notices, zap.NewNop(), opts...)
	h.client.AttachScheduler(h.scheduler)
	return h
}

func TestLogin_ConsumesReturnURL(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, token.RoleWorker)
	guards := guard.New(h.session, h.store, h.client.Logout, zap.NewNop())

	d := guards.Auth(ctx, "/app/post-job")
	require.False(t, d.Allow)
	require.Equal(t, "/login", d.Redirect)

	res, err := h.client.Login(ctx, Credentials{Email: "w@example.com", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "/app/post-job", res.Redirect)
	assert.Equal(t, token.RoleWorker, res.Role)

	left, err := h.store.ConsumeReturnURL(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.True(t, guards.Auth(ctx, "/app/post-job").Allow)
	assert.EqualValues(t, 1, h.scheduler.starts.Load())
}

func TestLogin_DefaultsToLanding(t *testing.T) {
	tests := []struct {
		role token.Role
		want string
	}{
		{token.RoleWorker, "/app/dashboard"},
		{token.RoleEmployer, "/app/dashboard"},
		{token.RoleAdmin, "/app/admin/dashboard"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			h := newHarness(t, tt.role)
			res, err := h.client.Login(context.Background(), Credentials{Email: "u@example.com", Password: "secret"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Redirect)
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, token.RoleWorker)

	_, err := h.client.Login(ctx, Credentials{Email: "w@example.com", Password: "wrong"})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeInvalidCredentials, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)

	assert.False(t, h.session.IsLoggedIn(ctx))
	assert.Zero(t, h.scheduler.starts.Load())
}

func TestLogout_EndsSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, token.RoleEmployer)
	coord := refresh.NewCoordinator(h.store, h.client, h.session, zap.NewNop())

	_, err := h.client.Login(ctx, Credentials{Email: "e@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, h.store.SetReturnURL(ctx, "/app/my-jobs"))

	require.NoError(t, h.client.Logout(ctx))

	assert.False(t, h.session.IsLoggedIn(ctx))
	assert.Equal(t, token.Role(""), h.session.Role(ctx))

	_, err = coord.Refresh(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	assert.Zero(t, h.refreshes.Load())

	url, err := h.store.ConsumeReturnURL(ctx)
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.EqualValues(t, 1, h.scheduler.stops.Load())
}

func TestRefreshTokens(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, token.RoleWorker)
	_, err := h.client.Login(ctx, Credentials{Email: "w@example.com", Password: "secret"})
	require.NoError(t, err)

	pair, err := h.store.Read(ctx)
	require.NoError(t, err)

	fresh, err := h.client.RefreshTokens(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
	assert.Empty(t, fresh.RefreshToken)

	_, err = h.client.RefreshTokens(ctx, "garbage")
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.NeedsRefresh())
}

func TestRegister(t *testing.T) {
	h := newHarness(t, token.RoleWorker)
	ctx := context.Background()

	err := h.client.Register(ctx, Registration{FirstName: "A", LastName: "B", Email: "new@example.com", Password: "secret", Role: token.RoleWorker})
	require.NoError(t, err)
	assert.False(t, h.session.IsLoggedIn(ctx))

	err = h.client.Register(ctx, Registration{Email: "taken@example.com", Password: "secret", Role: token.RoleWorker})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeEmailAlreadyExists, appErr.Code)
}

func TestHandleSessionExpired(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, token.RoleWorker, WithLocation(func() string { return "/app/my-applications" }))

	_, err := h.client.Login(ctx, Credentials{Email: "w@example.com", Password: "secret"})
	require.NoError(t, err)
	h.notices.Clear()

	h.client.HandleSessionExpired(ctx, apperrors.ErrRefreshFailed)
	h.client.HandleSessionExpired(ctx, apperrors.ErrRefreshFailed)

	assert.False(t, h.session.IsLoggedIn(ctx))

	active := h.notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Session Expired", active[0].Title)
	assert.True(t, active[0].Sticky())
	assert.EqualValues(t, 1, h.scheduler.stops.Load())

	// A new login re-arms the handler and lands on the remembered route.
	res, err := h.client.Login(ctx, Credentials{Email: "w@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "/app/my-applications", res.Redirect)
}

func TestIsSessionOver(t *testing.T) {
	assert.True(t, IsSessionOver(apperrors.ErrNoRefreshToken))
	assert.True(t, IsSessionOver(apperrors.ErrTokenExpired))
	assert.False(t, IsSessionOver(apperrors.ErrAccessDenied))
	assert.False(t, IsSessionOver(errors.New("boom")))
}
