package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workconnect/session/internal/api"
	"github.com/workconnect/session/internal/ratelimit"
	"github.com/workconnect/session/internal/token"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
)

const testPassword = "password123"

type testServer struct {
	router *gin.Engine
	users  *Directory
	issuer *token.Issuer
}

func newTestServer(t *testing.T, opts ...func(client redis.UniversalClient) ServiceOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	issuer := token.NewIssuer("access-secret-minimum-32-characters!", "refresh-secret-minimum-32-characters", 15*time.Minute, time.Hour)
	users := NewDirectory()

	var svcOpts []ServiceOption
	for _, o := range opts {
		svcOpts = append(svcOpts, o(client))
	}
	svc := NewService(users, issuer, zap.NewNop(), svcOpts...)
	h := NewHandler(svc, NewBoard())

	return &testServer{
		router: NewRouter(h, RouterConfig{Issuer: issuer, AllowedOrigins: []string{"*"}, Logger: zap.NewNop()}),
		users:  users,
		issuer: issuer,
	}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) user(t *testing.T, email string, role token.Role) *User {
	t.Helper()
	u, err := s.users.Create(email, testPassword, role, "Test", "User")
	require.NoError(t, err)
	return u
}

func (s *testServer) login(t *testing.T, email string) token.Pair {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair token.Pair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
	return pair
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) apperrors.AppError {
	t.Helper()
	var e apperrors.AppError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "worker@example.com", token.RoleWorker)

	pair := s.login(t, "  WORKER@example.com ")
	decoded, err := token.Decode(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, token.RoleWorker, decoded.Role)
	assert.NotEmpty(t, pair.RefreshToken)

	w := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "worker@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	e := errorOf(t, w)
	assert.Equal(t, apperrors.CodeInvalidCredentials, e.Code)
	assert.Equal(t, "/api/auth/login", e.Path)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ghost@example.com", Password: testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	s := newTestServer(t, func(c redis.UniversalClient) ServiceOption {
		return WithRateLimiter(ratelimit.NewLimiter(c, 10*time.Minute, 3, 15*time.Minute))
	})
	s.user(t, "worker@example.com", token.RoleWorker)

	for i := 0; i < 3; i++ {
		w := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "worker@example.com", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "worker@example.com", Password: testPassword})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, apperrors.CodeRateLimitExceeded, errorOf(t, w).Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: testPassword, Role: token.RoleEmployer,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ADA@example.com", Password: testPassword, Role: token.RoleEmployer,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeEmailAlreadyExists, errorOf(t, w).Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", RegisterRequest{Email: "bad", Password: "x", Role: token.RoleAdmin})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	e := errorOf(t, w)
	assert.Equal(t, apperrors.CodeValidationError, e.Code)
	for _, field := range []string{"email", "password", "firstName", "lastName", "role"} {
		assert.Contains(t, e.FieldErrors, field)
	}
}

func TestRefresh_WithoutRotation(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "worker@example.com", token.RoleWorker)
	pair := s.login(t, "worker@example.com")

	w := s.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var fresh token.Pair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fresh))
	assert.NotEmpty(t, fresh.AccessToken)
	assert.Empty(t, fresh.RefreshToken)

	// The same refresh token keeps working.
	w = s.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	// An access token is not a refresh token.
	w = s.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: pair.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_RotationRevokesOldToken(t *testing.T) {
	s := newTestServer(t, func(c redis.UniversalClient) ServiceOption {
		return WithRotation(token.NewBlacklist(c))
	})
	s.user(t, "worker@example.com", token.RoleWorker)
	pair := s.login(t, "worker@example.com")

	w := s.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rotated token.Pair
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	w = s.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CodeInvalidToken, errorOf(t, w).Code)

	w = s.do(t, http.MethodPost, "/api/auth/refresh", "", RefreshRequest{RefreshToken: rotated.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJobs_Flow(t *testing.T) {
	s := newTestServer(t)
	s.user(t, "boss@example.com", token.RoleEmployer)
	s.user(t, "rival@example.com", token.RoleEmployer)
	s.user(t, "worker@example.com", token.RoleWorker)
	boss := s.login(t, "boss@example.com").AccessToken
	rival := s.login(t, "rival@example.com").AccessToken
	worker := s.login(t, "worker@example.com").AccessToken

	// Workers cannot post jobs.
	w := s.do(t, http.MethodPost, "/api/jobs", worker, api.NewJob{Title: "x", Description: "y", Location: "z"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/jobs", boss, api.NewJob{Title: "Plumber", Description: "Fix pipes", Location: "Lagos", Salary: "500"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var job api.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "boss@example.com", job.PostedBy.Email)

	w = s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/apply", worker, map[string]string{"coverLetter": "hire me"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var app api.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &app))
	assert.Equal(t, api.StatusPending, app.Status)

	w = s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/apply", worker, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeDuplicateApplication, errorOf(t, w).Code)

	w = s.do(t, http.MethodGet, "/api/employer/jobs/"+job.ID+"/applications", rival, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/employer/jobs/"+job.ID+"/applications", boss, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var apps []api.Application
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	require.Len(t, apps, 1)

	w = s.do(t, http.MethodPut, "/api/employer/applications/"+app.ID+"/status", boss, api.StatusUpdate{Status: api.StatusAccepted})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/worker/applications", worker, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, api.StatusAccepted, apps[0].Status)

	w = s.do(t, http.MethodGet, "/api/jobs/missing", worker, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProtectedRoutes_ExpiredToken(t *testing.T) {
	s := newTestServer(t)
	u := s.user(t, "worker@example.com", token.RoleWorker)

	expired, err := s.issuer.IssueAccess(u.ID, u.Email, u.Role, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/jobs", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CodeTokenExpired, errorOf(t, w).Code)
}

func TestDirectory_Authenticate(t *testing.T) {
	d := NewDirectory()
	_, err := d.Create("w@example.com", testPassword, token.RoleWorker, "W", "X")
	require.NoError(t, err)

	_, err = d.Authenticate("w@example.com", testPassword)
	assert.NoError(t, err)

	_, err = d.Authenticate("w@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

}
