package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workconnect/session/internal/session"
	"github.com/workconnect/session/internal/store"
	"github.com/workconnect/session/internal/token"
	"go.uber.org/zap"
)

var testIssuer = token.NewIssuer(
	"test-secret-key-minimum-32-chars",
	"test-refresh-secret-key-32-chars",
	15*time.Minute,
	168*time.Hour,
)

// issuingRefresher mints a real access token expiring in ttl.
type issuingRefresher struct {
	calls atomic.Int32
	ttl   time.Duration
	err   error
}

func (r *issuingRefresher) RefreshTokens(ctx context.Context, refreshToken string) (token.Pair, error) {
	r.calls.Add(1)
	if r.err != nil {
		return token.Pair{}, r.err
	}
	access, err := testIssuer.IssueAccess("user-1", "", token.RoleEmployer, time.Now().Add(r.ttl))
	return token.Pair{AccessToken: access}, err
}

func newSession(t *testing.T, expiresIn time.Duration) (*store.Memory, *session.State) {
	t.Helper()
	access, err := testIssuer.IssueAccess("user-1", "", token.RoleEmployer, time.Now().Add(expiresIn))
	require.NoError(t, err)

	st := store.NewMemory()
	require.NoError(t, st.Save(context.Background(), token.Pair{AccessToken: access, RefreshToken: "r1"}))
	return st, session.NewState(st, zap.NewNop())
}

func TestScheduler_RefreshesNearExpiry(t *testing.T) {
	ctx := context.Background()
	st, state := newSession(t, 2*time.Minute)
	before, ok := state.TokenExpiration(ctx)
	require.True(t, ok)

	r := &issuingRefresher{ttl: 15 * time.Minute}
	s := NewScheduler(NewCoordinator(st, r, state, zap.NewNop()), state, DefaultInterval, DefaultThreshold, zap.NewNop())

	assert.True(t, s.Check(ctx))
	assert.Equal(t, int32(1), r.calls.Load())

	after, ok := state.TokenExpiration(ctx)
	require.True(t, ok)
	assert.True(t, after.After(before), "expiry moved from %v to %v", before, after)

	// Now fresh: a second check does nothing.
	assert.False(t, s.Check(ctx))
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestScheduler_SkipsWhenFreshOrLoggedOut(t *testing.T) {
	ctx := context.Background()

	st, state := newSession(t, time.Hour)
	r := &issuingRefresher{ttl: 15 * time.Minute}
	s := NewScheduler(NewCoordinator(st, r, state, zap.NewNop()), state, DefaultInterval, DefaultThreshold, zap.NewNop())
	assert.False(t, s.Check(ctx))

	empty := store.NewMemory()
	emptyState := session.NewState(empty, zap.NewNop())
	s = NewScheduler(NewCoordinator(empty, r, emptyState, zap.NewNop()), emptyState, DefaultInterval, DefaultThreshold, zap.NewNop())
	assert.False(t, s.Check(ctx))

	assert.Equal(t, int32(0), r.calls.Load())
}

func TestScheduler_FailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	st, state := newSession(t, 2*time.Minute)
	r := &issuingRefresher{err: errors.New("backend down")}
	s := NewScheduler(NewCoordinator(st, r, state, zap.NewNop()), state, DefaultInterval, DefaultThreshold, zap.NewNop())

	assert.False(t, s.Check(ctx))
	pair, err := st.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r1", pair.RefreshToken, "proactive failure must not log out")
	assert.True(t, state.IsLoggedIn(ctx))
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	st, state := newSession(t, 2*time.Minute)
	r := &issuingRefresher{ttl: 15 * time.Minute}
	s := NewScheduler(NewCoordinator(st, r, state, zap.NewNop()), state, time.Hour, DefaultThreshold, zap.NewNop())

	s.Stop() // not running: no-op
	assert.False(t, s.Running())

	s.Start()
	s.Start()
	assert.True(t, s.Running())

	// The immediate check on Start refreshes once.
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.Running())
	assert.Equal(t, int32(1), r.calls.Load(), "second Start did not launch another loop")
}

func TestScheduler_TicksAtInterval(t *testing.T) {
	st, state := newSession(t, 2*time.Minute)
	// Each refresh hands out another short-lived token so every tick refreshes.
	r := &issuingRefresher{ttl: 2 * time.Minute}
	s := NewScheduler(NewCoordinator(st, r, state, zap.NewNop()), state, 10*time.Millisecond, DefaultThreshold, zap.NewNop())

	s.Start()
	defer s.Stop()
	require.Eventually(t, func() bool { return r.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}
