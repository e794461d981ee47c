package notify

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
)

func TestCenter_ExpiresTimedNotices(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCenter(zap.NewNop())
	c.now = func() time.Time { return now }

	c.Notify(Success("Welcome!", "You have successfully logged in."))
	c.Notify(SessionExpired())
	require.Len(t, c.Active(), 2)

	now = now.Add(SuccessDuration)
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Session Expired", active[0].Title)
	assert.True(t, active[0].Sticky())
	assert.NotEmpty(t, active[0].ID)
}

func TestCenter_NotifyDropsExpiredNotices(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewCenter(zap.NewNop())
	c.now = func() time.Time { return now }

	c.Notify(SessionExpired())
	for i := 0; i < 100; i++ {
		c.Notify(Info("Refreshed", fmt.Sprintf("tick %d", i)))
		now = now.Add(InfoDuration)
	}

	c.mu.Lock()
	held := len(c.notices)
	c.mu.Unlock()
	assert.Equal(t, 2, held, "only the sticky notice and the latest timed one are kept")
}

func TestCenter_Dismiss(t *testing.T) {
	c := NewCenter(zap.NewNop())
	c.Notify(SessionExpired())
	id := c.Active()[0].ID

	assert.True(t, c.Dismiss(id))
	assert.False(t, c.Dismiss(id))
	assert.Empty(t, c.Active())
}

func TestCenter_Subscribe(t *testing.T) {
	c := NewCenter(zap.NewNop())
	ch, cancel := c.Subscribe(1)

	c.Notify(Info("Logged Out", "You have been successfully logged out."))
	n := <-ch
	assert.Equal(t, LevelInfo, n.Level)

	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	c.Notify(Info("again", ""))
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantTitle string
		wantLevel Level
		sticky    bool
	}{
		{"token expired", apperrors.ErrTokenExpired, "Session Expired", LevelWarning, true},
		{"access denied", apperrors.ErrAccessDenied, "Access Denied", LevelWarning, false},
		{"duplicate", apperrors.NewAppError(apperrors.CodeDuplicateApplication, "dup", http.StatusConflict), "Already Applied", LevelInfo, false},
		{"validation", apperrors.NewAppError(apperrors.CodeValidationError, "bad", http.StatusBadRequest), "Validation Error", LevelError, true},
		{"bare 503", apperrors.FromResponse(http.StatusServiceUnavailable, nil), "Server Error", LevelError, false},
		{"not found", apperrors.ErrNotFound, "Not Found", LevelError, false},
		{"refresh failed", fmt.Errorf("wrapped: %w", apperrors.ErrRefreshFailed), "Session Expired", LevelWarning, true},
		{"network", context.DeadlineExceeded, "Connection Error", LevelError, true},
		{"other", fmt.Errorf("boom"), "Unexpected Error", LevelError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := FromError(tt.err)
			if n.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", n.Title, tt.wantTitle)
			}
			if n.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", n.Level, tt.wantLevel)
			}
			if n.Sticky() != tt.sticky {
				t.Errorf("Sticky() = %v, want %v", n.Sticky(), tt.sticky)
			}
		})
	}
}
