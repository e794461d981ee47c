// Package notify delivers user-visible notices such as "Session Expired".
package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/workconnect/session/pkg/errors"
	"go.uber.org/zap"
)

// Level of a notice
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Default display durations. Zero means the notice stays until dismissed.
const (
	SuccessDuration = 3 * time.Second
	InfoDuration    = 5 * time.Second
	WarningDuration = 6 * time.Second
	ErrorDuration   = 5 * time.Second
	ServerDuration  = 8 * time.Second
	Sticky          = time.Duration(0)
)

// Notice is one user-visible message.
type Notice struct {
	ID          string        `json:"id"`
	Level       Level         `json:"type"`
	Title       string        `json:"title"`
	Message     string        `json:"message"`
	Duration    time.Duration `json:"duration"`
	Dismissible bool          `json:"dismissible"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Sticky reports whether the notice never auto-dismisses.
func (n Notice) Sticky() bool {
	return n.Duration <= 0
}

// Notifier receives notices.
type Notifier interface {
	Notify(n Notice)
}

// Center keeps the notices currently on screen and mirrors each one to the
// log. Notices with a duration expire on their own.
type Center struct {
	mu      sync.Mutex
	notices []Notice
	logger  *zap.Logger
	now     func() time.Time
	subs    []chan Notice
}

// NewCenter creates an empty notification center
func NewCenter(logger *zap.Logger) *Center {
	return &Center{
		logger: logger,
		now:    time.Now,
	}
}

// Notify implements Notifier
func (c *Center) Notify(n Notice) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	now := c.now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}

	c.mu.Lock()
	c.prune(now)
	c.notices = append(c.notices, n)
	for _, ch := range c.subs {
		select {
		case ch <- n:
		default:
			// Slow subscribers miss notices rather than block the sender.
		}
	}
	c.mu.Unlock()

	fields := []zap.Field{
		zap.String("level", string(n.Level)),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
	}
	switch n.Level {
	case LevelError:
		c.logger.Error("notification", fields...)
	case LevelWarning:
		c.logger.Warn("notification", fields...)
	default:
		c.logger.Info("notification", fields...)
	}
}

// Subscribe returns a channel receiving every future notice. Call the
// returned func to unsubscribe.
func (c *Center) Subscribe(buffer int) (<-chan Notice, func()) {
	ch := make(chan Notice, buffer)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s == ch {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
}

// Active returns notices that have not been dismissed or expired, oldest first.
func (c *Center) Active() []Notice {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune(now)
	return append([]Notice(nil), c.notices...)
}

// prune drops notices expired at now. Callers hold c.mu.
func (c *Center) prune(now time.Time) {
	kept := c.notices[:0]
	for _, n := range c.notices {
		if n.Sticky() || now.Before(n.CreatedAt.Add(n.Duration)) {
			kept = append(kept, n)
		}
	}
	clear(c.notices[len(kept):])
	c.notices = kept
}

// Dismiss removes a notice by ID.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every notice
func (c *Center) Clear() {
	c.mu.Lock()
	c.notices = nil
	c.mu.Unlock()
}

func Success(title, message string) Notice {
	return Notice{Level: LevelSuccess, Title: title, Message: message, Duration: SuccessDuration, Dismissible: true}
}

func Info(title, message string) Notice {
	return Notice{Level: LevelInfo, Title: title, Message: message, Duration: InfoDuration, Dismissible: true}
}

func Warning(title, message string, d time.Duration) Notice {
	return Notice{Level: LevelWarning, Title: title, Message: message, Duration: d, Dismissible: true}
}

func Error(title, message string) Notice {
	return Notice{Level: LevelError, Title: title, Message: message, Duration: ErrorDuration, Dismissible: true}
}

// SessionExpired is shown when the session could not be refreshed.
func SessionExpired() Notice {
	return Warning("Session Expired", "Your session has expired. Please log in again.", Sticky)
}

// FromError builds the notice for a failed API call.
func FromError(err error) Notice {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return fromAppError(appErr)
	}

	switch apperrors.Classify(err) {
	case apperrors.ClassAuth:
		return SessionExpired()
	case apperrors.ClassNetwork:
		n := Error("Connection Error", "Unable to connect to the server. Please check your internet connection.")
		n.Duration = Sticky
		return n
	}
	return Error("Unexpected Error", "An unexpected error occurred. Please try again.")
}

func fromAppError(e *apperrors.AppError) Notice {
	switch {
	case e.Code == apperrors.CodeTokenExpired:
		return SessionExpired()
	case e.IsAccessDenied():
		return Warning("Access Denied", "You don't have permission to perform this action.", WarningDuration)
	case e.Code == apperrors.CodeDuplicateApplication:
		return Info("Already Applied", "You have already applied for this job.")
	case e.IsValidation():
		n := Error("Validation Error", e.ValidationMessage())
		n.Duration = Sticky
		return n
	case e.Code == apperrors.CodeUnknown && e.IsServer():
		n := Error("Server Error", "The server is currently experiencing issues. Please try again later.")
		n.Duration = ServerDuration
		return n
	}

	n := Error(title(e.Code), e.Message)
	switch e.Code {
	case apperrors.CodeApplicationDeadline:
		n.Level = LevelWarning
	case apperrors.CodeJobNotAvailable:
		n.Level = LevelInfo
	}
	if n.Message == "" {
		n.Message = "An unexpected error occurred. Please try again."
	}
	return n
}

func title(code apperrors.ErrorCode) string {
	switch code {
	case apperrors.CodeValidationError:
		return "Validation Error"
	case apperrors.CodeAuthenticationFailed:
		return "Authentication Failed"
	case apperrors.CodeAccessDenied:
		return "Access Denied"
	case apperrors.CodeResourceNotFound:
		return "Not Found"
	case apperrors.CodeInternalServerError:
		return "Server Error"
	}
	return "Error"
}
