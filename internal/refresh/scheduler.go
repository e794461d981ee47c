package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/workconnect/session/internal/metrics"
	"go.uber.org/zap"
)

// Defaults for the proactive check.
const (
	DefaultInterval  = 5 * time.Minute
	DefaultThreshold = 10 * time.Minute
)

// SessionReader is the slice of session state the scheduler needs.
type SessionReader interface {
	IsLoggedIn(ctx context.Context) bool
	TimeUntilExpiry(ctx context.Context) (time.Duration, bool)
}

// TokenRefresher is satisfied by *Coordinator.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Scheduler refreshes the access token when it gets within Threshold of
// expiry, checking once on Start and then every Interval.
type Scheduler struct {
	refresher TokenRefresher
	session   SessionReader
	interval  time.Duration
	threshold time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a proactive refresh scheduler
func NewScheduler(refresher TokenRefresher, session SessionReader, interval, threshold time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scheduler{
		refresher: refresher,
		session:   session,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
	}
}

// Start begins checking. Calling Start while running does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Info("starting token refresh scheduler",
		zap.Duration("interval", s.interval),
		zap.Duration("threshold", s.threshold),
	)
	go s.run(ctx, s.done)
}

// Stop cancels checking and waits for the loop to exit. Calling Stop when not
// running does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.logger.Info("stopped token refresh scheduler")
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.Check(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Check refreshes if the session is live and close to expiry. It reports
// whether a refresh succeeded. A failed refresh is only logged: the next
// request that hits a 401 decides whether the session is over.
func (s *Scheduler) Check(ctx context.Context) bool {
	if !s.session.IsLoggedIn(ctx) {
		metrics.RecordProactiveCheck("skipped")
		return false
	}

	remaining, ok := s.session.TimeUntilExpiry(ctx)
	if !ok {
		metrics.RecordProactiveCheck("skipped")
		return false
	}
	if remaining > s.threshold {
		metrics.RecordProactiveCheck("fresh")
		return false
	}

	s.logger.Info("access token near expiry, refreshing", zap.Duration("remaining", remaining))
	if _, err := s.refresher.Refresh(ctx); err != nil {
		metrics.RecordProactiveCheck("failed")
		s.logger.Warn("proactive token refresh failed", zap.Error(err))
		return false
	}

	metrics.RecordProactiveCheck("refreshed")
	return true
}
