package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/workconnect/session/internal/metrics"
	"go.uber.org/zap"
)

// RetryConfig holds retry configuration for idempotent requests.
type RetryConfig struct {
	// MaxRetries is the number of re-sends after the first attempt.
	MaxRetries int

	// BaseDelay is the first backoff; each retry doubles it.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the retry policy for GET requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// Retry re-sends GET and HEAD requests that fail with a network error, a 5xx,
// 408 or 429. Mutations and every other 4xx pass straight through.
type Retry struct {
	next   http.RoundTripper
	config RetryConfig
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetry wraps next. A nil next means http.DefaultTransport.
func NewRetry(next http.RoundTripper, config RetryConfig, logger *zap.Logger) *Retry {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Retry{
		next:   next,
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
}

// RoundTrip implements http.RoundTripper
func (r *Retry) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return r.next.RoundTrip(req)
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		resp, err := r.next.RoundTrip(req.Clone(ctx))
		if attempt >= r.config.MaxRetries || !retryable(ctx, resp, err) {
			return resp, err
		}

		delay := r.backoff(attempt)
		fields := []zap.Field{
			zap.String("path", req.URL.Path),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		} else {
			fields = append(fields, zap.Int("status", resp.StatusCode))
			drain(resp)
		}
		r.logger.Debug("retrying request", fields...)

		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
		metrics.RecordRetry("transient")
	}
}

func (r *Retry) backoff(attempt int) time.Duration {
	d := r.config.BaseDelay << attempt
	if d > r.config.MaxDelay || d <= 0 {
		return r.config.MaxDelay
	}
	return d
}

func retryable(ctx context.Context, resp *http.Response, err error) bool {
	if err != nil {
		return ctx.Err() == nil
	}
	switch {
	case resp.StatusCode >= 500:
		return true
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
