package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter throttles failed logins per email and client IP using Redis.
type Limiter struct {
	client          redis.UniversalClient
	window          time.Duration // Time window for counting attempts
	maxAttempts     int           // Maximum attempts allowed in window
	lockoutDuration time.Duration // How long to block after exceeding limit
}

// NewLimiter creates a new rate limiter
func NewLimiter(client redis.UniversalClient, window time.Duration, maxAttempts int, lockoutDuration time.Duration) *Limiter {
	return &Limiter{
		client:          client,
		window:          window,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
	}
}

func attemptKey(email, ipAddress string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", ipAddress, email)
}

func lockoutKey(email, ipAddress string) string {
	return fmt.Sprintf("ratelimit:lockout:%s:%s", ipAddress, email)
}

// Check reports whether a login attempt is allowed. When it is not, the
// returned duration is how long the lockout still lasts.
func (l *Limiter) Check(ctx context.Context, email, ipAddress string) (bool, time.Duration, error) {
	ttl, err := l.client.TTL(ctx, lockoutKey(email, ipAddress)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, fmt.Errorf("failed to check lockout status: %w", err)
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	count, err := l.attempts(ctx, email, ipAddress)
	if err != nil {
		return false, 0, err
	}
	if count < l.maxAttempts {
		return true, 0, nil
	}

	// Exceeded max attempts: lock out and start counting afresh afterwards.
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, lockoutKey(email, ipAddress), "1", l.lockoutDuration)
		pipe.Del(ctx, attemptKey(email, ipAddress))
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to set lockout: %w", err)
	}
	return false, l.lockoutDuration, nil
}

// RecordFailure counts a failed login. The window starts at the first failure.
func (l *Limiter) RecordFailure(ctx context.Context, email, ipAddress string) error {
	key := attemptKey(email, ipAddress)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to increment attempt counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set expiry: %w", err)
		}
	}
	return nil
}

// RecordSuccess clears the failure counter.
func (l *Limiter) RecordSuccess(ctx context.Context, email, ipAddress string) error {
	if err := l.client.Del(ctx, attemptKey(email, ipAddress)).Err(); err != nil {
		return fmt.Errorf("failed to clear attempt counter: %w", err)
	}
	return nil
}

// ClearLockout manually clears a lockout and the failure counter.
func (l *Limiter) ClearLockout(ctx context.Context, email, ipAddress string) error {
	if err := l.client.Del(ctx, lockoutKey(email, ipAddress), attemptKey(email, ipAddress)).Err(); err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}
	return nil
}

func (l *Limiter) attempts(ctx context.Context, email, ipAddress string) (int, error) {
	count, err := l.client.Get(ctx, attemptKey(email, ipAddress)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempt count: %w", err)
	}
	return count, nil
}
