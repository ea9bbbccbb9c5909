package cache

import (
	"context"
	"fmt"
	"time"
)

// Counter is the subset of RedisClient used by LoginThrottle.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}

// LoginThrottle limits admin login attempts per client IP.
// Counters live in Redis so the limit holds across replicas.
type LoginThrottle struct {
	counter     Counter
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle creates a LoginThrottle allowing maxAttempts unverified
// attempts per window.
func NewLoginThrottle(counter Counter, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{counter: counter, maxAttempts: maxAttempts, window: window}
}

func (t *LoginThrottle) key(ip string) string {
	return fmt.Sprintf("admin:login:fail:%s", ip)
}

// Attempt counts an attempt for ip and reports whether it is within the
// limit. The increment and the check are one INCR, so concurrent attempts
// cannot overshoot maxAttempts.
func (t *LoginThrottle) Attempt(ctx context.Context, ip string) (bool, error) {
	n, err := t.counter.Incr(ctx, t.key(ip), t.window)
	if err != nil {
		return false, fmt.Errorf("failed to record login attempt: %w", err)
	}
	return n <= int64(t.maxAttempts), nil
}

// Reset clears the counter for ip once its credentials are verified.
func (t *LoginThrottle) Reset(ctx context.Context, ip string) error {
	return t.counter.Delete(ctx, t.key(ip))
}
