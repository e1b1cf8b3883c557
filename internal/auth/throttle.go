package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/expertpos/expert-pos/internal/shared"
)

// Throttle counts failed logins per username in Redis and locks the username out
// once the limit is reached within the window.
type Throttle struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
}

// NewThrottle constructs a Throttle. A nil client or non-positive limit disables it.
func NewThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) *Throttle {
	return &Throttle{client: client, maxAttempts: maxAttempts, window: window}
}

func (t *Throttle) enabled() bool {
	return t != nil && t.client != nil && t.maxAttempts > 0
}

func throttleKey(username string) string {
	return "login:fail:" + username
}

// Check returns shared.ErrThrottled when username is locked out.
func (t *Throttle) Check(ctx context.Context, username string) error {
	if !t.enabled() {
		return nil
	}
	count, err := t.client.Get(ctx, throttleKey(username)).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth: read login attempts: %w", err)
	}
	if count >= t.maxAttempts {
		return shared.ErrThrottled
	}
	return nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (t *Throttle) Fail(ctx context.Context, username string) error {
	if !t.enabled() {
		return nil
	}
	key := throttleKey(username)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("auth: record login attempt: %w", err)
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return fmt.Errorf("auth: expire login attempts: %w", err)
		}
	}
	return nil
}

// Reset clears the failure count after a successful login.
func (t *Throttle) Reset(ctx context.Context, username string) error {
	if !t.enabled() {
		return nil
	}
	return t.client.Del(ctx, throttleKey(username)).Err()
}
