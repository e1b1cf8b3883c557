package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/expertpos/expert-pos/internal/shared"
)

func TestThrottleLocksOutAfterMaxAttempts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	throttle := NewThrottle(client, 3, 15*time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, throttle.Check(ctx, "kasir"))
		require.NoError(t, throttle.Fail(ctx, "kasir"))
	}
	require.ErrorIs(t, throttle.Check(ctx, "kasir"), shared.ErrThrottled)
	require.NoError(t, throttle.Check(ctx, "manager"))
	require.Equal(t, 15*time.Minute, mr.TTL("login:fail:kasir"))

	mr.FastForward(16 * time.Minute)
	require.NoError(t, throttle.Check(ctx, "kasir"))
}

func TestThrottleResetAndDisabled(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	throttle := NewThrottle(client, 2, time.Minute)
	ctx := context.Background()

	require.NoError(t, throttle.Fail(ctx, "kasir"))
	require.NoError(t, throttle.Reset(ctx, "kasir"))
	require.False(t, mr.Exists("login:fail:kasir"))

	var disabled *Throttle
	require.NoError(t, disabled.Check(ctx, "kasir"))
	require.NoError(t, disabled.Fail(ctx, "kasir"))
	require.NoError(t, NewThrottle(nil, 5, time.Minute).Check(ctx, "kasir"))
}
