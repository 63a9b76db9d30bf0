package security

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisThrottle(client, 3, time.Minute), mr
}

func TestThrottleLocksAfterMaxFailures(t *testing.T) {
	th, _ := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, th.Fail(ctx, "1.2.3.4|a@b.c"))
	}
	locked, err := th.Locked(ctx, "1.2.3.4|A@B.C")
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, th.Fail(ctx, "1.2.3.4|a@b.c"))
	locked, err = th.Locked(ctx, "1.2.3.4|a@b.c")
	require.NoError(t, err)
	assert.True(t, locked)

	other, err := th.Locked(ctx, "5.6.7.8|a@b.c")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestThrottleExpiresAndResets(t *testing.T) {
	th, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, th.Fail(ctx, "k"))
	}
	mr.FastForward(61 * time.Second)
	locked, err := th.Locked(ctx, "k")
	require.NoError(t, err)
	assert.False(t, locked)

	for i := 0; i < 3; i++ {
		require.NoError(t, th.Fail(ctx, "k"))
	}
	require.NoError(t, th.Reset(ctx, "k"))
	locked, err = th.Locked(ctx, "k")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestThrottleRedisDown(t *testing.T) {
	th, mr := setupTestRedis(t)
	mr.Close()
	_, err := th.Locked(context.Background(), "k")
	assert.Error(t, err)
}

func TestDeviceType(t *testing.T) {
	cases := []struct{ ua, want string }{
		{"", DeviceUnknown},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", DeviceMobile},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36", DeviceMobile},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148", DeviceTablet},
		{"Mozilla/5.0 (Linux; Android 13; SM-X200) Safari/537.36", DeviceTablet},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36", DeviceDesktop},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DeviceType(c.ua), c.ua)
	}
}

func TestIPBlocklist(t *testing.T) {
	b := NewIPBlocklist([]string{" 10.0.0.1", ""})
	assert.True(t, b.Blocked("10.0.0.1"))
	assert.False(t, b.Blocked("10.0.0.2"))
	assert.False(t, NewIPBlocklist(nil).Blocked(""))
}
