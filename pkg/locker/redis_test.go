package locker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedis_MutualExclusion(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedis(rdb, time.Minute)

	unlock, err := l.Lock(context.Background(), "attempt:1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:attempt:1"))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "attempt:1")
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := l.Lock(context.Background(), "attempt:2")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	assert.False(t, mr.Exists("lock:attempt:1"))

	again, err := l.Lock(context.Background(), "attempt:1")
	require.NoError(t, err)
	again()
}

func TestRedis_KeepAliveOutlivesTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedis(rdb, 300*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "attempt:1")
	require.NoError(t, err)

	// miniredis 只在 FastForward 时推进过期时间，续期按真实时间执行
	for i := 0; i < 4; i++ {
		mr.FastForward(250 * time.Millisecond)
		require.True(t, mr.Exists("lock:attempt:1"), "round %d", i)
		assert.Eventually(t, func() bool {
			return mr.TTL("lock:attempt:1") == 300*time.Millisecond
		}, time.Second, 10*time.Millisecond, "round %d", i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "attempt:1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	assert.False(t, mr.Exists("lock:attempt:1"))
}

func TestRedis_UnlockLeavesForeignKey(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRedis(rdb, 300*time.Millisecond)

	unlock, err := l.Lock(context.Background(), "attempt:1")
	require.NoError(t, err)

	// 过期后被其他持有者获取
	require.NoError(t, mr.Set("lock:attempt:1", "someone-else"))
	unlock()

	v, err := mr.Get("lock:attempt:1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}
