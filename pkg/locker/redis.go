package locker

import (
	"context"
	"errors"
	"sync"
	"talentedge_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 仅当 key 仍属于本持有者时才删除
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// 仅当 key 仍属于本持有者时才续期
var refreshScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)

// Redis 是基于 SET NX PX 的分布式锁。持有期间后台按 ttl/3 续期，
// 因此 ttl 只决定持有者崩溃后其他副本需要等待多久，与评估耗时无关。
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	poll   time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		prefix: "lock:",
		poll:   50 * time.Millisecond,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	k := r.prefix + key
	token := uuid.NewString()
	wait := r.poll

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, errors.Join(ErrLockTimeout, ctx.Err())
			}
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
		if wait < time.Second {
			wait *= 2
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(k, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// 使用新的 context，调用方已取消时也能释放
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, r.client, []string{k}, token).Err(); err != nil {
				logger.Log.Warn("Failed to release redis lock", zap.String("key", k), zap.Error(err))
			}
		})
	}, nil
}

// keepAlive 续期直到 stop 关闭。锁已被他人持有或已过期时记录日志并退出。
func (r *Redis) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
		n, err := refreshScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			// 网络抖动时下一轮再试，ttl 内仍安全
			logger.Log.Warn("Failed to refresh redis lock", zap.String("key", key), zap.Error(err))
		case n == 0:
			logger.Log.Error("Redis lock lost before release", zap.String("key", key))
			return
		}
	}
}
