package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/domain"
)

const (
	lockKeyPrefix = "taskpulse:baseline-lock:"
	lockPoll      = 25 * time.Millisecond
	releaseWait   = 2 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = goRedis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the TTL only if the key still holds our token.
var extendScript = goRedis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// renewFunc extends a held lock and reports whether it is still ours.
type renewFunc func(ctx context.Context) (bool, error)

// UserLock is a per-user mutex shared by every instance talking to the same Redis.
// The TTL bounds how long a crashed holder can block others; a live holder
// renews it every third of the TTL until release.
type UserLock struct {
	client goRedis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewUserLock(client goRedis.UniversalClient, ttl time.Duration, logger *zap.Logger) *UserLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserLock{client: client, ttl: ttl, logger: logger}
}

// Lock polls SET NX until it wins. The wait is capped at one TTL.
func (l *UserLock) Lock(ctx context.Context, userID string) (func(), error) {
	key := lockKeyPrefix + userID
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	ticker := time.NewTicker(lockPoll)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, domain.WrapError(domain.ErrCodeConflict, domain.ErrLockNotAcquired.Message, ctx.Err())
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			stop, done := make(chan struct{}), make(chan struct{})
			go func() {
				defer close(done)
				l.keepAlive(key, stop, max(l.ttl/3, lockPoll), func(ctx context.Context) (bool, error) {
					n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
					return n == 1, err
				})
			}()
			return l.releaser(key, token, stop, done), nil
		}

		select {
		case <-ctx.Done():
			return nil, domain.WrapError(domain.ErrCodeConflict, domain.ErrLockNotAcquired.Message, ctx.Err())
		case <-ticker.C:
		}
	}
}

// keepAlive calls renew every interval until stop is closed or the lock is lost.
// A failed renewal is retried on the next tick while the TTL still covers it.
func (l *UserLock) keepAlive(key string, stop <-chan struct{}, interval time.Duration, renew renewFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), releaseWait)
		held, err := renew(ctx)
		cancel()
		if err != nil {
			l.logger.Warn("failed to extend user lock", zap.String("key", key), zap.Error(err))
			continue
		}
		if !held {
			l.logger.Error("user lock lost before release", zap.String("key", key))
			return
		}
	}
}

func (l *UserLock) releaser(key, token string, stop chan struct{}, done <-chan struct{}) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		close(stop)
		<-done

		ctx, cancel := context.WithTimeout(context.Background(), releaseWait)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release user lock", zap.String("key", key), zap.Error(err))
		}
	}
}
