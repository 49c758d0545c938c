package keylock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "freight:lock:"
	redisRetryBackoff = 25 * time.Millisecond
)

// unlockScript снимает блокировку, только если она всё ещё наша.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker: блокировки, общие для нескольких реплик API.
// TTL ограничивает время жизни блокировки, если процесс упал, не сняв её.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("keylock: не удалось захватить %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(redisRetryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// Снимаем блокировку даже при отменённом контексте запроса.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(unlockCtx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			onUnlockError(key, err)
		}
	}, nil
}

// onUnlockError можно подменить, чтобы логировать сбои снятия блокировки.
var onUnlockError = func(key string, err error) {}

// SetUnlockErrorHandler задаёт обработчик ошибок снятия блокировки.
func SetUnlockErrorHandler(fn func(key string, err error)) {
	if fn != nil {
		onUnlockError = fn
	}
}

// NewRedisClient создаёт клиент Redis.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Ping проверяет соединение с Redis.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("keylock: redis недоступен: %w", err)
	}
	return nil
}
