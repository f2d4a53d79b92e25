package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	repo "rocketcart/internal/repository"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RedisStore は Redis の文字列キーにカートを保存する
type RedisStore struct {
	client *redis.Client
	log    *logrus.Entry
}

// redisAddr は "host:port" か "redis://..." 形式
func NewRedisStore(redisAddr string, log *logrus.Entry) *RedisStore {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		addr := redisAddr
		// ポート番号が指定されていない場合のみ追加
		if !strings.Contains(addr, ":") {
			addr = addr + ":6379"
		}
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	return &RedisStore{client: client, log: log}
}

// Initialize は接続できるまで指数バックオフでPingする
func (r *RedisStore) Initialize(ctx context.Context, attempts int) error {
	for i := 0; i < attempts; i++ {
		if r.Ping(ctx) {
			r.log.WithField("attempt", i+1).Info("redis storage ready")
			return nil
		}

		backoff := time.Duration(500*(1<<uint(i))) * time.Millisecond
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
		r.log.WithField("backoff", backoff).Warn("redis not reachable, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("failed to connect to redis after %d attempts", attempts)
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "redis GET %s", key)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis SET %s", key)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.WithError(err).Debug("redis ping failed")
		return false
	}
	return true
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
