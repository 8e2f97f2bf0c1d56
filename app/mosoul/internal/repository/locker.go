package repository

import (
	"context"
	"time"

	"github.com/lk2023060901/mosoul/pkg/database/redis"
)

// redisLocker 基于 Redis 分布式锁，多实例部署时使用
type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker 创建分布式锁，ttl 为锁的最长持有时间
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	return l.client.WithLock(ctx, l.client.Key("lock", key), l.ttl, fn)
}
