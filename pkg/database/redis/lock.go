package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 5 * time.Second

var unlockScript = NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Lock 单节点分布式锁
type Lock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock 创建锁，token 用于校验持有者
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{client: client, key: key, token: uuid.NewString(), ttl: ttl}
}

// TryLock 尝试获取锁，立即返回
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.rc.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return ok, nil
}

// LockWithRetry 获取锁，失败后按 interval 重试 maxRetries 次
func (l *Lock) LockWithRetry(ctx context.Context, interval time.Duration, maxRetries int) error {
	for i := 0; i <= maxRetries; i++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return ErrLockFailed
}

// Unlock 只有持有者才能释放锁
func (l *Lock) Unlock(ctx context.Context) error {
	res, err := l.client.Run(ctx, unlockScript, []string{l.key}, l.token)
	if err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// WithLock 持锁执行 fn，解锁失败不覆盖 fn 的错误
func (c *Client) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error {
	lock := NewLock(c, key, ttl)
	if err := lock.LockWithRetry(ctx, 20*time.Millisecond, 25); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock(context.WithoutCancel(ctx)) }()
	return fn()
}
