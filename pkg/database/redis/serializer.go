package redis

import (
	"context"
	"fmt"
	"time"
)

// GetObject 读取对象，键不存在返回 ErrNil
func GetObject[T any](ctx context.Context, c *Client, key string) (*T, error) {
	val, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var obj T
	if err := c.codec.Unmarshal([]byte(val), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal object failed: %w", err)
	}
	return &obj, nil
}

// SetObject 按客户端编码写入对象
func SetObject(ctx context.Context, c *Client, key string, value any, expiration time.Duration) error {
	data, err := c.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal object failed: %w", err)
	}
	return c.Set(ctx, key, data, expiration)
}
