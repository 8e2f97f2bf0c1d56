package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/mosoul/pkg/serializer"
	goredis "github.com/redis/go-redis/v9"
)

// Client Redis 客户端
type Client struct {
	rc     goredis.UniversalClient
	prefix string
	codec  serializer.Serializer
}

func codecFor(name string) serializer.Serializer {
	if name == "json" {
		return serializer.NewJSON()
	}
	return serializer.Default()
}

// NewClient 根据配置创建客户端
func NewClient(cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := cfg.Pool
	if cfg.Cluster != nil {
		rc := goredis.NewClusterClient(&goredis.ClusterOptions{
			Addrs:           cfg.Cluster.Addrs,
			Password:        cfg.Cluster.Password,
			MaxIdleConns:    p.MaxIdleConns,
			MaxActiveConns:  p.MaxOpenConns,
			ConnMaxLifetime: p.ConnMaxLifetime,
			ConnMaxIdleTime: p.ConnMaxIdleTime,
			DialTimeout:     p.DialTimeout,
			ReadTimeout:     p.ReadTimeout,
			WriteTimeout:    p.WriteTimeout,
			PoolTimeout:     p.PoolTimeout,
		})
		return &Client{rc: rc, prefix: cfg.KeyPrefix, codec: codecFor(cfg.Serializer)}, nil
	}

	rc := goredis.NewClient(&goredis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Standalone.Host, cfg.Standalone.Port),
		Password:        cfg.Standalone.Password,
		DB:              cfg.Standalone.DB,
		MaxIdleConns:    p.MaxIdleConns,
		MaxActiveConns:  p.MaxOpenConns,
		ConnMaxLifetime: p.ConnMaxLifetime,
		ConnMaxIdleTime: p.ConnMaxIdleTime,
		DialTimeout:     p.DialTimeout,
		ReadTimeout:     p.ReadTimeout,
		WriteTimeout:    p.WriteTimeout,
		PoolTimeout:     p.PoolTimeout,
	})
	return &Client{rc: rc, prefix: cfg.KeyPrefix, codec: codecFor(cfg.Serializer)}, nil
}

// NewWithClient 包装已有的 go-redis 客户端，对象值使用默认编码
func NewWithClient(rc goredis.UniversalClient, prefix string) *Client {
	return &Client{rc: rc, prefix: prefix, codec: serializer.Default()}
}

// Serializer 对象值编解码器
func (c *Client) Serializer() serializer.Serializer {
	return c.codec
}

// Key 拼接业务键前缀
func (c *Client) Key(parts ...string) string {
	key := c.prefix
	for _, p := range parts {
		if key != "" {
			key += ":"
		}
		key += p
	}
	return key
}

// Ping 测试连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rc.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.rc.Close()
}

// Get 获取字符串值，键不存在返回 ErrNil
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rc.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", ErrNil
		}
		return "", fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}

// Set 设置值，expiration 为 0 表示不过期
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := c.rc.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.rc.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("del failed: %w", err)
	}
	return n, nil
}

// HGetAll 获取哈希所有字段
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	vals, err := c.rc.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed: %w", err)
	}
	return vals, nil
}

// HSet 设置哈希字段
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) error {
	if err := c.rc.HSet(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("hset failed: %w", err)
	}
	return nil
}

// Script Lua 脚本，首次执行后使用 EVALSHA
type Script struct {
	s *goredis.Script
}

// NewScript 创建脚本
func NewScript(src string) *Script {
	return &Script{s: goredis.NewScript(src)}
}

// Run 执行脚本
func (c *Client) Run(ctx context.Context, script *Script, keys []string, args ...interface{}) (interface{}, error) {
	res, err := script.s.Run(ctx, c.rc, keys, args...).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNil
		}
		return nil, fmt.Errorf("script failed: %w", err)
	}
	return res, nil
}
