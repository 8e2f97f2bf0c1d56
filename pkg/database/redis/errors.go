package redis

import "errors"

var (
	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("redis: config is nil")

	// ErrInvalidConfig standalone 和 cluster 必须且只能配置一种
	ErrInvalidConfig = errors.New("redis: must specify exactly one of standalone or cluster mode")

	// ErrNil 键不存在
	ErrNil = errors.New("redis: nil")

	// ErrLockFailed 获取锁失败
	ErrLockFailed = errors.New("redis: failed to acquire lock")

	// ErrLockNotHeld 解锁时锁已过期或被其他持有者占用
	ErrLockNotHeld = errors.New("redis: lock not held")
)
