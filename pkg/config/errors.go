package config

import "errors"

var (
	// ErrValidationFailed 配置验证失败
	ErrValidationFailed = errors.New("config validation failed")

	// ErrNilConfig 配置为 nil
	ErrNilConfig = errors.New("config cannot be nil")

	// ErrNotDirectory 监听目标不是目录
	ErrNotDirectory = errors.New("watch target is not a directory")
)
