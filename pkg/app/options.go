package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/mosoul/pkg/logger"
)

// Options 应用配置选项
type Options struct {
	ID           string
	Name         string
	StopTimeout  time.Duration
	Logger       logger.Logger
	NamedLoggers map[string]*logger.Config
}

// Option 配置函数
type Option func(*Options)

// DefaultOptions 默认配置，ID 每次启动随机生成
func DefaultOptions() Options {
	return Options{
		ID:          uuid.New().String(),
		Name:        AppName,
		StopTimeout: 30 * time.Second,
		Logger:      logger.NewNoop(),
	}
}

// WithNamedLoggers 设置具名日志配置
func WithNamedLoggers(loggers map[string]*logger.Config) Option {
	return func(o *Options) { o.NamedLoggers = loggers }
}

// WithLogger 设置应用日志器
func WithLogger(l logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithID 设置应用 ID
func WithID(id string) Option {
	return func(o *Options) { o.ID = id }
}

// WithName 设置应用名称
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithStopTimeout 设置停止超时时间
func WithStopTimeout(t time.Duration) Option {
	return func(o *Options) { o.StopTimeout = t }
}
