package main

import (
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/pkg/database/postgres"
	"github.com/lk2023060901/mosoul/pkg/database/redis"
	"github.com/lk2023060901/mosoul/pkg/logger"
	"github.com/lk2023060901/mosoul/pkg/mq/kafka"
	"github.com/lk2023060901/mosoul/pkg/prometheus"
	"github.com/lk2023060901/mosoul/pkg/sentry"
)

// GameConfigConfig 游戏配置表加载配置
type GameConfigConfig struct {
	DataDir string `mapstructure:"data_dir" validate:"required"`
	// Watch 是否监听目录变化热加载
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// EventsConfig 事件发布配置，未启用时不连接 Kafka
type EventsConfig struct {
	Enabled bool         `mapstructure:"enabled"`
	Kafka   kafka.Config `mapstructure:"kafka"`
}

// IDGenConfig 魔魂实例 ID 生成
type IDGenConfig struct {
	MachineID uint16 `mapstructure:"machine_id"`
}

// PityConfig 全服保底存储
type PityConfig struct {
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=postgres redis"`
	// ReportSpec 保底进度指标刷新的 cron 表达式
	ReportSpec string `mapstructure:"report_spec"`
}

// LockConfig 玩家级分布式锁
type LockConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Config 魔魂服务完整配置
type Config struct {
	Log     logger.Config             `mapstructure:"log"`
	Loggers map[string]*logger.Config `mapstructure:"loggers"`

	// 游戏配置表
	GameConfig GameConfigConfig `mapstructure:"gameconfig"`

	// Database 配置
	Database postgres.Config `mapstructure:"database"`

	// Redis 配置
	Redis redis.Config `mapstructure:"redis"`

	// 事件发布
	Events EventsConfig `mapstructure:"events"`

	// Prometheus 暴露端点
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// 指标配置
	Metrics metrics.Config `mapstructure:"metrics"`

	// 错误上报
	Sentry sentry.Config `mapstructure:"sentry"`

	IDGen IDGenConfig `mapstructure:"idgen"`
	Pity  PityConfig  `mapstructure:"pity"`
	Lock  LockConfig  `mapstructure:"lock"`
}
