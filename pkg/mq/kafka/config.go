package kafka

import (
	"time"

	"github.com/lk2023060901/mosoul/pkg/config"
)

// Config Kafka 生产者配置
type Config struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`

	// Async 为 true 时 Publish 不等待 broker 确认
	Async        bool          `mapstructure:"async"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	// RequiredAcks 0: 不等待, 1: leader, -1: 所有副本
	RequiredAcks int           `mapstructure:"required_acks"`
	Compression  string        `mapstructure:"compression"` // none, gzip, snappy, lz4, zstd
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxRetries:   3,
		RequiredAcks: 1,
		Compression:  "snappy",
		WriteTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}
	if c.Topic == "" {
		return ErrEmptyTopic
	}
	return nil
}

// MergeConfig 在默认配置上覆盖用户配置
func MergeConfig(cfg *Config) (*Config, error) {
	return config.MergeConfig(DefaultConfig(), cfg)
}
