package redis

import "time"

// Config Redis 配置 (standalone 和 cluster 二选一)
type Config struct {
	Standalone *NodeConfig    `mapstructure:"standalone"`
	Cluster    *ClusterConfig `mapstructure:"cluster"`
	Pool       PoolConfig     `mapstructure:"pool"`
	// KeyPrefix 所有业务键的前缀，多个服务共用一个实例时区分命名空间
	KeyPrefix string `mapstructure:"key_prefix"`
	// Serializer 对象值编码: msgpack (默认) 或 json
	Serializer string `mapstructure:"serializer"`
}

// NodeConfig 单节点配置
type NodeConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ClusterConfig 集群配置
type ClusterConfig struct {
	Addrs    []string `mapstructure:"addrs"` // host:port
	Password string   `mapstructure:"password"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if (c.Standalone == nil) == (c.Cluster == nil) {
		return ErrInvalidConfig
	}
	switch c.Serializer {
	case "", "msgpack", "json":
	default:
		return ErrInvalidConfig
	}
	return nil
}
