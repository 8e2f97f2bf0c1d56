package postgres

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier 主库和事务共有的操作，DAO 只依赖此接口
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Querier = (*Client)(nil)

// Client PostgreSQL 客户端
type Client struct {
	master *pgxpool.Pool
	slaves []*pgxpool.Pool
	cfg    *Config

	slaveIndex atomic.Uint64
}

// New 创建 PostgreSQL 客户端并检测主库连通性
func New(cfg *Config) (*Client, error) {
	merged, err := MergeConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := validateConfig(merged); err != nil {
		return nil, err
	}

	c := &Client{cfg: merged}

	c.master, err = createPool(merged, merged.Master)
	if err != nil {
		return nil, fmt.Errorf("failed to create master pool: %w", err)
	}
	for i := range merged.Slaves {
		pool, err := createPool(merged, &merged.Slaves[i])
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create slave pool %d: %w", i, err)
		}
		c.slaves = append(c.slaves, pool)
	}
	return c, nil
}

// Close 关闭所有连接池
func (c *Client) Close() {
	if c.master != nil {
		c.master.Close()
	}
	for _, s := range c.slaves {
		s.Close()
	}
}

// Ping 检查主库连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.master.Ping(ctx); err != nil {
		return fmt.Errorf("master ping failed: %w", err)
	}
	return nil
}

// Exec 在主库执行写操作，返回影响行数
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tag, err := c.master.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Query 在主库查询
// 调用方负责 rows.Close()，因此这里不附加查询超时
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	rows, err := c.master.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return rows, nil
}

// QueryRow 在主库查询单行
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.master.QueryRow(ctx, sql, args...)
}

// Reader 返回只读查询入口，轮询从库；无从库时返回主库
func (c *Client) Reader() Querier {
	if len(c.slaves) == 0 {
		return c
	}
	idx := c.slaveIndex.Add(1)
	return &poolQuerier{pool: c.slaves[idx%uint64(len(c.slaves))]}
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return ctx, func() {}
}

type poolQuerier struct {
	pool *pgxpool.Pool
}

func (p *poolQuerier) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *poolQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

func (p *poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := validateDBConfig(cfg.Master); err != nil {
		return fmt.Errorf("invalid master config: %w", err)
	}
	for i := range cfg.Slaves {
		if err := validateDBConfig(&cfg.Slaves[i]); err != nil {
			return fmt.Errorf("invalid slave %d config: %w", i, err)
		}
	}
	if cfg.Pool.MaxConns <= 0 {
		return fmt.Errorf("%w: max_conns must be positive", ErrInvalidConfig)
	}
	if cfg.Pool.MinConns < 0 || cfg.Pool.MinConns > cfg.Pool.MaxConns {
		return fmt.Errorf("%w: min_conns must be within [0, max_conns]", ErrInvalidConfig)
	}
	return nil
}

func validateDBConfig(cfg *DBConfig) error {
	switch {
	case cfg == nil:
		return fmt.Errorf("%w: db config is nil", ErrInvalidConfig)
	case cfg.Host == "":
		return fmt.Errorf("%w: host is empty", ErrInvalidConfig)
	case cfg.Port <= 0 || cfg.Port > 65535:
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, cfg.Port)
	case cfg.User == "":
		return fmt.Errorf("%w: user is empty", ErrInvalidConfig)
	case cfg.DBName == "":
		return fmt.Errorf("%w: db_name is empty", ErrInvalidConfig)
	}
	return nil
}

func createPool(cfg *Config, db *DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(buildConnString(cfg, db))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolCfg.MaxConns = cfg.Pool.MaxConns
	poolCfg.MinConns = cfg.Pool.MinConns
	poolCfg.MaxConnLifetime = cfg.Pool.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func buildConnString(cfg *Config, db *DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode,
		int(cfg.ConnectTimeout.Seconds()),
	)
}
