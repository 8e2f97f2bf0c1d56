package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfigDefaults(t *testing.T) {
	cfg, err := MergeConfig(&Config{
		Master: &DBConfig{Host: "db.internal", Password: "secret"},
		Pool:   PoolConfig{MaxConns: 50},
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Master.Host)
	assert.Equal(t, 5432, cfg.Master.Port)
	assert.Equal(t, "mosoul", cfg.Master.DBName)
	assert.Equal(t, int32(50), cfg.Pool.MaxConns)
	assert.Equal(t, int32(2), cfg.Pool.MinConns)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "default", mutate: func(*Config) {}, ok: true},
		{name: "nil master", mutate: func(c *Config) { c.Master = nil }},
		{name: "bad port", mutate: func(c *Config) { c.Master.Port = 70000 }},
		{name: "empty user", mutate: func(c *Config) { c.Master.User = "" }},
		{name: "bad slave", mutate: func(c *Config) { c.Slaves = []DBConfig{{Host: "s1"}} }},
		{name: "min over max", mutate: func(c *Config) { c.Pool.MinConns = 30 }},
		{name: "zero max", mutate: func(c *Config) { c.Pool.MaxConns = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.ErrorIs(t, validateConfig(nil), ErrNilConfig)
}

func TestBuildConnString(t *testing.T) {
	cfg := DefaultConfig()
	got := buildConnString(cfg, &DBConfig{Host: "h", Port: 1, User: "u", Password: "p", DBName: "d", SSLMode: "disable"})
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable connect_timeout=10", got)
}

func TestQueryBuilderDollar(t *testing.T) {
	sql, args, err := QueryBuilder.Select("id").From("player_relic").Where("owner_id = ?", 7).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM player_relic WHERE owner_id = $1", sql)
	assert.Equal(t, []any{7}, args)
}

func TestTxFromContext(t *testing.T) {
	c := &Client{}
	ctx := context.Background()

	_, ok := TxFromContext(ctx)
	assert.False(t, ok)
	assert.Same(t, c, c.Conn(ctx))

	tx := &txWrapper{}
	txCtx := context.WithValue(ctx, txKey{}, Tx(tx))
	got, ok := TxFromContext(txCtx)
	require.True(t, ok)
	assert.Same(t, tx, got)
	assert.Same(t, tx, c.Conn(txCtx))
	assert.Same(t, tx, c.ReaderContext(txCtx))

	// 已在事务中时直接加入，不再开启新事务
	called := false
	require.NoError(t, c.InTx(txCtx, func(ctx context.Context) error {
		called = true
		inner, ok := TxFromContext(ctx)
		assert.True(t, ok)
		assert.Same(t, tx, inner)
		return nil
	}))
	assert.True(t, called)
}
