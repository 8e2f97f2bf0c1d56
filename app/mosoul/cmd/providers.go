package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/dao"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/events"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/gameconfig"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/job"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/service"
	"github.com/lk2023060901/mosoul/pkg/app"
	"github.com/lk2023060901/mosoul/pkg/database/postgres"
	"github.com/lk2023060901/mosoul/pkg/database/redis"
	"github.com/lk2023060901/mosoul/pkg/idgen"
	"github.com/lk2023060901/mosoul/pkg/logger"
	"github.com/lk2023060901/mosoul/pkg/prometheus"
)

const (
	pityBackendPostgres = "postgres"
	pityBackendRedis    = "redis"

	defaultLockTTL  = 5 * time.Second
	defaultDebounce = 500 * time.Millisecond
)

// Engine 魔魂玩法服务集合
type Engine struct {
	Equip   *service.EquipService
	Upgrade *service.UpgradeService
	Hunt    *service.HuntService
	Pity    *service.PityService
}

// providePostgresConfig 提供 PostgreSQL 配置
func providePostgresConfig(cfg *Config) *postgres.Config {
	return &cfg.Database
}

// provideRedisConfig 提供 Redis 配置
func provideRedisConfig(cfg *Config) *redis.Config {
	return &cfg.Redis
}

// provideMetricsConfig 提供指标配置
func provideMetricsConfig(cfg *Config) *metrics.Config {
	return &cfg.Metrics
}

// providePostgresClient 创建 PostgreSQL 客户端，清理函数关闭连接池
func providePostgresClient(cfg *postgres.Config, l logger.Logger) (*postgres.Client, func(), error) {
	client, err := postgres.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		client.Close()
		l.Info("postgres client closed")
	}, nil
}

// provideRedisClient 创建 Redis 客户端，清理函数关闭连接
func provideRedisClient(cfg *redis.Config, l logger.Logger) (*redis.Client, func(), error) {
	client, err := redis.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("failed to close redis client", "error", err)
		}
	}, nil
}

// provideTransactor 猎魂、升级的多存储写入共用 PostgreSQL 事务
func provideTransactor(db *postgres.Client, l logger.Logger) repository.Transactor {
	return repository.NewTransactor(db, l)
}

// providePrometheusConfig 提供 Prometheus 配置
func providePrometheusConfig(cfg *Config) *prometheus.Config {
	return &cfg.Prometheus
}

// provideCatalogHolder 加载配置表
func provideCatalogHolder(cfg *Config, l logger.Logger) (*gameconfig.Holder, error) {
	return gameconfig.NewHolder(cfg.GameConfig.DataDir, l)
}

// provideIDGenerator 魔魂实例 ID 生成器
func provideIDGenerator(cfg *Config) (idgen.Generator, error) {
	return idgen.NewSonyflake(cfg.IDGen.MachineID)
}

// providePityStore 按配置选择全服保底存储
func providePityStore(cfg *Config, pg *dao.PityDAO, rdb *dao.RedisPityDAO) (repository.PityStore, error) {
	switch cfg.Pity.Backend {
	case "", pityBackendPostgres:
		return pg, nil
	case pityBackendRedis:
		// Redis 不参与数据库事务，失败时撤销递增
		return repository.NewCompensatedPityStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown pity backend %q", cfg.Pity.Backend)
	}
}

// provideLocker 玩家级分布式锁
func provideLocker(cfg *Config, client *redis.Client) repository.Locker {
	ttl := cfg.Lock.TTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return repository.NewRedisLocker(client, ttl)
}

// providePublisher 未启用事件时使用空实现
func providePublisher(cfg *Config, l logger.Logger) (events.Publisher, func(), error) {
	if !cfg.Events.Enabled {
		return events.NewNoopPublisher(), func() {}, nil
	}
	p, err := events.NewKafkaPublisher(&cfg.Events.Kafka, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	return p, func() {
		if err := p.Close(); err != nil {
			l.Warn("failed to close event publisher", "error", err)
		}
	}, nil
}

// providePityReporter 保底进度定时上报
func providePityReporter(
	cfg *Config,
	l logger.Logger,
	holder *gameconfig.Holder,
	pity *service.PityService,
	m *metrics.RelicMetrics,
) (*job.PityReporter, error) {
	return job.NewPityReporter(l, cfg.Pity.ReportSpec, holder, pity, m)
}

func provideHuntOptions() []service.HuntOption {
	return nil
}

// provideAppOptions 提供应用选项
func provideAppOptions(cfg *Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName(app.AppName),
		app.WithLogger(l),
		app.WithNamedLoggers(cfg.Loggers),
	}
}

// provideAppComponents 提供应用组件
func provideAppComponents(
	baseApp *app.BaseApp,
	engine *Engine,
	holder *gameconfig.Holder,
	reporter *job.PityReporter,
	promClient *prometheus.Client,
	relicMetrics *metrics.RelicMetrics,
	cfg *Config,
) app.AppComponents {
	// 注册魔魂指标到 Prometheus
	if err := relicMetrics.Register(promClient.Registry()); err != nil {
		baseApp.AppLogger().Warn("failed to register relic metrics", "error", err)
	}

	servers := []app.Server{
		promClient,
		&engineServer{engine: engine, logger: baseApp.Logger("engine")},
		reporter,
	}
	if cfg.GameConfig.Watch {
		debounce := cfg.GameConfig.Debounce
		if debounce <= 0 {
			debounce = defaultDebounce
		}
		servers = append(servers, &catalogWatcher{
			holder:   holder,
			debounce: debounce,
			logger:   baseApp.Logger("gameconfig"),
		})
	}

	return app.AppComponents{
		Servers: servers,
		Closers: []app.Closer{
			promClient,
		},
	}
}

// engineServer 记录玩法服务就绪
type engineServer struct {
	engine *Engine
	logger logger.Logger
}

func (s *engineServer) Start() error {
	if s.engine.Equip == nil || s.engine.Upgrade == nil || s.engine.Hunt == nil || s.engine.Pity == nil {
		return fmt.Errorf("relic engine is incomplete")
	}
	s.logger.Info("relic engine ready")
	return nil
}

func (s *engineServer) Stop() error {
	s.logger.Info("relic engine stopped")
	return nil
}

// catalogWatcher 配置表热加载，实现 app.Server 接口
type catalogWatcher struct {
	holder   *gameconfig.Holder
	debounce time.Duration
	logger   logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func (w *catalogWatcher) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		if err := w.holder.Watch(ctx, w.debounce); err != nil {
			w.logger.Error("catalog watcher stopped", "error", err)
		}
	}()

	w.logger.Info("catalog watcher started", "debounce", w.debounce)
	return nil
}

func (w *catalogWatcher) Stop() error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	<-w.done
	return nil
}
