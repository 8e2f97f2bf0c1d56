//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/dao"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/gameconfig"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/service"
	"github.com/lk2023060901/mosoul/pkg/app"
	"github.com/lk2023060901/mosoul/pkg/logger"
	"github.com/lk2023060901/mosoul/pkg/prometheus"
)

// storeSet 存储层，serve 与管理命令共用
var storeSet = wire.NewSet(
	// PostgreSQL 配置和客户端
	providePostgresConfig,
	providePostgresClient,

	// Redis 配置和客户端
	provideRedisConfig,
	provideRedisClient,

	// 指标收集
	provideMetricsConfig,
	metrics.New,

	// 数据层 (DAO)
	dao.NewRelicDAO,
	dao.NewHuntingDAO,
	dao.NewPityDAO,
	dao.NewRedisPityDAO,
	dao.NewPlayerDAO,
	dao.NewCacheDAO,

	// 游戏配置表
	provideCatalogHolder,
	wire.Bind(new(service.CatalogSource), new(*gameconfig.Holder)),
	wire.Bind(new(repository.PoolSource), new(*gameconfig.Holder)),
	wire.Bind(new(repository.CapacitySource), new(*gameconfig.Holder)),

	// 仓储层 (Repository)
	provideIDGenerator,
	providePityStore,
	provideLocker,
	provideTransactor,
	repository.NewRelicRepository,
	repository.NewHuntingRepository,
	wire.Bind(new(repository.PlayerProvider), new(*dao.PlayerDAO)),
	repository.NewStorageProvider,
	repository.NewSlotProvider,
)

func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		provideAppOptions,
		app.ProviderSet,

		// 2. 存储层
		storeSet,

		// 3. 事件发布
		providePublisher,

		// 4. 服务层 (Service)
		service.NewEquipService,
		service.NewUpgradeService,
		provideHuntOptions,
		service.NewHuntService,
		service.NewPityService,
		wire.Struct(new(Engine), "*"),
		providePityReporter,

		// 5. Prometheus 客户端
		providePrometheusConfig,
		prometheus.New,

		// 6. 组装
		provideAppComponents,
		app.InitApp,
	))
}

func InitPityService(cfg *Config, l logger.Logger) (*service.PityService, func(), error) {
	panic(wire.Build(
		storeSet,
		service.NewPityService,
	))
}
