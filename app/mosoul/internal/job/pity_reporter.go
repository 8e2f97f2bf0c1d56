package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/service"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// DefaultPityReportSpec 默认刷新间隔
const DefaultPityReportSpec = "@every 30s"

const refreshTimeout = 10 * time.Second

// PityReporter 定时把全服保底进度写入指标，实现 app.Server 接口
type PityReporter struct {
	cron    *cron.Cron
	catalog service.CatalogSource
	pity    *service.PityService
	metrics *metrics.RelicMetrics
	logger  logger.Logger
}

// NewPityReporter 按 cron 表达式创建，spec 为空使用默认间隔
func NewPityReporter(
	l logger.Logger,
	spec string,
	catalog service.CatalogSource,
	pity *service.PityService,
	m *metrics.RelicMetrics,
) (*PityReporter, error) {
	if spec == "" {
		spec = DefaultPityReportSpec
	}

	named := l.Named("job.pity_reporter")
	cl := cronLogger{l: named}
	r := &PityReporter{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		catalog: catalog,
		pity:    pity,
		metrics: m,
		logger:  named,
	}

	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("invalid pity report spec %q: %w", spec, err)
	}
	return r, nil
}

func (r *PityReporter) run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	r.Refresh(ctx)
}

// Refresh 立即刷新全部保底 key，返回成功刷新的数量
func (r *PityReporter) Refresh(ctx context.Context) int {
	n := 0
	for _, key := range r.catalog.Catalog().PityKeys() {
		c, err := r.pity.Get(ctx, key)
		if err != nil {
			r.logger.Warn("failed to read pity counter", "key", key, "error", err)
			continue
		}
		r.metrics.SetPityProgress(key, c.Count, c.Remaining(), c.LifetimeCurrencyConsumed)
		n++
	}
	return n
}

func (r *PityReporter) Start() error {
	r.Refresh(context.Background())
	r.cron.Start()
	r.logger.Info("pity reporter started")
	return nil
}

// Stop 等待执行中的任务结束
func (r *PityReporter) Stop() error {
	<-r.cron.Stop().Done()
	r.logger.Info("pity reporter stopped")
	return nil
}

// cronLogger 适配 cron.Logger
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
