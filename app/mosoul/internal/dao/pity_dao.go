package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/database/postgres"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

const pityTable = "relic_global_pity"

var pityColumns = "key, count, threshold, lifetime_currency_consumed, updated_at"

// PityDAO 全服保底计数器 (PostgreSQL)
// 递增在一条 upsert 语句内完成，冲突行上的行锁保证并发递增串行执行
type PityDAO struct {
	db      *postgres.Client
	logger  logger.Logger
	metrics *metrics.RelicMetrics
}

// NewPityDAO 创建保底计数 DAO
func NewPityDAO(db *postgres.Client, l logger.Logger, m *metrics.RelicMetrics) *PityDAO {
	return &PityDAO{
		db:      db,
		logger:  l.Named("dao.pity"),
		metrics: m,
	}
}

// Get 查询计数器，不存在返回 NotFound
func (d *PityDAO) Get(ctx context.Context, key string) (counter *model.PityCounter, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil || model.KindOf(err) == model.KindNotFound, time.Since(start).Seconds())
	}()

	query, args, err := postgres.QueryBuilder.
		Select("key", "count", "threshold", "lifetime_currency_consumed", "updated_at").
		From(pityTable).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	counter, err = postgres.QueryOne[model.PityCounter](ctx, d.db.Conn(ctx), query, args...)
	if err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return nil, model.NotFound("pity counter", key)
		}
		return nil, fmt.Errorf("failed to get pity counter: %w", err)
	}
	return counter, nil
}

func incrementPity(key string, threshold, cost int64, now time.Time) squirrel.InsertBuilder {
	return postgres.QueryBuilder.
		Insert(pityTable).
		Columns("key", "count", "threshold", "lifetime_currency_consumed", "updated_at").
		Values(
			key,
			squirrel.Expr("CASE WHEN 1 >= ? THEN 0 ELSE 1 END", threshold),
			threshold,
			cost,
			now,
		).
		Suffix("ON CONFLICT (key) DO UPDATE SET " +
			"count = CASE WHEN " + pityTable + ".count + 1 >= EXCLUDED.threshold THEN 0 ELSE " + pityTable + ".count + 1 END, " +
			"threshold = EXCLUDED.threshold, " +
			"lifetime_currency_consumed = " + pityTable + ".lifetime_currency_consumed + EXCLUDED.lifetime_currency_consumed, " +
			"updated_at = EXCLUDED.updated_at " +
			"RETURNING " + pityColumns)
}

// Increment 原子递增，达到阈值时计数归零并返回 triggered
// 累计消耗不随触发清零
func (d *PityDAO) Increment(ctx context.Context, key string, threshold, cost int64) (counter *model.PityCounter, triggered bool, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("upsert", err == nil, time.Since(start).Seconds())
	}()

	query, args, err := incrementPity(key, threshold, cost, time.Now()).ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build query: %w", err)
	}

	counter, err = postgres.QueryOne[model.PityCounter](ctx, d.db.Conn(ctx), query, args...)
	if err != nil {
		d.logger.Error("failed to increment pity counter",
			"key", key,
			"error", err,
		)
		return nil, false, fmt.Errorf("failed to increment pity counter: %w", err)
	}
	return counter, counter.Count == 0, nil
}

// Reset 管理员重置：计数和累计消耗都清零
func (d *PityDAO) Reset(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("update", err == nil || model.KindOf(err) == model.KindNotFound, time.Since(start).Seconds())
	}()

	n, err := postgres.ExecBuilder(ctx, d.db.Conn(ctx), postgres.QueryBuilder.
		Update(pityTable).
		Set("count", 0).
		Set("lifetime_currency_consumed", 0).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"key": key}))
	if err != nil {
		return fmt.Errorf("failed to reset pity counter: %w", err)
	}
	if n == 0 {
		return model.NotFound("pity counter", key)
	}
	d.logger.Info("pity counter reset", "key", key)
	return nil
}
