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

// PlayerDAO 玩家和魔宠只读查询，数据由其他系统维护
type PlayerDAO struct {
	db      *postgres.Client
	logger  logger.Logger
	metrics *metrics.RelicMetrics
}

// NewPlayerDAO 创建玩家 DAO
func NewPlayerDAO(db *postgres.Client, l logger.Logger, m *metrics.RelicMetrics) *PlayerDAO {
	return &PlayerDAO{
		db:      db,
		logger:  l.Named("dao.player"),
		metrics: m,
	}
}

// VIPTier 查询玩家 VIP 等级
func (d *PlayerDAO) VIPTier(ctx context.Context, ownerID int64) (vip int, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil, time.Since(start).Seconds())
	}()

	query, args, err := postgres.QueryBuilder.
		Select("vip_level").
		From("player").
		Where(squirrel.Eq{"id": ownerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	if err = d.db.ReaderContext(ctx).QueryRow(ctx, query, args...).Scan(&vip); err != nil {
		if isNoRows(err) {
			return 0, model.NotFound("player", ownerID)
		}
		return 0, fmt.Errorf("failed to get vip level: %w", err)
	}
	return vip, nil
}

// Creature 查询魔宠
func (d *PlayerDAO) Creature(ctx context.Context, creatureID int64) (c *model.Creature, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil, time.Since(start).Seconds())
	}()

	query, args, err := postgres.QueryBuilder.
		Select("id", "owner_id", "level").
		From("player_creature").
		Where(squirrel.Eq{"id": creatureID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	c, err = postgres.QueryOne[model.Creature](ctx, d.db.ReaderContext(ctx), query, args...)
	if err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return nil, model.NotFound("creature", creatureID)
		}
		return nil, fmt.Errorf("failed to get creature: %w", err)
	}
	return c, nil
}

// Creatures 查询玩家所有魔宠
func (d *PlayerDAO) Creatures(ctx context.Context, ownerID int64) (list []*model.Creature, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil, time.Since(start).Seconds())
	}()

	query, args, err := postgres.QueryBuilder.
		Select("id", "owner_id", "level").
		From("player_creature").
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	list, err = postgres.QueryAll[model.Creature](ctx, d.db.ReaderContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list creatures: %w", err)
	}
	return list, nil
}
