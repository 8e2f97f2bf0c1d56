package dao

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/database/postgres"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

const relicTable = "player_relic"

var relicColumns = []string{"id", "owner_id", "template_id", "level", "exp", "equipped_to", "equipped_at", "created_at"}

// RelicDAO 魔魂实例数据访问对象
type RelicDAO struct {
	db      *postgres.Client
	logger  logger.Logger
	metrics *metrics.RelicMetrics
}

// NewRelicDAO 创建魔魂 DAO
func NewRelicDAO(db *postgres.Client, l logger.Logger, m *metrics.RelicMetrics) *RelicDAO {
	return &RelicDAO{
		db:      db,
		logger:  l.Named("dao.relic"),
		metrics: m,
	}
}

func selectRelics() squirrel.SelectBuilder {
	return postgres.QueryBuilder.Select(relicColumns...).From(relicTable)
}

// GetByID 根据 ID 查询魔魂
func (d *RelicDAO) GetByID(ctx context.Context, id int64) (relic *model.Relic, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil || model.KindOf(err) == model.KindNotFound, time.Since(start).Seconds())
	}()

	query, args, err := selectRelics().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	relic, err = postgres.QueryOne[model.Relic](ctx, d.db.ReaderContext(ctx), query, args...)
	if err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return nil, model.NotFound("relic", id)
		}
		d.logger.Error("failed to get relic by id",
			"id", id,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get relic: %w", err)
	}
	return relic, nil
}

// ListByOwner 查询玩家所有魔魂，按 ID 升序
func (d *RelicDAO) ListByOwner(ctx context.Context, ownerID int64) (relics []*model.Relic, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil, time.Since(start).Seconds())
	}()

	query, args, err := selectRelics().
		Where(squirrel.Eq{"owner_id": ownerID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	relics, err = postgres.QueryAll[model.Relic](ctx, d.db.ReaderContext(ctx), query, args...)
	if err != nil {
		d.logger.Error("failed to list relics by owner",
			"owner_id", ownerID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to list relics: %w", err)
	}
	return relics, nil
}

// ListEquipped 查询装备在魔宠上的魔魂，按装备时间排序
func (d *RelicDAO) ListEquipped(ctx context.Context, creatureID int64) (relics []*model.Relic, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil, time.Since(start).Seconds())
	}()

	query, args, err := selectRelics().
		Where(squirrel.Eq{"equipped_to": creatureID}).
		OrderBy("equipped_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	relics, err = postgres.QueryAll[model.Relic](ctx, d.db.ReaderContext(ctx), query, args...)
	if err != nil {
		d.logger.Error("failed to list equipped relics",
			"creature_id", creatureID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to list equipped relics: %w", err)
	}
	return relics, nil
}

// CountUnequipped 统计仓库中的魔魂数量
func (d *RelicDAO) CountUnequipped(ctx context.Context, ownerID int64) (n int, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil, time.Since(start).Seconds())
	}()

	query, args, err := postgres.QueryBuilder.
		Select("COUNT(*)").
		From(relicTable).
		Where(squirrel.Eq{"owner_id": ownerID, "equipped_to": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	if err = d.db.ReaderContext(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count relics: %w", err)
	}
	return n, nil
}

func upsertRelic(r *model.Relic) squirrel.InsertBuilder {
	return postgres.QueryBuilder.
		Insert(relicTable).
		Columns(relicColumns...).
		Values(r.ID, r.OwnerID, r.TemplateID, r.Level, r.Exp, r.EquippedTo, r.EquippedAt, r.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET " +
			"owner_id = EXCLUDED.owner_id, template_id = EXCLUDED.template_id, " +
			"level = EXCLUDED.level, exp = EXCLUDED.exp, " +
			"equipped_to = EXCLUDED.equipped_to, equipped_at = EXCLUDED.equipped_at")
}

// Upsert 写入魔魂，ID 必须已分配
func (d *RelicDAO) Upsert(ctx context.Context, r *model.Relic) (err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("upsert", err == nil, time.Since(start).Seconds())
	}()

	if _, err = postgres.ExecBuilder(ctx, d.db.Conn(ctx), upsertRelic(r)); err != nil {
		d.logger.Error("failed to upsert relic",
			"id", r.ID,
			"owner_id", r.OwnerID,
			"error", err,
		)
		return fmt.Errorf("failed to upsert relic: %w", err)
	}
	return nil
}

// UpsertBatch 在一个事务内写入多个魔魂
func (d *RelicDAO) UpsertBatch(ctx context.Context, relics []*model.Relic) (err error) {
	if len(relics) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("upsert", err == nil, time.Since(start).Seconds())
	}()

	err = d.db.InTx(ctx, func(ctx context.Context) error {
		for _, r := range relics {
			if _, err := postgres.ExecBuilder(ctx, d.db.Conn(ctx), upsertRelic(r)); err != nil {
				return fmt.Errorf("relic %d: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		d.logger.Error("failed to upsert relic batch",
			"count", len(relics),
			"error", err,
		)
		return fmt.Errorf("failed to upsert relics: %w", err)
	}
	return nil
}

// buildUpdate 构建部分更新语句，无字段需要更新时返回 false
func buildUpdate(id int64, u model.RelicUpdate, now time.Time) (squirrel.UpdateBuilder, bool) {
	b := postgres.QueryBuilder.Update(relicTable).Where(squirrel.Eq{"id": id})
	changed := false
	if u.Level != nil {
		b = b.Set("level", *u.Level)
		changed = true
	}
	if u.Exp != nil {
		b = b.Set("exp", *u.Exp)
		changed = true
	}
	switch {
	case u.EquippedTo.IsSet():
		b = b.Set("equipped_to", u.EquippedTo.Value()).Set("equipped_at", now)
		changed = true
	case u.EquippedTo.IsClear():
		b = b.Set("equipped_to", nil).Set("equipped_at", nil)
		changed = true
	}
	return b.Suffix("RETURNING " + strings.Join(relicColumns, ", ")), changed
}

// Update 部分更新并返回更新后的魔魂
func (d *RelicDAO) Update(ctx context.Context, id int64, u model.RelicUpdate) (relic *model.Relic, err error) {
	b, changed := buildUpdate(id, u, time.Now())
	if !changed {
		return d.GetByID(ctx, id)
	}

	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("update", err == nil || model.KindOf(err) == model.KindNotFound, time.Since(start).Seconds())
	}()

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	relic, err = postgres.QueryOne[model.Relic](ctx, d.db.Conn(ctx), query, args...)
	if err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return nil, model.NotFound("relic", id)
		}
		d.logger.Error("failed to update relic",
			"id", id,
			"error", err,
		)
		return nil, fmt.Errorf("failed to update relic: %w", err)
	}
	return relic, nil
}

// Delete 删除魔魂，不存在时返回 NotFound
func (d *RelicDAO) Delete(ctx context.Context, id int64) error {
	n, err := d.DeleteBatch(ctx, []int64{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return model.NotFound("relic", id)
	}
	return nil
}

// DeleteBatch 批量删除，返回实际删除数量
func (d *RelicDAO) DeleteBatch(ctx context.Context, ids []int64) (n int64, err error) {
	if len(ids) == 0 {
		return 0, nil
	}
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("delete", err == nil, time.Since(start).Seconds())
	}()

	n, err = postgres.ExecBuilder(ctx, d.db.Conn(ctx), postgres.QueryBuilder.
		Delete(relicTable).
		Where(squirrel.Eq{"id": ids}))
	if err != nil {
		d.logger.Error("failed to delete relics",
			"ids", ids,
			"error", err,
		)
		return 0, fmt.Errorf("failed to delete relics: %w", err)
	}
	return n, nil
}
