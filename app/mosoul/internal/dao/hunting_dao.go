package dao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/database/postgres"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

const huntingTable = "relic_hunting_state"

// HuntingDAO 猎魂状态数据访问对象
type HuntingDAO struct {
	db      *postgres.Client
	logger  logger.Logger
	metrics *metrics.RelicMetrics
}

// NewHuntingDAO 创建猎魂状态 DAO
func NewHuntingDAO(db *postgres.Client, l logger.Logger, m *metrics.RelicMetrics) *HuntingDAO {
	return &HuntingDAO{
		db:      db,
		logger:  l.Named("dao.hunting"),
		metrics: m,
	}
}

// Get 查询玩家猎魂状态，不存在返回 NotFound
func (d *HuntingDAO) Get(ctx context.Context, ownerID int64) (state *model.HuntingState, err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("select", err == nil || model.KindOf(err) == model.KindNotFound, time.Since(start).Seconds())
	}()

	query, args, err := postgres.QueryBuilder.
		Select("owner_id", "field_type", "available_npcs", "consumed_currency_a", "consumed_currency_b", "updated_at").
		From(huntingTable).
		Where(squirrel.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	state, err = postgres.QueryOne[model.HuntingState](ctx, d.db.Conn(ctx), query, args...)
	if err != nil {
		if errors.Is(err, postgres.ErrNoRows) {
			return nil, model.NotFound("hunting state", ownerID)
		}
		d.logger.Error("failed to get hunting state",
			"owner_id", ownerID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get hunting state: %w", err)
	}
	if state.AvailableNPCs == nil {
		state.AvailableNPCs = []string{}
	}
	return state, nil
}

func upsertHunting(s *model.HuntingState) (squirrel.InsertBuilder, error) {
	npcs := s.AvailableNPCs
	if npcs == nil {
		npcs = []string{}
	}
	npcsJSON, err := json.Marshal(npcs)
	if err != nil {
		return squirrel.InsertBuilder{}, fmt.Errorf("failed to marshal available npcs: %w", err)
	}
	return postgres.QueryBuilder.
		Insert(huntingTable).
		Columns("owner_id", "field_type", "available_npcs", "consumed_currency_a", "consumed_currency_b", "updated_at").
		Values(s.OwnerID, string(s.FieldType), npcsJSON, s.ConsumedCurrencyA, s.ConsumedCurrencyB, s.UpdatedAt).
		Suffix("ON CONFLICT (owner_id) DO UPDATE SET " +
			"field_type = EXCLUDED.field_type, available_npcs = EXCLUDED.available_npcs, " +
			"consumed_currency_a = EXCLUDED.consumed_currency_a, consumed_currency_b = EXCLUDED.consumed_currency_b, " +
			"updated_at = EXCLUDED.updated_at"), nil
}

// Save 保存猎魂状态 (Upsert)
func (d *HuntingDAO) Save(ctx context.Context, s *model.HuntingState) (err error) {
	start := time.Now()
	defer func() {
		d.metrics.RecordDBQuery("upsert", err == nil, time.Since(start).Seconds())
	}()

	b, err := upsertHunting(s)
	if err != nil {
		return err
	}
	if _, err = postgres.ExecBuilder(ctx, d.db.Conn(ctx), b); err != nil {
		d.logger.Error("failed to save hunting state",
			"owner_id", s.OwnerID,
			"error", err,
		)
		return fmt.Errorf("failed to save hunting state: %w", err)
	}
	return nil
}
