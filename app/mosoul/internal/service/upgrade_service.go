package service

import (
	"context"
	"fmt"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/leveling"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// UpgradeService 魔魂吞噬升级服务
type UpgradeService struct {
	logger  logger.Logger
	catalog CatalogSource
	relics  repository.RelicStore
	locker  repository.Locker
	tx      repository.Transactor
	metrics *metrics.RelicMetrics
}

func NewUpgradeService(
	l logger.Logger,
	catalog CatalogSource,
	relics repository.RelicStore,
	locker repository.Locker,
	tx repository.Transactor,
	m *metrics.RelicMetrics,
) *UpgradeService {
	return &UpgradeService{
		logger:  l.Named("service.upgrade"),
		catalog: catalog,
		relics:  relics,
		locker:  locker,
		tx:      tx,
		metrics: m,
	}
}

// UpgradeResult 升级结果
type UpgradeResult struct {
	Relic        *model.Relic
	ExpGained    int64
	LevelsGained int
	Consumed     []int64
}

// Upgrade 吞噬仓库中的材料魔魂为目标增加经验
// 材料必须属于同一玩家、在仓库中、互不重复且不是目标本身
func (s *UpgradeService) Upgrade(ctx context.Context, ownerID, targetID int64, materialIDs []int64) (*UpgradeResult, error) {
	var res *UpgradeResult
	err := s.locker.WithLock(ctx, ownerLockKey(ownerID), func() error {
		// 1. 计算结果
		var err error
		res, err = s.compute(ctx, ownerID, targetID, materialIDs)
		if err != nil {
			return err
		}

		// 2. 删除材料并保存目标，同一事务
		return s.tx.InTx(ctx, func(ctx context.Context) error {
			if err := s.relics.DeleteBatch(ctx, materialIDs); err != nil {
				return fmt.Errorf("failed to consume materials: %w", err)
			}
			level, exp := res.Relic.Level, res.Relic.Exp
			updated, err := s.relics.Update(ctx, targetID, model.RelicUpdate{Level: &level, Exp: &exp})
			if err != nil {
				return fmt.Errorf("failed to save upgraded relic: %w", err)
			}
			res.Relic = updated
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLevelUp(res.LevelsGained)
	s.logger.Info("relic upgraded",
		"owner_id", ownerID,
		"relic_id", targetID,
		"level", res.Relic.Level,
		"exp_gained", res.ExpGained,
		"materials", len(materialIDs),
	)
	return res, nil
}

// Preview 返回升级后的等级和经验，不修改数据
func (s *UpgradeService) Preview(ctx context.Context, ownerID, targetID int64, materialIDs []int64) (*UpgradeResult, error) {
	return s.compute(ctx, ownerID, targetID, materialIDs)
}

func (s *UpgradeService) compute(ctx context.Context, ownerID, targetID int64, materialIDs []int64) (*UpgradeResult, error) {
	if len(materialIDs) == 0 {
		return nil, fmt.Errorf("%w: no materials", model.ErrValidation)
	}

	// 1. 目标魔魂
	target, err := loadOwnedRelic(ctx, s.relics, ownerID, targetID)
	if err != nil {
		return nil, err
	}
	if target.Level >= model.MaxRelicLevel {
		return nil, fmt.Errorf("%w: relic %d", model.ErrMaxLevel, targetID)
	}
	cat := s.catalog.Catalog()
	tpl, err := cat.Template(target.TemplateID)
	if err != nil {
		return nil, err
	}

	// 2. 材料校验
	seen := make(map[int64]struct{}, len(materialIDs))
	grades := make([]model.Grade, 0, len(materialIDs))
	for _, id := range materialIDs {
		if id == targetID {
			return nil, fmt.Errorf("%w: relic %d cannot consume itself", model.ErrDuplicateRelic, id)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: relic %d", model.ErrDuplicateRelic, id)
		}
		seen[id] = struct{}{}

		m, err := loadOwnedRelic(ctx, s.relics, ownerID, id)
		if err != nil {
			return nil, err
		}
		if !m.InStorage() {
			return nil, fmt.Errorf("%w: material %d", model.ErrAlreadyEquipped, id)
		}
		mt, err := cat.Template(m.TemplateID)
		if err != nil {
			return nil, err
		}
		grades = append(grades, mt.Grade)
	}

	// 3. 经验结算
	gained := leveling.FeedExp(cat, grades)
	r := leveling.ApplyExp(cat, tpl.Grade, target.Level, target.Exp, gained)

	out := target.Clone()
	out.Level, out.Exp = r.Level, r.Exp
	return &UpgradeResult{
		Relic:        out,
		ExpGained:    gained,
		LevelsGained: r.LevelsGained,
		Consumed:     append([]int64(nil), materialIDs...),
	}, nil
}
