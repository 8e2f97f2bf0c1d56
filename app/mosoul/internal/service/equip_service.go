package service

import (
	"context"
	"fmt"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/rules"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// EquipService 魔魂装备服务
type EquipService struct {
	logger  logger.Logger
	catalog CatalogSource
	relics  repository.RelicStore
	slots   repository.SlotProvider
	storage repository.StorageProvider
	locker  repository.Locker
	metrics *metrics.RelicMetrics
}

func NewEquipService(
	l logger.Logger,
	catalog CatalogSource,
	relics repository.RelicStore,
	slots repository.SlotProvider,
	storage repository.StorageProvider,
	locker repository.Locker,
	m *metrics.RelicMetrics,
) *EquipService {
	return &EquipService{
		logger:  l.Named("service.equip"),
		catalog: catalog,
		relics:  relics,
		slots:   slots,
		storage: storage,
		locker:  locker,
		metrics: m,
	}
}

// EquipPreview 装备预览
type EquipPreview struct {
	Check     rules.EquipCheck
	MaxSlots  int
	UsedSlots int
	Current   rules.Totals
	After     rules.Totals // 校验不通过时为 nil
	// Suggest 冲突时建议卸下的魔魂
	Suggest *model.RelicView
}

// Equip 将仓库中的魔魂装备到魔宠
func (s *EquipService) Equip(ctx context.Context, ownerID, creatureID, relicID int64) (slot *model.CreatureSlot, err error) {
	defer func() { s.metrics.RecordEquip("equip", kindLabel(err)) }()

	err = s.locker.WithLock(ctx, ownerLockKey(ownerID), func() error {
		// 1. 读取装备栏和魔魂
		cur, candidate, equipped, err := s.load(ctx, ownerID, creatureID, relicID)
		if err != nil {
			return err
		}
		if candidate.IsEquippedTo(creatureID) {
			return fmt.Errorf("%w: relic %d on creature %d", model.ErrAlreadyEquipped, relicID, creatureID)
		}
		if !candidate.InStorage() {
			return fmt.Errorf("%w: relic %d on creature %d", model.ErrAlreadyEquipped, relicID, *candidate.EquippedTo)
		}

		// 2. 等级、空位、冲突校验
		if check := rules.ValidateEquip(candidate, cur.Level, equipped); !check.OK {
			s.logger.Debug("equip rejected",
				"owner_id", ownerID,
				"creature_id", creatureID,
				"relic_id", relicID,
				"reason", check.Reason,
			)
			return check.Err
		}

		// 3. 从仓库移到魔宠
		if err := s.slots.Equip(ctx, creatureID, relicID); err != nil {
			return fmt.Errorf("failed to equip relic: %w", err)
		}

		// 4. 返回最新装备栏
		slot, err = s.slots.Get(ctx, creatureID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("relic equipped", "owner_id", ownerID, "creature_id", creatureID, "relic_id", relicID)
	return slot, nil
}

// Unequip 卸下魔魂放回仓库，仓库已满时返回容量错误
func (s *EquipService) Unequip(ctx context.Context, ownerID, creatureID, relicID int64) (err error) {
	defer func() { s.metrics.RecordEquip("unequip", kindLabel(err)) }()

	err = s.locker.WithLock(ctx, ownerLockKey(ownerID), func() error {
		// 1. 校验归属和装备关系
		if _, err := loadOwnedSlot(ctx, s.slots, ownerID, creatureID); err != nil {
			return err
		}
		r, err := loadOwnedRelic(ctx, s.relics, ownerID, relicID)
		if err != nil {
			return err
		}
		if !r.IsEquippedTo(creatureID) {
			return fmt.Errorf("%w: relic %d, creature %d", model.ErrNotEquipped, relicID, creatureID)
		}

		// 2. 仓库需要有空位
		view, err := s.storage.Get(ctx, ownerID)
		if err != nil {
			return err
		}
		if view.Full() {
			return model.Capacity("storage full (%d/%d), cannot unequip relic %d", len(view.Relics), view.Capacity, relicID)
		}

		// 3. 放回仓库
		if err := s.slots.Unequip(ctx, creatureID, relicID); err != nil {
			return fmt.Errorf("failed to unequip relic: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("relic unequipped", "owner_id", ownerID, "creature_id", creatureID, "relic_id", relicID)
	return nil
}

// Preview 不修改数据，返回装备校验结果和属性变化
func (s *EquipService) Preview(ctx context.Context, ownerID, creatureID, relicID int64) (*EquipPreview, error) {
	cur, candidate, equipped, err := s.load(ctx, ownerID, creatureID, relicID)
	if err != nil {
		return nil, err
	}

	p := &EquipPreview{
		MaxSlots:  rules.MaxEquipSlots(cur.Level),
		UsedSlots: len(equipped),
		Current:   rules.TotalBonus(equipped),
	}
	if !candidate.InStorage() {
		err := fmt.Errorf("%w: relic %d", model.ErrAlreadyEquipped, relicID)
		p.Check = rules.EquipCheck{Reason: err.Error(), Err: err}
		return p, nil
	}

	p.Check = rules.ValidateEquip(candidate, cur.Level, equipped)
	if p.Check.OK {
		p.After = rules.TotalBonus(append(equipped[:len(equipped):len(equipped)], candidate))
	} else if p.Check.Conflict.HasConflict() {
		p.Suggest = rules.SuggestReplacement(candidate, equipped)
	}
	return p, nil
}

// SuggestReplacement 与候选冲突的魔魂中等级和稀有度最低的一个，无冲突返回 nil
func (s *EquipService) SuggestReplacement(ctx context.Context, ownerID, creatureID, relicID int64) (*model.RelicView, error) {
	_, candidate, equipped, err := s.load(ctx, ownerID, creatureID, relicID)
	if err != nil {
		return nil, err
	}
	return rules.SuggestReplacement(candidate, equipped), nil
}

// StatBonus 魔宠当前装备提供的属性加成
func (s *EquipService) StatBonus(ctx context.Context, creatureID int64) (rules.Totals, error) {
	slot, err := s.slots.Get(ctx, creatureID)
	if err != nil {
		return nil, err
	}
	equipped, err := bindTemplates(s.catalog.Catalog(), slot.Equipped)
	if err != nil {
		return nil, err
	}
	return rules.TotalBonus(equipped), nil
}

// load 读取装备栏和候选魔魂，并附加模板
func (s *EquipService) load(ctx context.Context, ownerID, creatureID, relicID int64) (*model.CreatureSlot, *model.RelicView, []*model.RelicView, error) {
	slot, err := loadOwnedSlot(ctx, s.slots, ownerID, creatureID)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := loadOwnedRelic(ctx, s.relics, ownerID, relicID)
	if err != nil {
		return nil, nil, nil, err
	}

	cat := s.catalog.Catalog()
	candidate, err := bindTemplate(cat, r)
	if err != nil {
		return nil, nil, nil, err
	}
	equipped, err := bindTemplates(cat, slot.Equipped)
	if err != nil {
		return nil, nil, nil, err
	}
	return slot, candidate, equipped, nil
}
