// Package service 魔魂业务编排：装备、升级、猎魂、全服保底
package service

import (
	"context"
	"fmt"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/gameconfig"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
)

// CatalogSource 当前生效的配置快照，gameconfig.Holder 满足此接口
type CatalogSource interface {
	Catalog() *gameconfig.Catalog
}

// ownerLockKey 同一玩家的魔魂写操作串行执行
func ownerLockKey(ownerID int64) string {
	return fmt.Sprintf("relic:owner:%d", ownerID)
}

// bindTemplates 为实例附加模板
func bindTemplates(cat *gameconfig.Catalog, relics []*model.Relic) ([]*model.RelicView, error) {
	views := make([]*model.RelicView, 0, len(relics))
	for _, r := range relics {
		v, err := bindTemplate(cat, r)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func bindTemplate(cat *gameconfig.Catalog, r *model.Relic) (*model.RelicView, error) {
	tpl, err := cat.Template(r.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("relic %d: %w", r.ID, err)
	}
	return &model.RelicView{Relic: r, Template: tpl}, nil
}

// loadOwnedRelic 读取魔魂并校验归属
func loadOwnedRelic(ctx context.Context, relics repository.RelicStore, ownerID, relicID int64) (*model.Relic, error) {
	r, err := relics.Get(ctx, relicID)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: relic %d", model.ErrNotOwner, relicID)
	}
	return r, nil
}

// loadOwnedSlot 读取魔宠装备栏并校验归属
func loadOwnedSlot(ctx context.Context, slots repository.SlotProvider, ownerID, creatureID int64) (*model.CreatureSlot, error) {
	slot, err := slots.Get(ctx, creatureID)
	if err != nil {
		return nil, err
	}
	if slot.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: creature %d", model.ErrNotOwner, creatureID)
	}
	return slot, nil
}

// kindLabel 错误类别作为指标标签，成功为空
func kindLabel(err error) string {
	return string(model.KindOf(err))
}
