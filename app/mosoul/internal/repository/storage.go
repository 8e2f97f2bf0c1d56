package repository

import (
	"context"
	"fmt"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// storageProvider 由魔魂存储和 VIP 容量表派生仓库视图
type storageProvider struct {
	relics   RelicStore
	players  PlayerProvider
	capacity CapacitySource
}

// NewStorageProvider 创建仓库视图
func NewStorageProvider(relics RelicStore, players PlayerProvider, capacity CapacitySource) StorageProvider {
	return &storageProvider{relics: relics, players: players, capacity: capacity}
}

func (p *storageProvider) Get(ctx context.Context, ownerID int64) (*model.StorageView, error) {
	vip, err := p.players.VIPTier(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	all, err := p.relics.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	view := &model.StorageView{
		OwnerID:  ownerID,
		Capacity: p.capacity.StorageCapacity(vip),
		Relics:   make([]*model.Relic, 0, len(all)),
	}
	for _, r := range all {
		if r.InStorage() {
			view.Relics = append(view.Relics, r)
		}
	}
	return view, nil
}

// Save 写回视图中的每个魔魂，超出容量时拒绝
func (p *storageProvider) Save(ctx context.Context, view *model.StorageView) error {
	if len(view.Relics) > view.Capacity {
		return model.Capacity("storage of %d holds %d relics, capacity %d", view.OwnerID, len(view.Relics), view.Capacity)
	}
	for _, r := range view.Relics {
		if r.OwnerID != view.OwnerID {
			return fmt.Errorf("%w: relic %d", model.ErrNotOwner, r.ID)
		}
		if !r.InStorage() {
			return fmt.Errorf("%w: relic %d", model.ErrAlreadyEquipped, r.ID)
		}
	}
	if b, ok := p.relics.(batchSaver); ok {
		return b.SaveAll(ctx, view.Relics)
	}
	for _, r := range view.Relics {
		if _, err := p.relics.Save(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (p *storageProvider) CountUnequipped(ctx context.Context, ownerID int64) (int, error) {
	if c, ok := p.relics.(unequippedCounter); ok {
		return c.CountUnequipped(ctx, ownerID)
	}
	all, err := p.relics.GetByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range all {
		if r.InStorage() {
			n++
		}
	}
	return n, nil
}

// 存储实现可选的批量能力
type batchSaver interface {
	SaveAll(ctx context.Context, relics []*model.Relic) error
}

type unequippedCounter interface {
	CountUnequipped(ctx context.Context, ownerID int64) (int, error)
}
