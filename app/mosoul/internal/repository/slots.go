package repository

import (
	"context"
	"fmt"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// slotProvider 由魔魂存储和魔宠信息派生装备栏视图
type slotProvider struct {
	relics  RelicStore
	players PlayerProvider
}

// NewSlotProvider 创建装备栏视图
func NewSlotProvider(relics RelicStore, players PlayerProvider) SlotProvider {
	return &slotProvider{relics: relics, players: players}
}

func (p *slotProvider) Get(ctx context.Context, creatureID int64) (*model.CreatureSlot, error) {
	c, err := p.players.Creature(ctx, creatureID)
	if err != nil {
		return nil, err
	}
	return p.build(ctx, c)
}

func (p *slotProvider) GetByOwner(ctx context.Context, ownerID int64) ([]*model.CreatureSlot, error) {
	creatures, err := p.players.Creatures(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	slots := make([]*model.CreatureSlot, 0, len(creatures))
	for _, c := range creatures {
		s, err := p.build(ctx, c)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

func (p *slotProvider) build(ctx context.Context, c *model.Creature) (*model.CreatureSlot, error) {
	equipped, err := p.relics.GetEquipped(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &model.CreatureSlot{
		CreatureID: c.ID,
		OwnerID:    c.OwnerID,
		Level:      c.Level,
		Equipped:   equipped,
	}, nil
}

func (p *slotProvider) Equip(ctx context.Context, creatureID, relicID int64) error {
	r, err := p.relics.Get(ctx, relicID)
	if err != nil {
		return err
	}
	if !r.InStorage() {
		return fmt.Errorf("%w: relic %d on creature %d", model.ErrAlreadyEquipped, relicID, *r.EquippedTo)
	}
	_, err = p.relics.Update(ctx, relicID, model.RelicUpdate{EquippedTo: model.Set(creatureID)})
	return err
}

func (p *slotProvider) Unequip(ctx context.Context, creatureID, relicID int64) error {
	r, err := p.relics.Get(ctx, relicID)
	if err != nil {
		return err
	}
	if !r.IsEquippedTo(creatureID) {
		return fmt.Errorf("%w: relic %d, creature %d", model.ErrNotEquipped, relicID, creatureID)
	}
	_, err = p.relics.Update(ctx, relicID, model.RelicUpdate{EquippedTo: model.Clear[int64]()})
	return err
}
