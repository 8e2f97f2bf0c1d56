package rules

import (
	"fmt"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// EquipCheck 装备校验结果
type EquipCheck struct {
	OK     bool
	Reason string
	Err    error // 已归类的错误，OK 时为 nil

	// Conflict 仅在冲突导致失败时有值
	Conflict ConflictResult
}

func passed() EquipCheck {
	return EquipCheck{OK: true}
}

func failed(err error) EquipCheck {
	return EquipCheck{Reason: err.Error(), Err: err}
}

// CheckEquipLevel 魔宠等级门槛
func CheckEquipLevel(creatureLevel int) EquipCheck {
	if creatureLevel < model.EquipLevelThreshold {
		return failed(fmt.Errorf("%w: requires level %d, current %d",
			model.ErrLevelTooLow, model.EquipLevelThreshold, creatureLevel))
	}
	return passed()
}

// CheckSlotAvailability 是否还有空余装备位
func CheckSlotAvailability(creatureLevel, equippedCount int) EquipCheck {
	if limit := MaxEquipSlots(creatureLevel); equippedCount >= limit {
		return failed(fmt.Errorf("%w: at most %d relics at level %d", model.ErrSlotFull, limit, creatureLevel))
	}
	return passed()
}

// ValidateEquip 依次检查等级、空位和冲突，遇到第一个失败即返回
func ValidateEquip(candidate *model.RelicView, creatureLevel int, equipped []*model.RelicView) EquipCheck {
	if c := CheckEquipLevel(creatureLevel); !c.OK {
		return c
	}
	if c := CheckSlotAvailability(creatureLevel, len(equipped)); !c.OK {
		return c
	}
	for _, e := range equipped {
		if candidate.ID != 0 && e.ID == candidate.ID {
			return failed(fmt.Errorf("%w: relic %d", model.ErrAlreadyEquipped, candidate.ID))
		}
	}
	if r := CheckConflict(candidate, equipped); r.HasConflict() {
		return EquipCheck{Reason: r.Message, Err: r.Err(), Conflict: r}
	}
	return passed()
}
