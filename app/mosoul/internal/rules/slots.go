package rules

import "github.com/lk2023060901/mosoul/app/mosoul/internal/model"

// MaxEquipSlots 魔宠可装备魔魂数量
// 30 级以下为 0，之后每 10 级一个：34 级 3 个，100 级 10 个
func MaxEquipSlots(creatureLevel int) int {
	if creatureLevel < model.EquipLevelThreshold {
		return 0
	}
	return creatureLevel / 10
}
