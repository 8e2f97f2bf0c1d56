package model

// EquipLevelThreshold 魔宠装备魔魂的最低等级
const EquipLevelThreshold = 30

// MaxRelicLevel 魔魂等级上限
const MaxRelicLevel = 10

// Creature 魔宠 (外部系统维护，只读)
type Creature struct {
	ID      int64 `db:"id"`
	OwnerID int64 `db:"owner_id"`
	Level   int   `db:"level"`
}

// CreatureSlot 魔宠装备栏 (派生视图)
// Equipped 按装备时间顺序排列
type CreatureSlot struct {
	CreatureID int64
	OwnerID    int64
	Level      int
	Equipped   []*Relic
}

// StorageView 玩家魔魂仓库 (派生视图)
type StorageView struct {
	OwnerID  int64
	Capacity int
	Relics   []*Relic
}

// Free 剩余空位
func (s *StorageView) Free() int {
	if n := s.Capacity - len(s.Relics); n > 0 {
		return n
	}
	return 0
}

// Full 仓库是否已满
func (s *StorageView) Full() bool {
	return s.Free() == 0
}
