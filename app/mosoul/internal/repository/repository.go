package repository

import (
	"context"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// RelicStore 魔魂实例存储
type RelicStore interface {
	// Get 不存在返回 NotFound
	Get(ctx context.Context, id int64) (*model.Relic, error)
	// GetByOwner 按 ID 升序
	GetByOwner(ctx context.Context, ownerID int64) ([]*model.Relic, error)
	// GetEquipped 按装备时间排序
	GetEquipped(ctx context.Context, creatureID int64) ([]*model.Relic, error)
	// Save 写入实例，ID 为 0 时分配新 ID 并返回
	Save(ctx context.Context, r *model.Relic) (*model.Relic, error)
	// Update 部分更新
	Update(ctx context.Context, id int64, u model.RelicUpdate) (*model.Relic, error)
	Delete(ctx context.Context, id int64) error
	DeleteBatch(ctx context.Context, ids []int64) error
}

// StorageProvider 玩家仓库视图
type StorageProvider interface {
	Get(ctx context.Context, ownerID int64) (*model.StorageView, error)
	Save(ctx context.Context, view *model.StorageView) error
	CountUnequipped(ctx context.Context, ownerID int64) (int, error)
}

// SlotProvider 魔宠装备栏视图
type SlotProvider interface {
	Get(ctx context.Context, creatureID int64) (*model.CreatureSlot, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]*model.CreatureSlot, error)
	// Equip 仅当魔魂在仓库中时生效
	Equip(ctx context.Context, creatureID, relicID int64) error
	// Unequip 仅当魔魂装备在该魔宠上时生效
	Unequip(ctx context.Context, creatureID, relicID int64) error
}

// HuntingStateStore 玩家猎魂状态存储
type HuntingStateStore interface {
	// Get 未开始猎魂的玩家返回 NotFound
	Get(ctx context.Context, ownerID int64) (*model.HuntingState, error)
	Save(ctx context.Context, s *model.HuntingState) error
	// Reset 以 ft 的完整候选池重置会话
	Reset(ctx context.Context, ownerID int64, ft model.FieldType) (*model.HuntingState, error)
}

// PityStore 全服保底计数器存储
// Increment 必须在存储层原子完成读取、递增和阈值判断
type PityStore interface {
	Get(ctx context.Context, key string) (*model.PityCounter, error)
	Increment(ctx context.Context, key string, threshold, cost int64) (*model.PityCounter, bool, error)
	Reset(ctx context.Context, key string) error
}

// PlayerProvider 玩家属性查询 (外部系统)
type PlayerProvider interface {
	VIPTier(ctx context.Context, ownerID int64) (int, error)
	Creature(ctx context.Context, creatureID int64) (*model.Creature, error)
	Creatures(ctx context.Context, ownerID int64) ([]*model.Creature, error)
}

// PoolSource 猎魂场候选池
type PoolSource interface {
	FieldPool(ft model.FieldType) ([]string, error)
}

// CapacitySource VIP 等级到仓库容量
type CapacitySource interface {
	StorageCapacity(vip int) int
}

// Locker 按 key 串行执行 fn，用于同一玩家的并发请求
type Locker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}
