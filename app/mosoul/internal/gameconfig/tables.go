package gameconfig

import "github.com/lk2023060901/mosoul/app/mosoul/internal/model"

// 数据表文件名 (不含扩展名)
const (
	TableRelic      = "tbrelic"
	TableUpgrade    = "tbrelicupgrade"
	TableVIPStorage = "tbvipstorage"
	TableHuntField  = "tbhuntfield"
	TablePity       = "tbpity"
)

// DefaultStorageCapacity 未配置 tbvipstorage 时的仓库容量
const DefaultStorageCapacity = 50

// UpgradeRow 升级经验表 tbrelicupgrade
// LevelExp[i] 为从 i+1 级升到 i+2 级所需经验，未配置或为 0 表示无法继续升级
type UpgradeRow struct {
	Grade       model.Grade `json:"grade"`
	ExpProvided int64       `json:"exp_provided" validate:"gte=0"`
	LevelExp    []int64     `json:"level_exp" validate:"max=9,dive,gte=0"`
}

// VIPStorageRow 仓库容量表 tbvipstorage
type VIPStorageRow struct {
	VIP      int `json:"vip" validate:"gte=0"`
	Capacity int `json:"capacity" validate:"gt=0"`
}

// HuntNPC 猎魂池中的候选
type HuntNPC struct {
	ID       string              `json:"id" validate:"required"`
	Name     string              `json:"name"`
	Cost     int64               `json:"cost" validate:"gte=0"`
	Currency model.Currency      `json:"currency" validate:"oneof=copper soul_charm"`
	Weights  map[model.Grade]int `json:"weights" validate:"required,dive,gte=0"`
}

// HuntField 猎魂场表 tbhuntfield
// PityKey 为空表示该猎魂场不计入全服保底
type HuntField struct {
	Field           model.FieldType `json:"field" validate:"oneof=normal advanced"`
	PityKey         string          `json:"pity_key"`
	WasteSellCopper int64           `json:"waste_sell_copper" validate:"gte=0"`
	NPCs            []HuntNPC       `json:"npcs" validate:"required,min=1,dive"`
}

// Pool 按配置顺序返回候选 ID
func (f *HuntField) Pool() []string {
	ids := make([]string, len(f.NPCs))
	for i := range f.NPCs {
		ids[i] = f.NPCs[i].ID
	}
	return ids
}

// NPC 按 ID 查找候选
func (f *HuntField) NPC(id string) (*HuntNPC, bool) {
	for i := range f.NPCs {
		if f.NPCs[i].ID == id {
			return &f.NPCs[i], true
		}
	}
	return nil, false
}

// PityRow 全服保底阈值表 tbpity
type PityRow struct {
	Key       string `json:"key" validate:"required"`
	Threshold int64  `json:"threshold" validate:"gt=0"`
}
