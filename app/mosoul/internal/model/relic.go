package model

import (
	"fmt"
	"time"
)

// Attribute 魔魂可加成的属性
type Attribute string

const (
	AttrHP              Attribute = "hp"
	AttrPhysicalAttack  Attribute = "physical_attack"
	AttrMagicAttack     Attribute = "magic_attack"
	AttrPhysicalDefense Attribute = "physical_defense"
	AttrMagicDefense    Attribute = "magic_defense"
	AttrSpeed           Attribute = "speed"
)

// AllAttributes 属性的固定顺序，用于汇总输出
var AllAttributes = []Attribute{
	AttrHP, AttrPhysicalAttack, AttrMagicAttack, AttrPhysicalDefense, AttrMagicDefense, AttrSpeed,
}

func (a Attribute) Valid() bool {
	for _, v := range AllAttributes {
		if v == a {
			return true
		}
	}
	return false
}

// BonusKind 加成类型
type BonusKind string

const (
	BonusFlat    BonusKind = "flat"
	BonusPercent BonusKind = "percent"
)

// Effect 单条属性效果，Flat 和 Percent 可同时为正
type Effect struct {
	Attribute Attribute `json:"attr"`
	Flat      int64     `json:"flat"`
	Percent   int64     `json:"percent"`
}

// RelicTemplate 魔魂模板 (配置表 tbrelic)
type RelicTemplate struct {
	ID      int32    `json:"id"`
	Name    string   `json:"name"`
	Grade   Grade    `json:"grade"`
	Effects []Effect `json:"effects"`
}

// PercentAttributes 按效果顺序返回有百分比加成的属性
func (t *RelicTemplate) PercentAttributes() []Attribute {
	return t.attributes(BonusPercent)
}

// FlatAttributes 按效果顺序返回有固定值加成的属性
func (t *RelicTemplate) FlatAttributes() []Attribute {
	return t.attributes(BonusFlat)
}

// HasBonus 是否对 attr 有 kind 类型的加成
func (t *RelicTemplate) HasBonus(attr Attribute, kind BonusKind) bool {
	for _, e := range t.Effects {
		if e.Attribute == attr && e.value(kind) > 0 {
			return true
		}
	}
	return false
}

func (t *RelicTemplate) attributes(kind BonusKind) []Attribute {
	var out []Attribute
	for _, e := range t.Effects {
		if e.value(kind) > 0 {
			out = append(out, e.Attribute)
		}
	}
	return out
}

// EffectsAtLevel 效果随等级线性增长
func (t *RelicTemplate) EffectsAtLevel(level int) []Effect {
	out := make([]Effect, len(t.Effects))
	for i, e := range t.Effects {
		out[i] = Effect{Attribute: e.Attribute, Flat: e.Flat * int64(level), Percent: e.Percent * int64(level)}
	}
	return out
}

func (e Effect) value(kind BonusKind) int64 {
	if kind == BonusPercent {
		return e.Percent
	}
	return e.Flat
}

// Relic 魔魂实例
// 对应表：player_relic
type Relic struct {
	ID         int64      `db:"id" json:"id"` // 首次保存时分配
	OwnerID    int64      `db:"owner_id" json:"owner_id"`
	TemplateID int32      `db:"template_id" json:"template_id"`
	Level      int        `db:"level" json:"level"`
	Exp        int64      `db:"exp" json:"exp"`
	EquippedTo *int64     `db:"equipped_to" json:"equipped_to,omitempty"` // nil 表示在仓库中
	EquippedAt *time.Time `db:"equipped_at" json:"equipped_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// InStorage 是否在仓库中
func (r *Relic) InStorage() bool {
	return r.EquippedTo == nil
}

// IsEquippedTo 是否装备在指定魔宠上
func (r *Relic) IsEquippedTo(creatureID int64) bool {
	return r.EquippedTo != nil && *r.EquippedTo == creatureID
}

// Clone 深拷贝，存储层返回副本避免调用方修改共享数据
func (r *Relic) Clone() *Relic {
	c := *r
	if r.EquippedTo != nil {
		v := *r.EquippedTo
		c.EquippedTo = &v
	}
	if r.EquippedAt != nil {
		v := *r.EquippedAt
		c.EquippedAt = &v
	}
	return &c
}

// RelicView 实例和模板的组合，规则引擎的输入
type RelicView struct {
	*Relic
	Template *RelicTemplate
}

// Name 模板名称
func (v *RelicView) Name() string {
	return v.Template.Name
}

// Grade 模板品阶
func (v *RelicView) Grade() Grade {
	return v.Template.Grade
}

func (v *RelicView) String() string {
	return fmt.Sprintf("%s(#%d Lv.%d)", v.Template.Name, v.ID, v.Level)
}

// RelicUpdate 实例部分更新
// Level/Exp 为 nil 表示不修改
type RelicUpdate struct {
	Level      *int
	Exp        *int64
	EquippedTo FieldUpdate[int64]
}

// Apply 将更新应用到实例，now 用于记录装备时间
func (u RelicUpdate) Apply(r *Relic, now time.Time) {
	if u.Level != nil {
		r.Level = *u.Level
	}
	if u.Exp != nil {
		r.Exp = *u.Exp
	}
	switch {
	case u.EquippedTo.IsSet():
		v := u.EquippedTo.Value()
		r.EquippedTo = &v
		r.EquippedAt = &now
	case u.EquippedTo.IsClear():
		r.EquippedTo = nil
		r.EquippedAt = nil
	}
}
