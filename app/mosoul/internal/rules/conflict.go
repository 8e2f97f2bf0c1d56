package rules

import (
	"fmt"
	"sort"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// ConflictResult 冲突检测结果，Type 为空表示无冲突
type ConflictResult struct {
	Type      model.ConflictType
	Attribute model.Attribute
	Candidate string // 待装备魔魂名称
	Existing  string // 已装备魔魂名称
	Message   string

	// Against 引发冲突的已装备魔魂
	Against *model.RelicView
}

// NoConflict 无冲突
func NoConflict() ConflictResult {
	return ConflictResult{}
}

// HasConflict 是否存在冲突
func (r ConflictResult) HasConflict() bool {
	return r.Type != model.ConflictNone
}

// Err 转为错误，无冲突时返回 nil
func (r ConflictResult) Err() error {
	if !r.HasConflict() {
		return nil
	}
	return &model.ConflictError{
		Type:      r.Type,
		Attribute: r.Attribute,
		Candidate: r.Candidate,
		Existing:  r.Existing,
		Message:   r.Message,
	}
}

func dragonPercentConflict(attr model.Attribute, candidate, existing *model.RelicView) ConflictResult {
	dragon, other := candidate, existing
	if !candidate.Grade().IsDragon() {
		dragon, other = existing, candidate
	}
	return ConflictResult{
		Type:      model.ConflictDragonPercent,
		Attribute: attr,
		Candidate: candidate.Name(),
		Existing:  existing.Name(),
		Message: fmt.Sprintf("dragon relic [%s] percent bonus on %s conflicts with [%s]",
			dragon.Name(), attr, other.Name()),
		Against: existing,
	}
}

func sameKindConflict(attr model.Attribute, kind model.BonusKind, candidate, existing *model.RelicView) ConflictResult {
	typ := model.ConflictSameFlat
	if kind == model.BonusPercent {
		typ = model.ConflictSamePercent
	}
	return ConflictResult{
		Type:      typ,
		Attribute: attr,
		Candidate: candidate.Name(),
		Existing:  existing.Name(),
		Message: fmt.Sprintf("[%s] and [%s] both grant a %s bonus on %s",
			candidate.Name(), existing.Name(), kind, attr),
		Against: existing,
	}
}

// sharedAttribute 按 candidate 的效果顺序返回第一个双方都有 kind 加成的属性
func sharedAttribute(candidate, existing *model.RelicView, kind model.BonusKind) (model.Attribute, bool) {
	for _, e := range candidate.Template.Effects {
		if candidate.Template.HasBonus(e.Attribute, kind) && existing.Template.HasBonus(e.Attribute, kind) {
			return e.Attribute, true
		}
	}
	return "", false
}

// checkDragonPair 任一方为龙魂时，百分比属性不得重叠
func checkDragonPair(candidate, existing *model.RelicView) ConflictResult {
	if !candidate.Grade().IsDragon() && !existing.Grade().IsDragon() {
		return NoConflict()
	}
	if attr, ok := sharedAttribute(candidate, existing, model.BonusPercent); ok {
		return dragonPercentConflict(attr, candidate, existing)
	}
	return NoConflict()
}

// checkSameKindPair 非龙魂之间同属性同类型加成不得重叠，百分比优先
func checkSameKindPair(candidate, existing *model.RelicView) ConflictResult {
	if candidate.Grade().IsDragon() || existing.Grade().IsDragon() {
		return NoConflict()
	}
	for _, kind := range []model.BonusKind{model.BonusPercent, model.BonusFlat} {
		if attr, ok := sharedAttribute(candidate, existing, kind); ok {
			return sameKindConflict(attr, kind, candidate, existing)
		}
	}
	return NoConflict()
}

// conflictBetween 单对魔魂的冲突判定，两条规则的并集
func conflictBetween(candidate, existing *model.RelicView) ConflictResult {
	if r := checkDragonPair(candidate, existing); r.HasConflict() {
		return r
	}
	return checkSameKindPair(candidate, existing)
}

// CheckConflict 返回第一个冲突
// 先对全部已装备魔魂做龙魂百分比检查，再做同类加成检查，同一轮内按装备顺序
func CheckConflict(candidate *model.RelicView, equipped []*model.RelicView) ConflictResult {
	for _, pass := range []func(a, b *model.RelicView) ConflictResult{checkDragonPair, checkSameKindPair} {
		for _, existing := range equipped {
			if existing.ID == candidate.ID && candidate.ID != 0 {
				continue
			}
			if r := pass(candidate, existing); r.HasConflict() {
				return r
			}
		}
	}
	return NoConflict()
}

// FindConflicting 返回所有与 candidate 冲突的已装备魔魂，保持装备顺序
func FindConflicting(candidate *model.RelicView, equipped []*model.RelicView) []*model.RelicView {
	var out []*model.RelicView
	for _, existing := range equipped {
		if existing.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if conflictBetween(candidate, existing).HasConflict() {
			out = append(out, existing)
		}
	}
	return out
}

// SuggestReplacement 在冲突魔魂中选出 (等级, 稀有度) 最低的一个，无冲突返回 nil
func SuggestReplacement(candidate *model.RelicView, equipped []*model.RelicView) *model.RelicView {
	conflicts := FindConflicting(candidate, equipped)
	if len(conflicts) == 0 {
		return nil
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return a.Grade().Rarity() < b.Grade().Rarity()
	})
	return conflicts[0]
}
