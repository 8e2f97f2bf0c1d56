package rules

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nextID int64

func relic(name string, grade model.Grade, level int, effects ...model.Effect) *model.RelicView {
	nextID++
	return &model.RelicView{
		Relic:    &model.Relic{ID: nextID, Level: level},
		Template: &model.RelicTemplate{ID: int32(nextID), Name: name, Grade: grade, Effects: effects},
	}
}

func pct(attr model.Attribute, v int64) model.Effect  { return model.Effect{Attribute: attr, Percent: v} }
func flat(attr model.Attribute, v int64) model.Effect { return model.Effect{Attribute: attr, Flat: v} }

func TestCheckConflict_DragonSymmetry(t *testing.T) {
	for _, g := range []model.Grade{model.GradeHeaven, model.GradeEarth, model.GradeMystic, model.GradeYellow} {
		dragon := relic("dragon", model.GradeDragon, 1, pct(model.AttrPhysicalAttack, 12))
		other := relic("other", g, 1, pct(model.AttrPhysicalAttack, 8))

		r1 := CheckConflict(dragon, []*model.RelicView{other})
		r2 := CheckConflict(other, []*model.RelicView{dragon})

		for _, r := range []ConflictResult{r1, r2} {
			assert.Equal(t, model.ConflictDragonPercent, r.Type, g.String())
			assert.Equal(t, model.AttrPhysicalAttack, r.Attribute)
			assert.Contains(t, r.Message, "dragon relic [dragon]")
		}
		assert.Equal(t, "dragon", r1.Candidate)
		assert.Equal(t, "other", r1.Existing)
		assert.Equal(t, "other", r2.Candidate)
		assert.Equal(t, "dragon", r2.Existing)
	}
}

func TestCheckConflict_DragonVsDragon(t *testing.T) {
	a := relic("a", model.GradeDragon, 1, pct(model.AttrSpeed, 9))
	b := relic("b", model.GradeDragon, 1, pct(model.AttrSpeed, 9))
	assert.Equal(t, model.ConflictDragonPercent, CheckConflict(a, []*model.RelicView{b}).Type)
}

func TestCheckConflict_DragonFlatIgnored(t *testing.T) {
	// 龙魂只受百分比规则约束
	dragon := relic("dragon", model.GradeDragon, 1, flat(model.AttrSpeed, 20))
	other := relic("other", model.GradeHeaven, 1, flat(model.AttrSpeed, 10))
	assert.False(t, CheckConflict(dragon, []*model.RelicView{other}).HasConflict())

	dp := relic("dp", model.GradeDragon, 1, pct(model.AttrHP, 4))
	of := relic("of", model.GradeHeaven, 1, flat(model.AttrHP, 100))
	assert.False(t, CheckConflict(dp, []*model.RelicView{of}).HasConflict())
}

func TestCheckConflict_SameKind(t *testing.T) {
	tests := []struct {
		name string
		a, b model.Effect
		want model.ConflictType
	}{
		{"both flat", flat(model.AttrSpeed, 5), flat(model.AttrSpeed, 10), model.ConflictSameFlat},
		{"both percent", pct(model.AttrSpeed, 1), pct(model.AttrSpeed, 2), model.ConflictSamePercent},
		{"flat and percent", flat(model.AttrSpeed, 5), pct(model.AttrSpeed, 2), model.ConflictNone},
		{"different attrs", flat(model.AttrSpeed, 5), flat(model.AttrHP, 5), model.ConflictNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := relic("a", model.GradeYellow, 1, tt.a)
			b := relic("b", model.GradeHeaven, 1, tt.b)
			r := CheckConflict(a, []*model.RelicView{b})
			assert.Equal(t, tt.want, r.Type)
			if tt.want != model.ConflictNone {
				assert.Equal(t, model.AttrSpeed, r.Attribute)
				require.Error(t, r.Err())
				assert.True(t, errors.Is(r.Err(), model.ErrConflict))
			} else {
				assert.NoError(t, r.Err())
			}
		})
	}
}

func TestCheckConflict_Order(t *testing.T) {
	candidate := relic("cand", model.GradeDragon, 1, pct(model.AttrHP, 4))
	sameKind := relic("same", model.GradeDragon, 1, flat(model.AttrHP, 1))
	first := relic("first", model.GradeEarth, 1, pct(model.AttrHP, 1))
	second := relic("second", model.GradeHeaven, 1, pct(model.AttrHP, 2))

	r := CheckConflict(candidate, []*model.RelicView{sameKind, first, second})
	assert.Equal(t, "first", r.Existing)
	assert.Same(t, first, r.Against)

	// 龙魂检查优先于同类检查，即使同类冲突出现在更前的位置
	c2 := relic("c2", model.GradeEarth, 1, pct(model.AttrSpeed, 1), flat(model.AttrHP, 3))
	flatClash := relic("flat", model.GradeYellow, 1, flat(model.AttrHP, 5))
	dragon := relic("dragon", model.GradeDragon, 1, pct(model.AttrSpeed, 9))
	r = CheckConflict(c2, []*model.RelicView{flatClash, dragon})
	assert.Equal(t, model.ConflictDragonPercent, r.Type)
	assert.Equal(t, "dragon", r.Existing)

	// 同一对内百分比优先于固定值
	c3 := relic("c3", model.GradeEarth, 1, flat(model.AttrHP, 1), pct(model.AttrSpeed, 1))
	both := relic("both", model.GradeYellow, 1, flat(model.AttrHP, 1), pct(model.AttrSpeed, 1))
	r = CheckConflict(c3, []*model.RelicView{both})
	assert.Equal(t, model.ConflictSamePercent, r.Type)
	assert.Equal(t, model.AttrSpeed, r.Attribute)
}

func TestFindConflicting_ConsistentWithCheck(t *testing.T) {
	candidate := relic("cand", model.GradeEarth, 1, pct(model.AttrSpeed, 1), flat(model.AttrHP, 3))
	equipped := []*model.RelicView{
		relic("flat", model.GradeYellow, 5, flat(model.AttrHP, 5)),
		relic("free", model.GradeYellow, 1, flat(model.AttrMagicAttack, 5)),
		relic("dragon", model.GradeDragon, 3, pct(model.AttrSpeed, 9)),
	}

	all := FindConflicting(candidate, equipped)
	require.Len(t, all, 2)
	assert.Equal(t, "flat", all[0].Name())
	assert.Equal(t, "dragon", all[1].Name())

	r := CheckConflict(candidate, equipped)
	require.True(t, r.HasConflict())
	assert.Contains(t, all, r.Against)

	assert.Empty(t, FindConflicting(candidate, equipped[1:2]))
	assert.False(t, CheckConflict(candidate, equipped[1:2]).HasConflict())
}

func TestSuggestReplacement(t *testing.T) {
	candidate := relic("cand", model.GradeEarth, 1, flat(model.AttrSpeed, 3))
	high := relic("high", model.GradeYellow, 8, flat(model.AttrSpeed, 5))
	lowHeaven := relic("lowHeaven", model.GradeHeaven, 2, flat(model.AttrSpeed, 9))
	lowYellow := relic("lowYellow", model.GradeYellow, 2, flat(model.AttrSpeed, 1))

	got := SuggestReplacement(candidate, []*model.RelicView{high, lowHeaven, lowYellow})
	require.NotNil(t, got)
	assert.Equal(t, "lowYellow", got.Name())

	assert.Nil(t, SuggestReplacement(candidate, nil))
}

func TestMaxEquipSlots(t *testing.T) {
	tests := map[int]int{0: 0, 1: 0, 29: 0, 30: 3, 34: 3, 39: 3, 40: 4, 99: 9, 100: 10}
	for level, want := range tests {
		assert.Equal(t, want, MaxEquipSlots(level), "level %d", level)
	}
	prev := 0
	for level := 0; level <= 120; level++ {
		n := MaxEquipSlots(level)
		assert.GreaterOrEqual(t, n, prev)
		prev = n
	}
}

func TestValidateEquip(t *testing.T) {
	candidate := relic("cand", model.GradeEarth, 1, flat(model.AttrSpeed, 3))
	clash := relic("clash", model.GradeYellow, 1, flat(model.AttrSpeed, 1))
	free := relic("free", model.GradeYellow, 1, flat(model.AttrHP, 1))

	c := ValidateEquip(candidate, 29, nil)
	assert.False(t, c.OK)
	assert.True(t, errors.Is(c.Err, model.ErrLevelTooLow))
	assert.Contains(t, c.Reason, "current 29")

	full := []*model.RelicView{free, relic("f2", model.GradeYellow, 1), relic("f3", model.GradeYellow, 1)}
	c = ValidateEquip(candidate, 35, full)
	assert.True(t, errors.Is(c.Err, model.ErrSlotFull))

	// 等级检查先于空位检查
	c = ValidateEquip(candidate, 10, full)
	assert.True(t, errors.Is(c.Err, model.ErrLevelTooLow))

	c = ValidateEquip(candidate, 40, []*model.RelicView{free, clash})
	assert.False(t, c.OK)
	assert.Equal(t, model.KindConflict, model.KindOf(c.Err))
	assert.Equal(t, model.ConflictSameFlat, c.Conflict.Type)

	c = ValidateEquip(candidate, 40, []*model.RelicView{candidate})
	assert.True(t, errors.Is(c.Err, model.ErrAlreadyEquipped))

	c = ValidateEquip(candidate, 40, []*model.RelicView{free})
	assert.True(t, c.OK)
	assert.Empty(t, c.Reason)
	assert.NoError(t, c.Err)
}

func TestTotalAndApplyBonus(t *testing.T) {
	a := relic("a", model.GradeEarth, 2, flat(model.AttrHP, 50), pct(model.AttrSpeed, 1))
	b := relic("b", model.GradeDragon, 3, pct(model.AttrHP, 4))

	totals := TotalBonus([]*model.RelicView{a, b})
	assert.Equal(t, Bonus{Flat: 100, Percent: 12}, totals[model.AttrHP])
	assert.Equal(t, Bonus{Percent: 2}, totals[model.AttrSpeed])

	stats := ApplyBonus(Stats{model.AttrHP: 1000, model.AttrSpeed: 55, model.AttrMagicAttack: 10}, totals)
	assert.Equal(t, int64(1000+100+120), stats[model.AttrHP])
	assert.Equal(t, int64(55+1), stats[model.AttrSpeed])
	assert.Equal(t, int64(10), stats[model.AttrMagicAttack])
}
