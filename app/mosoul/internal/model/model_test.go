package model

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrade_Order(t *testing.T) {
	assert.Greater(t, GradeDragon.Rarity(), GradeHeaven.Rarity())
	assert.Greater(t, GradeHeaven.Rarity(), GradeEarth.Rarity())
	assert.Greater(t, GradeEarth.Rarity(), GradeMystic.Rarity())
	assert.Greater(t, GradeMystic.Rarity(), GradeYellow.Rarity())
	assert.Greater(t, GradeYellow.Rarity(), GradeWaste.Rarity())
	assert.True(t, GradeDragon.IsDragon())
	assert.False(t, GradeHeaven.IsDragon())
	assert.False(t, Grade(9).Valid())
}

func TestGrade_JSON(t *testing.T) {
	var tpl RelicTemplate
	err := json.Unmarshal([]byte(`{"id":1,"name":"青龙","grade":"Dragon","effects":[{"attr":"hp","percent":5}]}`), &tpl)
	require.NoError(t, err)
	assert.Equal(t, GradeDragon, tpl.Grade)

	out, err := json.Marshal(tpl)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"grade":"dragon"`)

	err = json.Unmarshal([]byte(`{"grade":"legendary"}`), &tpl)
	assert.Error(t, err)
}

func TestRelicTemplate_Attributes(t *testing.T) {
	tpl := &RelicTemplate{
		Effects: []Effect{
			{Attribute: AttrSpeed, Flat: 10},
			{Attribute: AttrHP, Percent: 3},
			{Attribute: AttrMagicAttack, Flat: 5, Percent: 2},
		},
	}
	assert.Equal(t, []Attribute{AttrHP, AttrMagicAttack}, tpl.PercentAttributes())
	assert.Equal(t, []Attribute{AttrSpeed, AttrMagicAttack}, tpl.FlatAttributes())
	assert.True(t, tpl.HasBonus(AttrSpeed, BonusFlat))
	assert.False(t, tpl.HasBonus(AttrSpeed, BonusPercent))

	scaled := tpl.EffectsAtLevel(3)
	assert.Equal(t, int64(30), scaled[0].Flat)
	assert.Equal(t, int64(6), scaled[2].Percent)
	assert.Equal(t, int64(10), tpl.Effects[0].Flat)
}

func TestRelicUpdate_Apply(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := &Relic{ID: 1, Level: 1}

	lv := 4
	RelicUpdate{Level: &lv, EquippedTo: Set[int64](77)}.Apply(r, now)
	assert.Equal(t, 4, r.Level)
	assert.True(t, r.IsEquippedTo(77))
	require.NotNil(t, r.EquippedAt)

	// Keep 不影响装备状态
	exp := int64(12)
	RelicUpdate{Exp: &exp}.Apply(r, now)
	assert.True(t, r.IsEquippedTo(77))
	assert.Equal(t, int64(12), r.Exp)

	RelicUpdate{EquippedTo: Clear[int64]()}.Apply(r, now)
	assert.True(t, r.InStorage())
	assert.Nil(t, r.EquippedAt)
}

func TestFieldUpdate_Resolve(t *testing.T) {
	cur := int64(5)
	assert.Equal(t, &cur, Keep[int64]().Resolve(&cur))
	assert.Nil(t, Clear[int64]().Resolve(&cur))
	assert.Equal(t, int64(9), *Set[int64](9).Resolve(&cur))

	var zero FieldUpdate[string]
	assert.True(t, zero.IsKeep())
}

func TestRelic_Clone(t *testing.T) {
	c := int64(3)
	r := &Relic{ID: 1, EquippedTo: &c}
	cp := r.Clone()
	*cp.EquippedTo = 4
	assert.Equal(t, int64(3), *r.EquippedTo)
}

func TestHuntingState_Phase(t *testing.T) {
	s := NewHuntingState(1)
	assert.Equal(t, HuntIdle, s.Phase())

	s.FieldType = FieldNormal
	s.AvailableNPCs = []string{"a"}
	assert.Equal(t, HuntFieldSelected, s.Phase())

	s.AvailableNPCs = s.AvailableNPCs[1:]
	assert.Equal(t, HuntPoolExhausted, s.Phase())
	assert.Equal(t, "pool_exhausted", s.Phase().String())
}

func TestStorageView_Free(t *testing.T) {
	v := &StorageView{Capacity: 2, Relics: []*Relic{{ID: 1}}}
	assert.Equal(t, 1, v.Free())
	assert.False(t, v.Full())
	v.Relics = append(v.Relics, &Relic{ID: 2}, &Relic{ID: 3})
	assert.Equal(t, 0, v.Free())
	assert.True(t, v.Full())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"validation", ErrSlotFull, KindValidation},
		{"wrapped validation", fmt.Errorf("equip: %w", ErrLevelTooLow), KindValidation},
		{"not found", NotFound("relic", 9), KindNotFound},
		{"capacity", Capacity("storage full: %d/%d", 5, 5), KindCapacity},
		{"conflict", &ConflictError{Type: ConflictSameFlat, Attribute: AttrSpeed}, KindConflict},
		{"wrapped conflict", errors.Wrap(&ConflictError{Type: ConflictSamePercent}, "equip"), KindConflict},
		{"internal", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestConflictError_Message(t *testing.T) {
	err := &ConflictError{Type: ConflictDragonPercent, Attribute: AttrHP, Candidate: "青龙", Existing: "玄武"}
	assert.Contains(t, err.Error(), "hp")
	assert.Contains(t, err.Error(), "青龙")
	assert.Contains(t, err.Error(), "玄武")

	var ce *ConflictError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &ce))
	assert.Equal(t, ConflictDragonPercent, ce.Type)
}
