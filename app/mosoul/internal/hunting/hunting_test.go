package hunting

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Unix(1700000000, 0)

func TestSession_PoolExhaustion(t *testing.T) {
	pool := []string{"n1", "n2", "n3", "n4"}
	s := model.NewHuntingState(7)

	_, err := Next(s, now)
	assert.True(t, errors.Is(err, model.ErrNoFieldSelected))

	changed, err := SelectField(s, model.FieldNormal, pool, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.HuntFieldSelected, s.Phase())

	seen := make(map[string]bool)
	for i := 0; i < len(pool); i++ {
		assert.Equal(t, model.HuntFieldSelected, s.Phase(), "before hunt %d", i+1)
		id, err := Next(s, now)
		require.NoError(t, err)
		assert.False(t, seen[id], "candidate %s reused", id)
		seen[id] = true
	}
	assert.Equal(t, model.HuntPoolExhausted, s.Phase())

	_, err = Next(s, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrPoolExhausted))
	assert.Equal(t, model.KindValidation, model.KindOf(err))

	// 选择同一场地不会刷新已耗尽的池子
	changed, err = SelectField(s, model.FieldNormal, pool, now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.HuntPoolExhausted, s.Phase())

	require.NoError(t, Reset(s, model.FieldNormal, pool, now))
	assert.Equal(t, pool, s.AvailableNPCs)
	id, err := Next(s, now)
	require.NoError(t, err)
	assert.Equal(t, "n1", id)
}

func TestSession_SwitchFieldZeroesCounters(t *testing.T) {
	s := model.NewHuntingState(1)
	_, err := SelectField(s, model.FieldNormal, []string{"n1", "n2"}, now)
	require.NoError(t, err)
	Charge(s, model.CurrencyCopper, 1000)
	Charge(s, model.CurrencySoulCharm, 2)
	assert.Equal(t, int64(1000), s.ConsumedCurrencyA)
	assert.Equal(t, int64(2), s.ConsumedCurrencyB)

	// 同一场地保留计数
	changed, err := SelectField(s, model.FieldNormal, []string{"n1", "n2"}, now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(1000), s.ConsumedCurrencyA)

	changed, err = SelectField(s, model.FieldAdvanced, []string{"a1"}, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Zero(t, s.ConsumedCurrencyA)
	assert.Zero(t, s.ConsumedCurrencyB)
	assert.Equal(t, []string{"a1"}, s.AvailableNPCs)

	_, err = SelectField(s, "vip", nil, now)
	assert.True(t, errors.Is(err, model.ErrInvalidFieldType))
}

func TestSession_PoolIsCopied(t *testing.T) {
	pool := []string{"n1", "n2"}
	s := model.NewHuntingState(1)
	_, err := SelectField(s, model.FieldNormal, pool, now)
	require.NoError(t, err)
	s.AvailableNPCs[0] = "changed"
	assert.Equal(t, "n1", pool[0])
}

type fixedRand []int

func (f *fixedRand) IntN(n int) int {
	v := (*f)[0] % n
	*f = (*f)[1:]
	return v
}

func TestRollGrade(t *testing.T) {
	weights := map[model.Grade]int{model.GradeDragon: 10, model.GradeHeaven: 5, model.GradeYellow: 20, model.GradeWaste: 0}

	// 排除龙魂后总权重 25：[0,5) 天魂，[5,25) 黄魂
	r := fixedRand{0, 4, 5, 24}
	for _, want := range []model.Grade{model.GradeHeaven, model.GradeHeaven, model.GradeYellow, model.GradeYellow} {
		g, ok := RollGrade(&r, weights, true)
		require.True(t, ok)
		assert.Equal(t, want, g)
	}

	r = fixedRand{3}
	g, ok := RollGrade(&r, weights, false)
	require.True(t, ok)
	assert.Equal(t, model.GradeDragon, g)

	_, ok = RollGrade(&r, map[model.Grade]int{model.GradeDragon: 5}, true)
	assert.False(t, ok)
}

func TestRollGrade_Distribution(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	weights := map[model.Grade]int{model.GradeYellow: 3, model.GradeMystic: 1}
	counts := make(map[model.Grade]int)
	for i := 0; i < 4000; i++ {
		g, _ := RollGrade(rng, weights, true)
		counts[g]++
	}
	assert.InDelta(t, 3000, counts[model.GradeYellow], 200)
	assert.InDelta(t, 1000, counts[model.GradeMystic], 200)
}

func TestPickTemplate(t *testing.T) {
	tpls := []*model.RelicTemplate{{ID: 1}, {ID: 2}, {ID: 3}}
	r := fixedRand{2}
	got, ok := PickTemplate(&r, tpls)
	require.True(t, ok)
	assert.Equal(t, int32(3), got.ID)

	_, ok = PickTemplate(&r, nil)
	assert.False(t, ok)
}
