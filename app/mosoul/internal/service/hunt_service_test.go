package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/events"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/gameconfig"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository/memory"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

func TestHunt_NoFieldSelected(t *testing.T) {
	e := newEnv(t)
	_, err := e.hunt.Hunt(context.Background(), testOwner)
	assert.ErrorIs(t, err, model.ErrNoFieldSelected)
}

func TestHunt_PoolExhaustion(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(constRand(0)))

	st, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)
	require.Len(t, st.AvailableNPCs, 5)

	seen := make(map[string]bool)
	for i := 1; i <= 5; i++ {
		res, err := e.hunt.Hunt(ctx, testOwner)
		require.NoError(t, err)
		assert.False(t, seen[res.NPCID], "npc %s encountered twice", res.NPCID)
		seen[res.NPCID] = true
		assert.Equal(t, 5-i, res.Remaining)
		assert.Equal(t, i == 5, res.Exhausted)
		assert.False(t, res.PityTriggered)
	}

	_, err = e.hunt.Hunt(ctx, testOwner)
	assert.ErrorIs(t, err, model.ErrPoolExhausted)

	st, err = e.hunt.State(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, model.HuntPoolExhausted, st.Phase())
	assert.Equal(t, int64(1000+2000+4000+8000+16000), st.ConsumedCurrencyA)

	// 普通场不计入全服保底
	_, err = e.pity.Get(ctx, "advanced")
	assert.Equal(t, model.KindNotFound, model.KindOf(err))

	st, err = e.hunt.Reset(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)
	assert.Len(t, st.AvailableNPCs, 5)
	assert.Equal(t, int64(0), st.ConsumedCurrencyA)

	_, err = e.hunt.Hunt(ctx, testOwner)
	assert.NoError(t, err)
}

func TestHunt_RelicGoesToStorage(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(constRand(0)))
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)

	// n1 按稀有度从高到低第一个有权重的是玄魂
	res, err := e.hunt.Hunt(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, "n1", res.NPCID)
	assert.Equal(t, model.GradeMystic, res.Grade)
	require.NotNil(t, res.Relic)
	assert.Equal(t, 1, res.Relic.Level)
	assert.Equal(t, testOwner, res.Relic.OwnerID)
	assert.Equal(t, res.Template.ID, res.Relic.TemplateID)
	assert.Zero(t, res.SoldFor)

	n, err := e.storage.CountUnequipped(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 玄魂不发布公告
	assert.Empty(t, e.publisher.acquired)
}

func TestHunt_WasteAutoSold(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(lastRand{}))
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)

	res, err := e.hunt.Hunt(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, model.GradeWaste, res.Grade)
	assert.Nil(t, res.Relic)
	assert.Nil(t, res.Template)
	assert.Equal(t, int64(200), res.SoldFor)

	n, err := e.storage.CountUnequipped(ctx, testOwner)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHunt_StorageFull(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldAdvanced)
	require.NoError(t, err)
	_, _, err = e.pity.Increment(ctx, "advanced", 100, 1)
	require.NoError(t, err)
	e.fillStorage(t)

	_, err = e.hunt.Hunt(ctx, testOwner)
	assert.ErrorIs(t, err, model.ErrCapacity)

	// 会话和全服计数都未改变
	st, err := e.hunt.State(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, st.AvailableNPCs, 3)
	assert.Zero(t, st.ConsumedCurrencyB)
	c, err := e.pity.Get(ctx, "advanced")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Count)
}

func TestHunt_PityTrigger(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(constRand(0)))
	threshold, ok := e.holder.Catalog().PityThreshold("advanced")
	require.True(t, ok)

	// 其他玩家的猎魂推高全服计数
	for i := int64(0); i < threshold-2; i++ {
		_, triggered, err := e.pity.Increment(ctx, "advanced", threshold, 1)
		require.NoError(t, err)
		require.False(t, triggered)
	}

	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldAdvanced)
	require.NoError(t, err)

	res, err := e.hunt.Hunt(ctx, testOwner)
	require.NoError(t, err)
	assert.False(t, res.PityTriggered)
	assert.Equal(t, model.GradeHeaven, res.Grade)

	res, err = e.hunt.Hunt(ctx, testOwner)
	require.NoError(t, err)
	assert.True(t, res.PityTriggered)
	assert.Equal(t, model.GradeDragon, res.Grade)
	require.NotNil(t, res.Relic)
	assert.Equal(t, model.GradeDragon, res.Template.Grade)

	c, err := e.pity.Get(ctx, "advanced")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Count)
	// 1 (a1) + 2 (a2) + 其他玩家
	assert.Equal(t, threshold-2+3, c.LifetimeCurrencyConsumed)

	require.Len(t, e.publisher.pity, 1)
	assert.Equal(t, testOwner, e.publisher.pity[0].OwnerID)
	// 天魂和保底龙魂都会公告
	require.Len(t, e.publisher.acquired, 2)
	assert.True(t, e.publisher.acquired[1].PityTriggered)

	// 重置会话不影响全服计数
	_, err = e.hunt.Reset(ctx, testOwner, model.FieldAdvanced)
	require.NoError(t, err)
	res, err = e.hunt.Hunt(ctx, testOwner)
	require.NoError(t, err)
	assert.False(t, res.PityTriggered)
	c, err = e.pity.Get(ctx, "advanced")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Count)
}

func TestHunt_SelectSameFieldKeepsPool(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(constRand(0)))
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)
	_, err = e.hunt.Hunt(ctx, testOwner)
	require.NoError(t, err)

	st, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)
	assert.Len(t, st.AvailableNPCs, 4)
	assert.Equal(t, int64(1000), st.ConsumedCurrencyA)

	st, err = e.hunt.SelectField(ctx, testOwner, model.FieldAdvanced)
	require.NoError(t, err)
	assert.Len(t, st.AvailableNPCs, 3)
	assert.Zero(t, st.ConsumedCurrencyA)
}

func TestHunt_InvalidField(t *testing.T) {
	e := newEnv(t)
	_, err := e.hunt.SelectField(context.Background(), testOwner, model.FieldType("abyss"))
	assert.ErrorIs(t, err, model.ErrInvalidFieldType)
	_, err = e.hunt.Reset(context.Background(), testOwner, model.FieldNone)
	assert.ErrorIs(t, err, model.ErrInvalidFieldType)
}

func TestPityService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	c, err := e.pitySvc.Get(ctx, "advanced")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Count)
	assert.Equal(t, int64(100), c.Threshold)
	assert.Equal(t, int64(100), c.Remaining())

	for i := 0; i < 3; i++ {
		_, _, err := e.pity.Increment(ctx, "advanced", 100, 2)
		require.NoError(t, err)
	}
	c, err = e.pitySvc.Get(ctx, "advanced")
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Count)
	assert.Equal(t, int64(6), c.LifetimeCurrencyConsumed)

	require.NoError(t, e.pitySvc.Reset(ctx, "advanced"))
	c, err = e.pitySvc.Get(ctx, "advanced")
	require.NoError(t, err)
	assert.Zero(t, c.Count)
	assert.Zero(t, c.LifetimeCurrencyConsumed)

	_, err = e.pitySvc.Get(ctx, "unknown")
	assert.Equal(t, model.KindNotFound, model.KindOf(err))
}

// slowStorage 读取仓库后停顿，放大检查和写入之间的窗口
type slowStorage struct {
	repository.StorageProvider
	delay time.Duration
}

func (s *slowStorage) Get(ctx context.Context, ownerID int64) (*model.StorageView, error) {
	view, err := s.StorageProvider.Get(ctx, ownerID)
	time.Sleep(s.delay)
	return view, err
}

func TestHunt_ConcurrentUnequipRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(constRand(0)))
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)

	equipped := e.give(t, 101, 1)
	_, err = e.equip.Equip(ctx, testOwner, testCreature, equipped.ID)
	require.NoError(t, err)

	// 仓库只剩一个空位
	e.fillStorage(t)
	view, err := e.storage.Get(ctx, testOwner)
	require.NoError(t, err)
	require.NoError(t, e.relics.Delete(ctx, view.Relics[0].ID))
	capacity := view.Capacity

	storage := &slowStorage{StorageProvider: e.storage, delay: 20 * time.Millisecond}
	equip := NewEquipService(e.logger, e.holder, e.relics, e.slots, storage, e.locker, e.metrics)
	hunt := NewHuntService(e.logger, e.holder, e.states, repository.NewCompensatedPityStore(e.pity),
		e.relics, storage, e.locker, e.tx, e.publisher, e.metrics, WithRand(constRand(0)))

	var wg sync.WaitGroup
	var huntErr, unequipErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, huntErr = hunt.Hunt(ctx, testOwner)
	}()
	go func() {
		defer wg.Done()
		unequipErr = equip.Unequip(ctx, testOwner, testCreature, equipped.ID)
	}()
	wg.Wait()

	// 只有一个能占用最后的空位
	if huntErr == nil {
		assert.ErrorIs(t, unequipErr, model.ErrCapacity)
	} else {
		assert.ErrorIs(t, huntErr, model.ErrCapacity)
		assert.NoError(t, unequipErr)
	}
	n, err := e.storage.CountUnequipped(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, capacity, n)
}

func TestHunt_WriteFailureKeepsPity(t *testing.T) {
	tests := []struct {
		name   string
		relics func(e *env) repository.RelicStore
		states func(e *env) repository.HuntingStateStore
	}{
		{
			name:   "relic save fails",
			relics: func(e *env) repository.RelicStore { return &failingRelics{RelicStore: e.relics, failSave: true} },
			states: func(e *env) repository.HuntingStateStore { return e.states },
		},
		{
			name:   "state save fails",
			relics: func(e *env) repository.RelicStore { return e.relics },
			states: func(e *env) repository.HuntingStateStore { return failingStates{HuntingStateStore: e.states} },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			e := newEnv(t, WithRand(constRand(0)))
			threshold, ok := e.holder.Catalog().PityThreshold("advanced")
			require.True(t, ok)
			for i := int64(0); i < threshold-1; i++ {
				_, _, err := e.pity.Increment(ctx, "advanced", threshold, 1)
				require.NoError(t, err)
			}
			_, err := e.hunt.SelectField(ctx, testOwner, model.FieldAdvanced)
			require.NoError(t, err)

			broken := e.newHunt(tt.relics(e), tt.states(e), WithRand(constRand(0)))
			_, err = broken.Hunt(ctx, testOwner)
			assert.ErrorIs(t, err, errStoreDown)

			// 保底未被消耗，会话和仓库不变
			c, err := e.pity.Get(ctx, "advanced")
			require.NoError(t, err)
			assert.Equal(t, threshold-1, c.Count)
			assert.Equal(t, threshold-1, c.LifetimeCurrencyConsumed)
			st, err := e.hunt.State(ctx, testOwner)
			require.NoError(t, err)
			assert.Len(t, st.AvailableNPCs, 3)
			n, err := e.storage.CountUnequipped(ctx, testOwner)
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.Empty(t, e.publisher.pity)

			// 下一次成功的猎魂获得保底
			res, err := e.hunt.Hunt(ctx, testOwner)
			require.NoError(t, err)
			assert.True(t, res.PityTriggered)
			assert.Equal(t, model.GradeDragon, res.Grade)
		})
	}
}

func TestHunt_FieldWithoutPityRollsDragon(t *testing.T) {
	ctx := context.Background()
	l := logger.NewNoop()
	cat, err := gameconfig.Build(
		[]model.RelicTemplate{
			{ID: 1, Name: "yellow", Grade: model.GradeYellow, Effects: []model.Effect{{Attribute: model.AttrHP, Flat: 1}}},
			{ID: 2, Name: "dragon", Grade: model.GradeDragon, Effects: []model.Effect{{Attribute: model.AttrHP, Percent: 10}}},
		},
		nil, nil,
		[]gameconfig.HuntField{{
			Field: model.FieldNormal,
			NPCs: []gameconfig.HuntNPC{{
				ID: "n1", Cost: 10, Currency: model.CurrencyCopper,
				Weights: map[model.Grade]int{model.GradeDragon: 1000, model.GradeYellow: 1},
			}},
		}},
		nil,
	)
	require.NoError(t, err)
	holder := gameconfig.NewStaticHolder(cat)

	relics := memory.NewRelicStore(nil)
	players := memory.NewPlayerStore()
	players.SetVIP(testOwner, 0)
	m, err := metrics.New(metrics.DefaultConfig())
	require.NoError(t, err)
	svc := NewHuntService(l, holder, memory.NewHuntingStateStore(holder),
		repository.NewCompensatedPityStore(memory.NewPityStore()), relics,
		repository.NewStorageProvider(relics, players, holder), memory.NewLocker(),
		repository.NewLocalTransactor(l), events.NewNoopPublisher(), m, WithRand(constRand(0)))

	_, err = svc.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)
	res, err := svc.Hunt(ctx, testOwner)
	require.NoError(t, err)
	assert.False(t, res.PityTriggered)
	assert.Equal(t, model.GradeDragon, res.Grade)
	require.NotNil(t, res.Relic)
	assert.Equal(t, int32(2), res.Relic.TemplateID)
}

func TestHuntBatch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(constRand(0)))
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)

	// 候选池只有 5 个，提前结束
	batch, err := e.hunt.HuntBatch(ctx, testOwner, MaxBatchHunts)
	require.NoError(t, err)
	require.Len(t, batch.Hunts, 5)
	assert.Equal(t, BatchPoolExhausted, batch.Stopped)
	assert.Equal(t, int64(1000+2000+4000+8000+16000), batch.TotalCost[model.CurrencyCopper])
	assert.Equal(t, 5, batch.Obtained)
	assert.Zero(t, batch.TotalSold)
	total := 0
	for _, n := range batch.Grades {
		total += n
	}
	assert.Equal(t, 5, total)

	n, err := e.storage.CountUnequipped(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// 已耗尽时不再猎魂
	batch, err = e.hunt.HuntBatch(ctx, testOwner, 3)
	require.NoError(t, err)
	assert.Empty(t, batch.Hunts)
	assert.Equal(t, BatchPoolExhausted, batch.Stopped)
}

func TestHuntBatch_Limit(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(lastRand{}))
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)

	batch, err := e.hunt.HuntBatch(ctx, testOwner, 2)
	require.NoError(t, err)
	require.Len(t, batch.Hunts, 2)
	assert.Equal(t, BatchCompleted, batch.Stopped)
	// 全部是废魂，自动出售
	assert.Equal(t, 2, batch.Grades[model.GradeWaste])
	assert.Equal(t, int64(400), batch.TotalSold)
	assert.Zero(t, batch.Obtained)
}

func TestHuntBatch_StorageFull(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, WithRand(constRand(0)))
	_, err := e.hunt.SelectField(ctx, testOwner, model.FieldNormal)
	require.NoError(t, err)
	e.fillStorage(t)
	view, err := e.storage.Get(ctx, testOwner)
	require.NoError(t, err)
	require.NoError(t, e.relics.Delete(ctx, view.Relics[0].ID))

	batch, err := e.hunt.HuntBatch(ctx, testOwner, 0)
	require.NoError(t, err)
	require.Len(t, batch.Hunts, 1)
	assert.Equal(t, BatchStorageFull, batch.Stopped)

	st, err := e.hunt.State(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, st.AvailableNPCs, 4)
}
