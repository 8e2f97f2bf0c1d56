package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/events"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/gameconfig"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository/memory"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

const (
	testOwner    int64 = 1
	testCreature int64 = 10
)

// constRand 总是返回 v % n
type constRand int

func (r constRand) IntN(n int) int { return int(r) % n }

// lastRand 总是返回 n-1
type lastRand struct{}

func (lastRand) IntN(n int) int { return n - 1 }

type recordingPublisher struct {
	mu       sync.Mutex
	acquired []*events.RelicAcquired
	pity     []*events.PityTriggered
}

func (p *recordingPublisher) RelicAcquired(ctx context.Context, e *events.RelicAcquired) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired = append(p.acquired, e)
	return nil
}

func (p *recordingPublisher) PityTriggered(ctx context.Context, e *events.PityTriggered) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pity = append(p.pity, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type env struct {
	holder    *gameconfig.Holder
	relics    *memory.RelicStore
	players   *memory.PlayerStore
	states    *memory.HuntingStateStore
	pity      *memory.PityStore
	storage   repository.StorageProvider
	slots     repository.SlotProvider
	publisher *recordingPublisher
	logger    logger.Logger
	metrics   *metrics.RelicMetrics
	locker    repository.Locker
	tx        repository.Transactor

	equip   *EquipService
	upgrade *UpgradeService
	hunt    *HuntService
	pitySvc *PityService
}

func newEnv(t *testing.T, opts ...HuntOption) *env {
	t.Helper()
	l := logger.NewNoop()

	cat, err := gameconfig.Load("../../configs/data", l)
	require.NoError(t, err)
	holder := gameconfig.NewStaticHolder(cat)

	m, err := metrics.New(metrics.DefaultConfig())
	require.NoError(t, err)

	e := &env{
		holder:    holder,
		relics:    memory.NewRelicStore(nil),
		players:   memory.NewPlayerStore(),
		states:    memory.NewHuntingStateStore(holder),
		pity:      memory.NewPityStore(),
		publisher: &recordingPublisher{},
	}
	e.players.SetVIP(testOwner, 0)
	e.players.PutCreature(model.Creature{ID: testCreature, OwnerID: testOwner, Level: 40})
	e.storage = repository.NewStorageProvider(e.relics, e.players, holder)
	e.slots = repository.NewSlotProvider(e.relics, e.players)

	e.logger, e.metrics = l, m
	e.locker = memory.NewLocker()
	e.tx = repository.NewLocalTransactor(l)
	e.equip = NewEquipService(l, holder, e.relics, e.slots, e.storage, e.locker, m)
	e.upgrade = NewUpgradeService(l, holder, e.relics, e.locker, e.tx, m)
	e.hunt = e.newHunt(e.relics, e.states, opts...)
	e.pitySvc = NewPityService(l, holder, e.pity)
	return e
}

// newHunt 使用指定的魔魂和会话存储创建猎魂服务
func (e *env) newHunt(relics repository.RelicStore, states repository.HuntingStateStore, opts ...HuntOption) *HuntService {
	return NewHuntService(e.logger, e.holder, states, repository.NewCompensatedPityStore(e.pity),
		relics, e.storage, e.locker, e.tx, e.publisher, e.metrics, opts...)
}

var errStoreDown = errors.New("store down")

// failingRelics 指定操作返回错误，其余转发
type failingRelics struct {
	repository.RelicStore
	failSave, failDelete, failUpdate bool
}

func (f *failingRelics) Save(ctx context.Context, r *model.Relic) (*model.Relic, error) {
	if f.failSave {
		return nil, errStoreDown
	}
	return f.RelicStore.Save(ctx, r)
}

func (f *failingRelics) Update(ctx context.Context, id int64, u model.RelicUpdate) (*model.Relic, error) {
	if f.failUpdate {
		return nil, errStoreDown
	}
	return f.RelicStore.Update(ctx, id, u)
}

func (f *failingRelics) DeleteBatch(ctx context.Context, ids []int64) error {
	if f.failDelete {
		return errStoreDown
	}
	return f.RelicStore.DeleteBatch(ctx, ids)
}

// failingStates 保存会话失败
type failingStates struct {
	repository.HuntingStateStore
}

func (failingStates) Save(context.Context, *model.HuntingState) error { return errStoreDown }

// give 向玩家仓库放入一个魔魂
func (e *env) give(t *testing.T, templateID int32, level int) *model.Relic {
	t.Helper()
	r, err := e.relics.Save(context.Background(), &model.Relic{OwnerID: testOwner, TemplateID: templateID, Level: level})
	require.NoError(t, err)
	return r
}

// fillStorage 将仓库填满
func (e *env) fillStorage(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	n, err := e.storage.CountUnequipped(ctx, testOwner)
	require.NoError(t, err)
	capacity := e.holder.StorageCapacity(0)
	for ; n < capacity; n++ {
		e.give(t, 102, 1)
	}
}
