package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/events"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/hunting"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// globalRand 使用 math/rand/v2 的全局源，并发安全
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// HuntOption 猎魂服务选项
type HuntOption func(*HuntService)

// WithRand 替换随机源
func WithRand(r hunting.Rand) HuntOption {
	return func(s *HuntService) { s.rand = r }
}

// WithClock 替换时间源
func WithClock(now func() time.Time) HuntOption {
	return func(s *HuntService) { s.now = now }
}

// HuntService 猎魂服务
type HuntService struct {
	logger    logger.Logger
	catalog   CatalogSource
	states    repository.HuntingStateStore
	pity      repository.PityStore
	relics    repository.RelicStore
	storage   repository.StorageProvider
	locker    repository.Locker
	tx        repository.Transactor
	publisher events.Publisher
	metrics   *metrics.RelicMetrics
	rand      hunting.Rand
	now       func() time.Time
}

func NewHuntService(
	l logger.Logger,
	catalog CatalogSource,
	states repository.HuntingStateStore,
	pity repository.PityStore,
	relics repository.RelicStore,
	storage repository.StorageProvider,
	locker repository.Locker,
	tx repository.Transactor,
	publisher events.Publisher,
	m *metrics.RelicMetrics,
	opts ...HuntOption,
) *HuntService {
	s := &HuntService{
		logger:    l.Named("service.hunt"),
		catalog:   catalog,
		states:    states,
		pity:      pity,
		relics:    relics,
		storage:   storage,
		locker:    locker,
		tx:        tx,
		publisher: publisher,
		metrics:   m,
		rand:      globalRand{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HuntResult 一次猎魂的结果
type HuntResult struct {
	Field    model.FieldType
	NPCID    string
	Cost     int64
	Currency model.Currency
	Grade    model.Grade
	Template *model.RelicTemplate // 废魂为 nil
	Relic    *model.Relic         // 废魂为 nil
	// SoldFor 废魂自动出售获得的铜币
	SoldFor       int64
	PityTriggered bool
	// Remaining 本轮剩余候选数
	Remaining int
	Exhausted bool

	counter *model.PityCounter
}

// State 玩家猎魂状态，从未猎魂时返回 Idle 状态
func (s *HuntService) State(ctx context.Context, ownerID int64) (*model.HuntingState, error) {
	st, err := s.states.Get(ctx, ownerID)
	if errors.Is(err, model.ErrNotFound) {
		return model.NewHuntingState(ownerID), nil
	}
	return st, err
}

// SelectField 选择猎魂场，切换场地会重置候选池和本轮消耗
func (s *HuntService) SelectField(ctx context.Context, ownerID int64, ft model.FieldType) (*model.HuntingState, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidFieldType, ft)
	}
	var st *model.HuntingState
	err := s.locker.WithLock(ctx, ownerLockKey(ownerID), func() error {
		pool, err := s.catalog.Catalog().FieldPool(ft)
		if err != nil {
			return err
		}
		st, err = s.State(ctx, ownerID)
		if err != nil {
			return err
		}
		changed, err := hunting.SelectField(st, ft, pool, s.now())
		if err != nil || !changed {
			return err
		}
		return s.states.Save(ctx, st)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Reset 重新填充候选池，全服保底计数不受影响
func (s *HuntService) Reset(ctx context.Context, ownerID int64, ft model.FieldType) (*model.HuntingState, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidFieldType, ft)
	}
	var st *model.HuntingState
	err := s.locker.WithLock(ctx, ownerLockKey(ownerID), func() error {
		var err error
		st, err = s.states.Reset(ctx, ownerID, ft)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("hunting pool reset", "owner_id", ownerID, "field", ft)
	return st, nil
}

// Hunt 猎魂一次
// 与装备、升级共用玩家锁，仓库空位检查和入库之间不会插入其他写入
func (s *HuntService) Hunt(ctx context.Context, ownerID int64) (*HuntResult, error) {
	var res *HuntResult
	err := s.locker.WithLock(ctx, ownerLockKey(ownerID), func() error {
		var err error
		res, err = s.huntOnce(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.finish(ctx, ownerID, res)
	return res, nil
}

// huntOnce 调用方持有玩家锁
// 保底递增、魔魂入库和会话保存在同一事务中，任一失败则全部撤销
func (s *HuntService) huntOnce(ctx context.Context, ownerID int64) (*HuntResult, error) {
	now := s.now()
	cat := s.catalog.Catalog()

	// 1. 取出下一个候选，未持久化前不影响已保存的状态
	cur, err := s.State(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	st := cur.Clone()
	npcID, err := hunting.Next(st, now)
	if err != nil {
		return nil, err
	}

	fieldCfg, err := cat.Field(st.FieldType)
	if err != nil {
		return nil, err
	}
	npc, ok := fieldCfg.NPC(npcID)
	if !ok {
		return nil, model.NotFound("hunt npc", npcID)
	}

	// 2. 仓库至少留出一个空位
	view, err := s.storage.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if view.Full() {
		return nil, model.Capacity("storage full (%d/%d), cannot hunt", len(view.Relics), view.Capacity)
	}

	// 3. 记录消耗
	hunting.Charge(st, npc.Currency, npc.Cost)
	res := &HuntResult{
		Field:    st.FieldType,
		NPCID:    npcID,
		Cost:     npc.Cost,
		Currency: npc.Currency,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		// 4. 全服保底
		if fieldCfg.PityKey != "" {
			threshold, _ := cat.PityThreshold(fieldCfg.PityKey)
			var err error
			res.counter, res.PityTriggered, err = s.pity.Increment(ctx, fieldCfg.PityKey, threshold, npc.Cost)
			if err != nil {
				return fmt.Errorf("failed to increment pity counter: %w", err)
			}
		}

		// 5. 决定品阶，保底场的龙魂只由保底产出
		if res.PityTriggered {
			res.Grade = model.GradeDragon
		} else {
			res.Grade, _ = hunting.RollGrade(s.rand, npc.Weights, fieldCfg.PityKey != "")
		}

		// 6. 废魂自动出售，其余入库
		if res.Grade == model.GradeWaste {
			res.SoldFor = fieldCfg.WasteSellCopper
		} else {
			tpl, ok := hunting.PickTemplate(s.rand, cat.TemplatesByGrade(res.Grade))
			if !ok {
				return fmt.Errorf("no relic template for grade %s", res.Grade)
			}
			res.Template = tpl
			relic, err := s.relics.Save(ctx, &model.Relic{
				OwnerID:    ownerID,
				TemplateID: tpl.ID,
				Level:      1,
				CreatedAt:  now,
			})
			if err != nil {
				return fmt.Errorf("failed to save hunted relic: %w", err)
			}
			res.Relic = relic
		}

		// 7. 保存会话
		if err := s.states.Save(ctx, st); err != nil {
			return fmt.Errorf("failed to save hunting state: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("hunt rolled back",
			"owner_id", ownerID,
			"field", res.Field,
			"npc", npcID,
			"error", err,
		)
		return nil, err
	}

	res.Remaining = len(st.AvailableNPCs)
	res.Exhausted = st.Phase() == model.HuntPoolExhausted
	return res, nil
}

// finish 记录指标、发布事件，在释放锁之后执行
func (s *HuntService) finish(ctx context.Context, ownerID int64, res *HuntResult) {
	s.metrics.RecordHunt(string(res.Field), res.Grade.String())
	s.announce(ctx, ownerID, res)

	s.logger.Info("hunt finished",
		"owner_id", ownerID,
		"field", res.Field,
		"npc", res.NPCID,
		"grade", res.Grade,
		"pity", res.PityTriggered,
		"remaining", res.Remaining,
	)
}

// announce 发布事件，失败只记录日志
func (s *HuntService) announce(ctx context.Context, ownerID int64, res *HuntResult) {
	now := s.now()
	if counter := res.counter; res.PityTriggered && counter != nil {
		s.metrics.RecordPityTrigger(counter.Key)
		if err := s.publisher.PityTriggered(ctx, &events.PityTriggered{
			Key:      counter.Key,
			OwnerID:  ownerID,
			Consumed: counter.LifetimeCurrencyConsumed,
			At:       now,
		}); err != nil {
			s.logger.Warn("failed to publish pity event", "owner_id", ownerID, "error", err)
		}
	}
	if res.Relic == nil || (!res.PityTriggered && res.Grade < model.GradeHeaven) {
		return
	}
	if err := s.publisher.RelicAcquired(ctx, &events.RelicAcquired{
		OwnerID:       ownerID,
		RelicID:       res.Relic.ID,
		TemplateID:    res.Template.ID,
		Grade:         res.Grade,
		Field:         res.Field,
		NPCID:         res.NPCID,
		PityTriggered: res.PityTriggered,
		At:            now,
	}); err != nil {
		s.logger.Warn("failed to publish relic event", "owner_id", ownerID, "error", err)
	}
}
