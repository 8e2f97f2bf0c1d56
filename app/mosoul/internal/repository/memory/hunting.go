package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/hunting"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
)

var _ repository.HuntingStateStore = (*HuntingStateStore)(nil)

// HuntingStateStore 内存猎魂状态存储
type HuntingStateStore struct {
	mu     sync.Mutex
	states map[int64]*model.HuntingState
	pools  repository.PoolSource
}

// NewHuntingStateStore 创建内存猎魂状态存储
func NewHuntingStateStore(pools repository.PoolSource) *HuntingStateStore {
	return &HuntingStateStore{
		states: make(map[int64]*model.HuntingState),
		pools:  pools,
	}
}

func (s *HuntingStateStore) Get(ctx context.Context, ownerID int64) (*model.HuntingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[ownerID]
	if !ok {
		return nil, model.NotFound("hunting state", ownerID)
	}
	return st.Clone(), nil
}

func (s *HuntingStateStore) Save(ctx context.Context, st *model.HuntingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remember(ctx, st.OwnerID)
	s.states[st.OwnerID] = st.Clone()
	return nil
}

func (s *HuntingStateStore) Reset(ctx context.Context, ownerID int64, ft model.FieldType) (*model.HuntingState, error) {
	pool, err := s.pools.FieldPool(ft)
	if err != nil {
		return nil, err
	}
	st := model.NewHuntingState(ownerID)
	if err := hunting.Reset(st, ft, pool, time.Now()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.remember(ctx, ownerID)
	s.states[ownerID] = st.Clone()
	return st, nil
}

// remember 事务中登记撤销，调用方持有锁
func (s *HuntingStateStore) remember(ctx context.Context, ownerID int64) {
	if !repository.InTransaction(ctx) {
		return
	}
	prev, existed := s.states[ownerID]
	if existed {
		prev = prev.Clone()
	}
	repository.OnRollback(ctx, func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.states[ownerID] = prev
		} else {
			delete(s.states, ownerID)
		}
		return nil
	})
}
