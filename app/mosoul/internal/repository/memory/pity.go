package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
)

var _ repository.PityStore = (*PityStore)(nil)

// PityStore 内存全服保底计数器，互斥锁保证递增原子性
type PityStore struct {
	mu       sync.Mutex
	counters map[string]*model.PityCounter
}

// NewPityStore 创建内存保底计数器
func NewPityStore() *PityStore {
	return &PityStore{counters: make(map[string]*model.PityCounter)}
}

func (s *PityStore) Get(ctx context.Context, key string) (*model.PityCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok {
		return nil, model.NotFound("pity counter", key)
	}
	cp := *c
	return &cp, nil
}

func (s *PityStore) Increment(ctx context.Context, key string, threshold, cost int64) (*model.PityCounter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok {
		c = &model.PityCounter{Key: key}
		s.counters[key] = c
	}
	c.Threshold = threshold
	c.LifetimeCurrencyConsumed += cost
	c.Count++
	c.UpdatedAt = time.Now()

	triggered := c.Count >= threshold
	if triggered {
		c.Count = 0
	}
	cp := *c
	return &cp, triggered, nil
}

// Revert 撤销一次递增，触发过的恢复为阈值前一次
func (s *PityStore) Revert(ctx context.Context, key string, threshold, cost int64, triggered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok {
		return model.NotFound("pity counter", key)
	}
	c.LifetimeCurrencyConsumed -= cost
	if triggered {
		c.Count += threshold - 1
	} else if c.Count > 0 {
		c.Count--
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (s *PityStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok {
		return model.NotFound("pity counter", key)
	}
	c.Count = 0
	c.LifetimeCurrencyConsumed = 0
	c.UpdatedAt = time.Now()
	return nil
}
