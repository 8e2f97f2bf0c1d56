package repository

import (
	"context"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// pityReverter 不参与数据库事务的计数器，需要能撤销一次递增
type pityReverter interface {
	PityStore
	Revert(ctx context.Context, key string, threshold, cost int64, triggered bool) error
}

// compensatedPityStore 在事务中递增时登记撤销，事务失败后保底不被消耗
type compensatedPityStore struct {
	pityReverter
}

// NewCompensatedPityStore 包装 Redis 或内存计数器，使其可用于 Transactor
func NewCompensatedPityStore(store pityReverter) PityStore {
	return &compensatedPityStore{pityReverter: store}
}

func (s *compensatedPityStore) Increment(ctx context.Context, key string, threshold, cost int64) (*model.PityCounter, bool, error) {
	c, triggered, err := s.pityReverter.Increment(ctx, key, threshold, cost)
	if err != nil {
		return nil, false, err
	}
	OnRollback(ctx, func(ctx context.Context) error {
		return s.Revert(ctx, key, threshold, cost, triggered)
	})
	return c, triggered, nil
}
