package repository

import (
	"context"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/dao"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/hunting"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// huntingRepositoryImpl PostgreSQL 猎魂状态存储
type huntingRepositoryImpl struct {
	huntingDAO *dao.HuntingDAO
	pools      PoolSource
	logger     logger.Logger
}

// NewHuntingRepository 创建猎魂状态存储
func NewHuntingRepository(huntingDAO *dao.HuntingDAO, pools PoolSource, l logger.Logger) HuntingStateStore {
	return &huntingRepositoryImpl{
		huntingDAO: huntingDAO,
		pools:      pools,
		logger:     l.Named("repository.hunting"),
	}
}

func (r *huntingRepositoryImpl) Get(ctx context.Context, ownerID int64) (*model.HuntingState, error) {
	return r.huntingDAO.Get(ctx, ownerID)
}

func (r *huntingRepositoryImpl) Save(ctx context.Context, s *model.HuntingState) error {
	return r.huntingDAO.Save(ctx, s)
}

func (r *huntingRepositoryImpl) Reset(ctx context.Context, ownerID int64, ft model.FieldType) (*model.HuntingState, error) {
	pool, err := r.pools.FieldPool(ft)
	if err != nil {
		return nil, err
	}
	s := model.NewHuntingState(ownerID)
	if err := hunting.Reset(s, ft, pool, time.Now()); err != nil {
		return nil, err
	}
	if err := r.huntingDAO.Save(ctx, s); err != nil {
		return nil, err
	}
	r.logger.Debug("hunting state reset", "owner_id", ownerID, "field", ft, "pool", len(pool))
	return s, nil
}
