package service

import (
	"context"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// PityService 全服保底查询和管理
type PityService struct {
	logger  logger.Logger
	catalog CatalogSource
	pity    repository.PityStore
}

func NewPityService(l logger.Logger, catalog CatalogSource, pity repository.PityStore) *PityService {
	return &PityService{
		logger:  l.Named("service.pity"),
		catalog: catalog,
		pity:    pity,
	}
}

// Get 读取计数器，从未触发过递增时返回零值计数器
func (s *PityService) Get(ctx context.Context, key string) (*model.PityCounter, error) {
	threshold, ok := s.catalog.Catalog().PityThreshold(key)
	c, err := s.pity.Get(ctx, key)
	if err != nil {
		if !ok || model.KindOf(err) != model.KindNotFound {
			return nil, err
		}
		c = &model.PityCounter{Key: key}
	}
	if ok {
		c.Threshold = threshold
	}
	return c, nil
}

// Reset 管理员重置，计数和累计消耗都清零
func (s *PityService) Reset(ctx context.Context, key string) error {
	if err := s.pity.Reset(ctx, key); err != nil {
		return err
	}
	s.logger.Warn("pity counter reset by admin", "key", key)
	return nil
}
