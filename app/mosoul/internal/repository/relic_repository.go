package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/dao"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/idgen"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// relicRepositoryImpl PostgreSQL + Redis 缓存的魔魂存储
// 玩家魔魂列表走缓存，写操作后删除缓存
type relicRepositoryImpl struct {
	relicDAO *dao.RelicDAO
	cacheDAO *dao.CacheDAO
	ids      idgen.Generator
	logger   logger.Logger

	// 同一玩家并发回源合并为一次查询
	loads singleflight.Group
}

// NewRelicRepository 创建魔魂存储
func NewRelicRepository(relicDAO *dao.RelicDAO, cacheDAO *dao.CacheDAO, ids idgen.Generator, l logger.Logger) RelicStore {
	return &relicRepositoryImpl{
		relicDAO: relicDAO,
		cacheDAO: cacheDAO,
		ids:      ids,
		logger:   l.Named("repository.relic"),
	}
}

func (r *relicRepositoryImpl) Get(ctx context.Context, id int64) (*model.Relic, error) {
	return r.relicDAO.GetByID(ctx, id)
}

// GetByOwner 获取玩家所有魔魂（优先从缓存）
// 事务内直接读库，未提交的数据不进入缓存
func (r *relicRepositoryImpl) GetByOwner(ctx context.Context, ownerID int64) ([]*model.Relic, error) {
	if InTransaction(ctx) {
		return r.relicDAO.ListByOwner(ctx, ownerID)
	}

	// 1. 先尝试从缓存获取
	relics, err := r.cacheDAO.GetRelics(ctx, ownerID)
	if err != nil {
		r.logger.Warn("failed to get relics from cache, fallback to db",
			"owner_id", ownerID,
			"error", err,
		)
	} else if relics != nil {
		return relics, nil
	}

	// 2. 缓存未命中，从数据库加载并回写缓存
	// 回源前记录版本，期间有写入则不回写
	v, err, _ := r.loads.Do(strconv.FormatInt(ownerID, 10), func() (any, error) {
		version, verErr := r.cacheDAO.RelicsVersion(ctx, ownerID)
		loaded, err := r.relicDAO.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load relics from db: %w", err)
		}
		if verErr != nil {
			r.logger.Warn("failed to get relics cache version, skip refill",
				"owner_id", ownerID,
				"error", verErr,
			)
			return loaded, nil
		}
		if _, err := r.cacheDAO.SetRelics(ctx, ownerID, loaded, version, 0); err != nil {
			r.logger.Warn("failed to set relics cache",
				"owner_id", ownerID,
				"error", err,
			)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	// 3. 共享结果复制后返回
	shared := v.([]*model.Relic)
	relics = make([]*model.Relic, len(shared))
	for i, rl := range shared {
		relics[i] = rl.Clone()
	}
	return relics, nil
}

func (r *relicRepositoryImpl) GetEquipped(ctx context.Context, creatureID int64) ([]*model.Relic, error) {
	return r.relicDAO.ListEquipped(ctx, creatureID)
}

// Save 写数据库 + 删除缓存
func (r *relicRepositoryImpl) Save(ctx context.Context, relic *model.Relic) (*model.Relic, error) {
	out := relic.Clone()
	if out.ID == 0 {
		id, err := r.ids.NextID()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate relic id: %w", err)
		}
		out.ID = id
		if out.CreatedAt.IsZero() {
			out.CreatedAt = time.Now()
		}
	}

	if err := r.relicDAO.Upsert(ctx, out); err != nil {
		return nil, err
	}
	r.invalidate(ctx, out.OwnerID)
	return out, nil
}

// SaveAll 在一个事务内写入
func (r *relicRepositoryImpl) SaveAll(ctx context.Context, relics []*model.Relic) error {
	if err := r.relicDAO.UpsertBatch(ctx, relics); err != nil {
		return err
	}
	owners := make(map[int64]struct{})
	for _, relic := range relics {
		owners[relic.OwnerID] = struct{}{}
	}
	for owner := range owners {
		r.invalidate(ctx, owner)
	}
	return nil
}

func (r *relicRepositoryImpl) Update(ctx context.Context, id int64, u model.RelicUpdate) (*model.Relic, error) {
	relic, err := r.relicDAO.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, relic.OwnerID)
	return relic, nil
}

func (r *relicRepositoryImpl) Delete(ctx context.Context, id int64) error {
	relic, err := r.relicDAO.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.relicDAO.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, relic.OwnerID)
	return nil
}

func (r *relicRepositoryImpl) DeleteBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	owners := make(map[int64]struct{})
	for _, id := range ids {
		relic, err := r.relicDAO.GetByID(ctx, id)
		if err != nil {
			return err
		}
		owners[relic.OwnerID] = struct{}{}
	}
	if _, err := r.relicDAO.DeleteBatch(ctx, ids); err != nil {
		return err
	}
	for owner := range owners {
		r.invalidate(ctx, owner)
	}
	return nil
}

func (r *relicRepositoryImpl) CountUnequipped(ctx context.Context, ownerID int64) (int, error) {
	return r.relicDAO.CountUnequipped(ctx, ownerID)
}

// invalidate 写入生效后删除缓存，事务中推迟到提交之后
func (r *relicRepositoryImpl) invalidate(ctx context.Context, ownerID int64) {
	AfterCommit(ctx, func(ctx context.Context) {
		if err := r.cacheDAO.DeleteRelics(ctx, ownerID); err != nil {
			r.logger.Warn("failed to delete relics cache after write",
				"owner_id", ownerID,
				"error", err,
			)
		}
	})
}
