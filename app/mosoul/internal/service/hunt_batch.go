package service

import (
	"context"
	"errors"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// MaxBatchHunts 一键猎魂的最大次数
const MaxBatchHunts = 10

// BatchStop 一键猎魂结束原因
type BatchStop string

const (
	BatchCompleted     BatchStop = "completed"
	BatchStorageFull   BatchStop = "storage_full"
	BatchPoolExhausted BatchStop = "pool_exhausted"
)

// BatchHuntResult 一键猎魂汇总
type BatchHuntResult struct {
	Hunts []*HuntResult
	// TotalCost 按货币汇总的消耗
	TotalCost map[model.Currency]int64
	// TotalSold 废魂自动出售获得的铜币
	TotalSold int64
	Obtained  int
	Grades    map[model.Grade]int
	Stopped   BatchStop
}

func (b *BatchHuntResult) add(res *HuntResult) {
	b.Hunts = append(b.Hunts, res)
	b.TotalCost[res.Currency] += res.Cost
	b.TotalSold += res.SoldFor
	b.Grades[res.Grade]++
	if res.Relic != nil {
		b.Obtained++
	}
}

// HuntBatch 一键猎魂，在一次加锁内连续猎魂最多 limit 次
// limit 不在 1..MaxBatchHunts 时按 MaxBatchHunts 处理
// 仓库已满或候选池耗尽时提前结束，不返回错误；其他错误返回已完成部分的汇总和错误
func (s *HuntService) HuntBatch(ctx context.Context, ownerID int64, limit int) (*BatchHuntResult, error) {
	if limit <= 0 || limit > MaxBatchHunts {
		limit = MaxBatchHunts
	}
	batch := &BatchHuntResult{
		TotalCost: make(map[model.Currency]int64),
		Grades:    make(map[model.Grade]int),
		Stopped:   BatchCompleted,
	}

	err := s.locker.WithLock(ctx, ownerLockKey(ownerID), func() error {
		for i := 0; i < limit; i++ {
			res, err := s.huntOnce(ctx, ownerID)
			switch {
			case model.KindOf(err) == model.KindCapacity:
				batch.Stopped = BatchStorageFull
				return nil
			case errors.Is(err, model.ErrPoolExhausted):
				batch.Stopped = BatchPoolExhausted
				return nil
			case err != nil:
				return err
			}
			batch.add(res)
			if res.Exhausted {
				if i < limit-1 {
					batch.Stopped = BatchPoolExhausted
				}
				return nil
			}
		}
		return nil
	})

	for _, res := range batch.Hunts {
		s.finish(ctx, ownerID, res)
	}
	if err != nil {
		return batch, err
	}

	s.logger.Info("batch hunt finished",
		"owner_id", ownerID,
		"hunts", len(batch.Hunts),
		"obtained", batch.Obtained,
		"stopped", batch.Stopped,
	)
	return batch, nil
}
