// Package memory 进程内存储实现，用于单机部署和测试
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
	"github.com/lk2023060901/mosoul/pkg/idgen"
)

var _ repository.RelicStore = (*RelicStore)(nil)

// RelicStore 内存魔魂存储，读写都返回副本
type RelicStore struct {
	mu     sync.RWMutex
	relics map[int64]*model.Relic
	// equipSeq 记录装备顺序，同一时刻装备的魔魂也能稳定排序
	equipSeq map[int64]uint64
	seq      uint64
	ids      idgen.Generator
	now      func() time.Time
}

// NewRelicStore 创建内存魔魂存储，ids 为 nil 时从 1 开始分配
func NewRelicStore(ids idgen.Generator) *RelicStore {
	if ids == nil {
		ids = idgen.NewSequence(1)
	}
	return &RelicStore{
		relics:   make(map[int64]*model.Relic),
		equipSeq: make(map[int64]uint64),
		ids:      ids,
		now:      time.Now,
	}
}

func (s *RelicStore) Get(ctx context.Context, id int64) (*model.Relic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.relics[id]
	if !ok {
		return nil, model.NotFound("relic", id)
	}
	return r.Clone(), nil
}

func (s *RelicStore) GetByOwner(ctx context.Context, ownerID int64) ([]*model.Relic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Relic, 0)
	for _, r := range s.relics {
		if r.OwnerID == ownerID {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *RelicStore) GetEquipped(ctx context.Context, creatureID int64) ([]*model.Relic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Relic, 0)
	for _, r := range s.relics {
		if r.IsEquippedTo(creatureID) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := s.equipSeq[out[i].ID], s.equipSeq[out[j].ID]
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *RelicStore) Save(ctx context.Context, r *model.Relic) (*model.Relic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, r)
}

// SaveAll 一次性写入，任一分配 ID 失败则不写入
func (s *RelicStore) SaveAll(ctx context.Context, relics []*model.Relic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range relics {
		if _, err := s.saveLocked(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (s *RelicStore) saveLocked(ctx context.Context, r *model.Relic) (*model.Relic, error) {
	out := r.Clone()
	if out.ID == 0 {
		id, err := s.ids.NextID()
		if err != nil {
			return nil, err
		}
		out.ID = id
		if out.CreatedAt.IsZero() {
			out.CreatedAt = s.now()
		}
	}
	s.remember(ctx, out.ID)
	prev, existed := s.relics[out.ID]
	if out.EquippedTo != nil && (!existed || !prev.IsEquippedTo(*out.EquippedTo)) {
		s.seq++
		s.equipSeq[out.ID] = s.seq
	}
	s.relics[out.ID] = out
	return out.Clone(), nil
}

func (s *RelicStore) Update(ctx context.Context, id int64, u model.RelicUpdate) (*model.Relic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.relics[id]
	if !ok {
		return nil, model.NotFound("relic", id)
	}
	s.remember(ctx, id)
	u.Apply(r, s.now())
	if u.EquippedTo.IsSet() {
		s.seq++
		s.equipSeq[id] = s.seq
	} else if u.EquippedTo.IsClear() {
		delete(s.equipSeq, id)
	}
	return r.Clone(), nil
}

func (s *RelicStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relics[id]; !ok {
		return model.NotFound("relic", id)
	}
	s.remember(ctx, id)
	delete(s.relics, id)
	delete(s.equipSeq, id)
	return nil
}

// DeleteBatch 忽略不存在的 ID
func (s *RelicStore) DeleteBatch(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.relics[id]; ok {
			s.remember(ctx, id)
		}
		delete(s.relics, id)
		delete(s.equipSeq, id)
	}
	return nil
}

// remember 事务中登记撤销，恢复 id 本次写入前的状态，调用方持有写锁
func (s *RelicStore) remember(ctx context.Context, id int64) {
	if !repository.InTransaction(ctx) {
		return
	}
	var snapshot *model.Relic
	if prev, ok := s.relics[id]; ok {
		snapshot = prev.Clone()
	}
	seq, hadSeq := s.equipSeq[id]
	repository.OnRollback(ctx, func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if snapshot == nil {
			delete(s.relics, id)
		} else {
			s.relics[id] = snapshot.Clone()
		}
		if hadSeq {
			s.equipSeq[id] = seq
		} else {
			delete(s.equipSeq, id)
		}
		return nil
	})
}

func (s *RelicStore) CountUnequipped(ctx context.Context, ownerID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.relics {
		if r.OwnerID == ownerID && r.InStorage() {
			n++
		}
	}
	return n, nil
}
