package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/repository"
)

var _ repository.PlayerProvider = (*PlayerStore)(nil)

// PlayerStore 内存玩家和魔宠数据
type PlayerStore struct {
	mu        sync.RWMutex
	vip       map[int64]int
	creatures map[int64]*model.Creature
}

// NewPlayerStore 创建内存玩家数据
func NewPlayerStore() *PlayerStore {
	return &PlayerStore{
		vip:       make(map[int64]int),
		creatures: make(map[int64]*model.Creature),
	}
}

// SetVIP 设置玩家 VIP 等级，同时登记玩家
func (s *PlayerStore) SetVIP(ownerID int64, vip int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vip[ownerID] = vip
}

// PutCreature 添加或更新魔宠
func (s *PlayerStore) PutCreature(c model.Creature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vip[c.OwnerID]; !ok {
		s.vip[c.OwnerID] = 0
	}
	s.creatures[c.ID] = &c
}

func (s *PlayerStore) VIPTier(ctx context.Context, ownerID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vip, ok := s.vip[ownerID]
	if !ok {
		return 0, model.NotFound("player", ownerID)
	}
	return vip, nil
}

func (s *PlayerStore) Creature(ctx context.Context, creatureID int64) (*model.Creature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creatures[creatureID]
	if !ok {
		return nil, model.NotFound("creature", creatureID)
	}
	cp := *c
	return &cp, nil
}

func (s *PlayerStore) Creatures(ctx context.Context, ownerID int64) ([]*model.Creature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Creature
	for _, c := range s.creatures {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
