package dao

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/metrics"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/database/redis"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// 魔魂列表缓存 TTL
const relicCacheTTL = 30 * time.Minute

// CacheDAO 缓存数据访问对象
type CacheDAO struct {
	redis   *redis.Client
	logger  logger.Logger
	metrics *metrics.RelicMetrics
}

// NewCacheDAO 创建缓存 DAO
func NewCacheDAO(rdb *redis.Client, l logger.Logger, m *metrics.RelicMetrics) *CacheDAO {
	return &CacheDAO{
		redis:   rdb,
		logger:  l.Named("dao.cache"),
		metrics: m,
	}
}

func (d *CacheDAO) relicsKey(ownerID int64) string {
	return d.redis.Key("cache", "relic", strconv.FormatInt(ownerID, 10))
}

// GetRelics 从缓存获取玩家魔魂列表，未命中返回 nil, nil
func (d *CacheDAO) GetRelics(ctx context.Context, ownerID int64) ([]*model.Relic, error) {
	relics, err := redis.GetObject[[]*model.Relic](ctx, d.redis, d.relicsKey(ownerID))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			d.metrics.RecordCacheMiss("redis")
			return nil, nil
		}
		d.logger.Error("failed to get relics from cache",
			"owner_id", ownerID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get relics from cache: %w", err)
	}

	d.metrics.RecordCacheHit("redis")
	if *relics == nil {
		return []*model.Relic{}, nil
	}
	return *relics, nil
}

// KEYS[1] 列表缓存, KEYS[2] 版本号; ARGV: 读取前的版本, 数据, ttl(ms)
// 读取数据库期间发生过失效则放弃写入
var relicSetScript = redis.NewScript(`
local v = redis.call('GET', KEYS[2]) or '0'
if v ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// KEYS: 成对的 列表缓存, 版本号; ARGV: 版本号 ttl(ms)
var relicInvalidateScript = redis.NewScript(`
local n = 0
for i = 1, #KEYS, 2 do
	n = n + redis.call('DEL', KEYS[i])
	redis.call('INCR', KEYS[i + 1])
	redis.call('PEXPIRE', KEYS[i + 1], ARGV[1])
end
return n
`)

func (d *CacheDAO) versionKey(ownerID int64) string {
	return d.redis.Key("cache", "relic", "ver", strconv.FormatInt(ownerID, 10))
}

// RelicsVersion 回源前读取缓存版本，传给 SetRelics
func (d *CacheDAO) RelicsVersion(ctx context.Context, ownerID int64) (string, error) {
	v, err := d.redis.Get(ctx, d.versionKey(ownerID))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return "0", nil
		}
		return "", fmt.Errorf("failed to get relics cache version: %w", err)
	}
	return v, nil
}

// SetRelics 版本未变时设置玩家魔魂列表缓存，返回是否写入
func (d *CacheDAO) SetRelics(ctx context.Context, ownerID int64, relics []*model.Relic, version string, ttl time.Duration) (bool, error) {
	if ttl == 0 {
		ttl = relicCacheTTL
	}
	if relics == nil {
		relics = []*model.Relic{}
	}
	data, err := d.redis.Serializer().Marshal(relics)
	if err != nil {
		return false, fmt.Errorf("failed to marshal relics: %w", err)
	}

	res, err := d.redis.Run(ctx, relicSetScript,
		[]string{d.relicsKey(ownerID), d.versionKey(ownerID)},
		version, data, ttl.Milliseconds(),
	)
	if err != nil {
		d.logger.Error("failed to set relics cache",
			"owner_id", ownerID,
			"error", err,
		)
		return false, fmt.Errorf("failed to set relics cache: %w", err)
	}
	n, _ := res.(int64)
	return n == 1, nil
}

// DeleteRelics 删除玩家魔魂列表缓存并递增版本，进行中的回源不会写回旧数据
func (d *CacheDAO) DeleteRelics(ctx context.Context, ownerIDs ...int64) error {
	if len(ownerIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, 2*len(ownerIDs))
	for _, id := range ownerIDs {
		keys = append(keys, d.relicsKey(id), d.versionKey(id))
	}

	res, err := d.redis.Run(ctx, relicInvalidateScript, keys, (2 * relicCacheTTL).Milliseconds())
	if err != nil {
		d.logger.Error("failed to delete relics cache",
			"owner_ids", ownerIDs,
			"error", err,
		)
		return fmt.Errorf("failed to delete relics cache: %w", err)
	}

	d.logger.Debug("deleted relics cache",
		"owner_ids", ownerIDs,
		"deleted_count", res,
	)
	return nil
}
