package dao

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/database/redis"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// KEYS[1] 计数器 hash; ARGV: threshold, cost, now(unix)
// 返回 {count, lifetime_currency_consumed, triggered}
var pityIncrScript = redis.NewScript(`
local threshold = tonumber(ARGV[1])
redis.call('HSET', KEYS[1], 'threshold', threshold, 'updated_at', ARGV[3])
local consumed = redis.call('HINCRBY', KEYS[1], 'lifetime_currency_consumed', ARGV[2])
local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
local triggered = 0
if count >= threshold then
	redis.call('HSET', KEYS[1], 'count', 0)
	count = 0
	triggered = 1
end
return {count, consumed, triggered}
`)

// KEYS[1] 计数器 hash; ARGV: now(unix)
var pityResetScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'count', 0, 'lifetime_currency_consumed', 0, 'updated_at', ARGV[1])
return 1
`)

// KEYS[1] 计数器 hash; ARGV: threshold, cost, triggered(0/1), now(unix)
// 撤销一次递增：触发过的恢复为阈值前一次，其间其他玩家的递增保留
var pityRevertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HINCRBY', KEYS[1], 'lifetime_currency_consumed', -tonumber(ARGV[2]))
if ARGV[3] == '1' then
	redis.call('HINCRBY', KEYS[1], 'count', tonumber(ARGV[1]) - 1)
elseif redis.call('HINCRBY', KEYS[1], 'count', -1) < 0 then
	redis.call('HSET', KEYS[1], 'count', 0)
end
redis.call('HSET', KEYS[1], 'updated_at', ARGV[4])
return 1
`)

// RedisPityDAO 全服保底计数器 (Redis)
// 递增和阈值判断在同一个 Lua 脚本内执行
type RedisPityDAO struct {
	redis  *redis.Client
	logger logger.Logger
}

// NewRedisPityDAO 创建 Redis 保底计数 DAO
func NewRedisPityDAO(rdb *redis.Client, l logger.Logger) *RedisPityDAO {
	return &RedisPityDAO{
		redis:  rdb,
		logger: l.Named("dao.pity_redis"),
	}
}

func (d *RedisPityDAO) key(key string) string {
	return d.redis.Key("relic", "pity", key)
}

// Get 查询计数器，不存在返回 NotFound
func (d *RedisPityDAO) Get(ctx context.Context, key string) (*model.PityCounter, error) {
	vals, err := d.redis.HGetAll(ctx, d.key(key))
	if err != nil {
		return nil, fmt.Errorf("failed to get pity counter: %w", err)
	}
	if len(vals) == 0 {
		return nil, model.NotFound("pity counter", key)
	}

	c := &model.PityCounter{Key: key}
	fields := map[string]*int64{
		"count":                      &c.Count,
		"threshold":                  &c.Threshold,
		"lifetime_currency_consumed": &c.LifetimeCurrencyConsumed,
	}
	for name, dst := range fields {
		if v, ok := vals[name]; ok {
			if *dst, err = strconv.ParseInt(v, 10, 64); err != nil {
				return nil, fmt.Errorf("invalid pity field %s=%q: %w", name, v, err)
			}
		}
	}
	if v, ok := vals["updated_at"]; ok {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.UpdatedAt = time.Unix(ts, 0)
		}
	}
	return c, nil
}

// Increment 原子递增，达到阈值时计数归零并返回 triggered
func (d *RedisPityDAO) Increment(ctx context.Context, key string, threshold, cost int64) (*model.PityCounter, bool, error) {
	now := time.Now()
	res, err := d.redis.Run(ctx, pityIncrScript, []string{d.key(key)}, threshold, cost, now.Unix())
	if err != nil {
		d.logger.Error("failed to increment pity counter",
			"key", key,
			"error", err,
		)
		return nil, false, fmt.Errorf("failed to increment pity counter: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 3 {
		return nil, false, fmt.Errorf("unexpected pity script result %v", res)
	}
	nums := make([]int64, 3)
	for i, v := range vals {
		n, ok := v.(int64)
		if !ok {
			return nil, false, fmt.Errorf("unexpected pity script result %v", res)
		}
		nums[i] = n
	}

	c := &model.PityCounter{
		Key:                      key,
		Count:                    nums[0],
		Threshold:                threshold,
		LifetimeCurrencyConsumed: nums[1],
		UpdatedAt:                time.Unix(now.Unix(), 0),
	}
	return c, nums[2] == 1, nil
}

// Revert 撤销一次 Increment，用于调用方后续写入失败时的补偿
func (d *RedisPityDAO) Revert(ctx context.Context, key string, threshold, cost int64, triggered bool) error {
	flag := 0
	if triggered {
		flag = 1
	}
	res, err := d.redis.Run(ctx, pityRevertScript, []string{d.key(key)}, threshold, cost, flag, time.Now().Unix())
	if err != nil {
		d.logger.Error("failed to revert pity counter",
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to revert pity counter: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return model.NotFound("pity counter", key)
	}
	d.logger.Warn("pity increment reverted",
		"key", key,
		"triggered", triggered,
	)
	return nil
}

// Reset 管理员重置：计数和累计消耗都清零
func (d *RedisPityDAO) Reset(ctx context.Context, key string) error {
	res, err := d.redis.Run(ctx, pityResetScript, []string{d.key(key)}, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to reset pity counter: %w", err)
	}
	if n, _ := res.(int64); n == 0 {
		return model.NotFound("pity counter", key)
	}
	d.logger.Info("pity counter reset", "key", key)
	return nil
}
