package metrics

import (
	"fmt"

	"github.com/lk2023060901/mosoul/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
)

// Config 指标配置
type Config struct {
	// Namespace 指标命名空间
	Namespace string `mapstructure:"namespace" json:"namespace" yaml:"namespace"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace: "mosoul",
	}
}

// RelicMetrics 魔魂服务指标
type RelicMetrics struct {
	config *Config

	// 数据库指标
	DBQueryTotal    *prometheus.CounterVec   // 数据库查询总数（按操作、结果）
	DBQueryDuration *prometheus.HistogramVec // 数据库查询延迟

	// 缓存指标
	CacheHitTotal  *prometheus.CounterVec // 缓存命中（按缓存类型）
	CacheMissTotal *prometheus.CounterVec // 缓存未命中（按缓存类型）

	// 业务指标
	HuntTotal        *prometheus.CounterVec // 猎魂次数（按场地、品阶）
	PityTriggerTotal *prometheus.CounterVec // 全服保底触发次数（按 key）
	EquipTotal       *prometheus.CounterVec // 装备/卸下（按操作、结果）
	LevelUpTotal     prometheus.Counter     // 魔魂升级总级数

	// 全服保底进度，由定时任务刷新
	PityCount         *prometheus.GaugeVec
	PityRemaining     *prometheus.GaugeVec
	PityLifetimeSpent *prometheus.GaugeVec
}

// New 创建魔魂服务指标
func New(cfg *Config) (*RelicMetrics, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge metrics config: %w", err)
	}

	m := &RelicMetrics{
		config: newCfg,

		// 数据库指标
		DBQueryTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "db_queries_total",
				Help:      "数据库查询总数",
			},
			[]string{"operation", "result"}, // operation: select/insert/update/delete/upsert
		),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: newCfg.Namespace,
				Name:      "db_query_duration_seconds",
				Help:      "数据库查询延迟（秒）",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),

		// 缓存指标
		CacheHitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "cache_hits_total",
				Help:      "缓存命中总数",
			},
			[]string{"cache_type"},
		),
		CacheMissTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "cache_misses_total",
				Help:      "缓存未命中总数",
			},
			[]string{"cache_type"},
		),

		// 业务指标
		HuntTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "hunts_total",
				Help:      "猎魂总次数",
			},
			[]string{"field", "grade"},
		),
		PityTriggerTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "pity_triggers_total",
				Help:      "全服保底触发次数",
			},
			[]string{"key"},
		),
		EquipTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "equip_total",
				Help:      "魔魂装备/卸下次数",
			},
			[]string{"op", "result"}, // op: equip/unequip, result: 见 model.Kind
		),
		LevelUpTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: newCfg.Namespace,
				Name:      "relic_levelups_total",
				Help:      "魔魂升级总级数",
			},
		),

		PityCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: newCfg.Namespace,
				Name:      "pity_count",
				Help:      "全服保底当前计数",
			},
			[]string{"key"},
		),
		PityRemaining: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: newCfg.Namespace,
				Name:      "pity_remaining",
				Help:      "距下次全服保底的次数",
			},
			[]string{"key"},
		),
		PityLifetimeSpent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: newCfg.Namespace,
				Name:      "pity_lifetime_currency_consumed",
				Help:      "全服保底累计消耗货币",
			},
			[]string{"key"},
		),
	}

	return m, nil
}

// Register 注册指标到 Prometheus Registry
func (m *RelicMetrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.DBQueryTotal,
		m.DBQueryDuration,
		m.CacheHitTotal,
		m.CacheMissTotal,
		m.HuntTotal,
		m.PityTriggerTotal,
		m.EquipTotal,
		m.LevelUpTotal,
		m.PityCount,
		m.PityRemaining,
		m.PityLifetimeSpent,
	}

	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// RecordDBQuery 记录数据库查询
func (m *RelicMetrics) RecordDBQuery(operation string, success bool, duration float64) {
	result := "success"
	if !success {
		result = "failed"
	}
	m.DBQueryTotal.WithLabelValues(operation, result).Inc()
	m.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// RecordCacheHit 记录缓存命中
func (m *RelicMetrics) RecordCacheHit(cacheType string) {
	m.CacheHitTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (m *RelicMetrics) RecordCacheMiss(cacheType string) {
	m.CacheMissTotal.WithLabelValues(cacheType).Inc()
}

// RecordHunt 记录一次猎魂
func (m *RelicMetrics) RecordHunt(field, grade string) {
	m.HuntTotal.WithLabelValues(field, grade).Inc()
}

// RecordPityTrigger 记录保底触发
func (m *RelicMetrics) RecordPityTrigger(key string) {
	m.PityTriggerTotal.WithLabelValues(key).Inc()
}

// RecordEquip 记录装备操作，result 为空表示成功
func (m *RelicMetrics) RecordEquip(op, result string) {
	if result == "" {
		result = "success"
	}
	m.EquipTotal.WithLabelValues(op, result).Inc()
}

// RecordLevelUp 记录升级级数
func (m *RelicMetrics) RecordLevelUp(levels int) {
	if levels > 0 {
		m.LevelUpTotal.Add(float64(levels))
	}
}

// SetPityProgress 刷新保底进度
func (m *RelicMetrics) SetPityProgress(key string, count, remaining, consumed int64) {
	m.PityCount.WithLabelValues(key).Set(float64(count))
	m.PityRemaining.WithLabelValues(key).Set(float64(remaining))
	m.PityLifetimeSpent.WithLabelValues(key).Set(float64(consumed))
}

// GetConfig 获取配置
func (m *RelicMetrics) GetConfig() *Config {
	return m.config
}
