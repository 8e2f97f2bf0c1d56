// Package events 发布魔魂系统事件，用于全服公告和数据分析
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/logger"
	"github.com/lk2023060901/mosoul/pkg/mq/kafka"
)

// 事件类型
const (
	TypeRelicAcquired = "relic.acquired"
	TypePityTriggered = "pity.triggered"
)

// RelicAcquired 玩家猎魂获得高品阶魔魂或触发保底
type RelicAcquired struct {
	OwnerID       int64           `json:"owner_id"`
	RelicID       int64           `json:"relic_id"`
	TemplateID    int32           `json:"template_id"`
	Grade         model.Grade     `json:"grade"`
	Field         model.FieldType `json:"field"`
	NPCID         string          `json:"npc_id"`
	PityTriggered bool            `json:"pity_triggered"`
	At            time.Time       `json:"at"`
}

// PityTriggered 全服保底触发
type PityTriggered struct {
	Key      string    `json:"key"`
	OwnerID  int64     `json:"owner_id"`
	Consumed int64     `json:"lifetime_currency_consumed"`
	At       time.Time `json:"at"`
}

// Publisher 事件发布
type Publisher interface {
	RelicAcquired(ctx context.Context, e *RelicAcquired) error
	PityTriggered(ctx context.Context, e *PityTriggered) error
	Close() error
}

// messageProducer kafka.Producer 的最小子集
type messageProducer interface {
	Publish(ctx context.Context, msg *kafka.Message) error
	Close() error
}

// kafkaPublisher 以 owner id 作为消息 key，同一玩家的事件保持顺序
type kafkaPublisher struct {
	producer messageProducer
	logger   logger.Logger
}

// NewKafkaPublisher 创建 Kafka 事件发布者
func NewKafkaPublisher(cfg *kafka.Config, l logger.Logger) (Publisher, error) {
	log := l.Named("events")
	p, err := kafka.NewProducer(cfg,
		kafka.RecoveryMiddleware(log),
		kafka.LoggingMiddleware(log),
		kafka.HeaderMiddleware(map[string]string{"source": "mosoul"}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newKafkaPublisher(p, log), nil
}

func newKafkaPublisher(p messageProducer, l logger.Logger) *kafkaPublisher {
	return &kafkaPublisher{producer: p, logger: l}
}

func (p *kafkaPublisher) RelicAcquired(ctx context.Context, e *RelicAcquired) error {
	return p.publish(ctx, TypeRelicAcquired, e.OwnerID, e)
}

func (p *kafkaPublisher) PityTriggered(ctx context.Context, e *PityTriggered) error {
	return p.publish(ctx, TypePityTriggered, e.OwnerID, e)
}

func (p *kafkaPublisher) publish(ctx context.Context, typ string, ownerID int64, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", typ, err)
	}
	return p.producer.Publish(ctx, &kafka.Message{
		Key:     []byte(strconv.FormatInt(ownerID, 10)),
		Value:   value,
		Headers: map[string]string{"type": typ},
	})
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// noopPublisher 未配置 Kafka 时使用
type noopPublisher struct{}

// NewNoopPublisher 创建空发布者
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) RelicAcquired(context.Context, *RelicAcquired) error { return nil }
func (noopPublisher) PityTriggered(context.Context, *PityTriggered) error { return nil }
func (noopPublisher) Close() error                                        { return nil }
