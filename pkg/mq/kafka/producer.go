package kafka

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/segmentio/kafka-go"
)

// messageWriter kafka.Writer 的最小子集
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 单主题生产者
type Producer struct {
	topic       string
	writer      messageWriter
	middlewares []ProducerMiddleware
	closed      atomic.Bool

	produced atomic.Int64
	failed   atomic.Int64
}

// NewProducer 创建生产者
func NewProducer(cfg *Config, middlewares ...ProducerMiddleware) (*Producer, error) {
	merged, err := MergeConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(merged.Brokers...),
		Topic:                  merged.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              merged.BatchSize,
		BatchTimeout:           merged.BatchTimeout,
		MaxAttempts:            merged.MaxRetries + 1,
		WriteTimeout:           merged.WriteTimeout,
		RequiredAcks:           kafka.RequiredAcks(merged.RequiredAcks),
		Async:                  merged.Async,
		Compression:            parseCompression(merged.Compression),
		AllowAutoTopicCreation: true,
	}
	return newProducer(merged.Topic, w, middlewares...), nil
}

func newProducer(topic string, w messageWriter, middlewares ...ProducerMiddleware) *Producer {
	return &Producer{topic: topic, writer: w, middlewares: middlewares}
}

// Publish 经过中间件链发送单条消息
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	publish := p.write
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		mw, next := p.middlewares[i], publish
		publish = func(ctx context.Context, msg *Message) error {
			return mw(ctx, msg, next)
		}
	}

	if err := publish(ctx, msg); err != nil {
		p.failed.Add(1)
		return err
	}
	p.produced.Add(1)
	return nil
}

func (p *Producer) write(ctx context.Context, msg *Message) error {
	km := kafka.Message{Key: msg.Key, Value: msg.Value}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.writer.WriteMessages(ctx, km)
}

// Topic 返回主题
func (p *Producer) Topic() string {
	return p.topic
}

// Stats 返回成功和失败条数
func (p *Producer) Stats() (produced, failed int64) {
	return p.produced.Load(), p.failed.Load()
}

// Close 关闭生产者，重复调用无副作用
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
