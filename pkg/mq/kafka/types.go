package kafka

import (
	"context"
)

// Message 待发送的消息
type Message struct {
	// Key 相同 Key 路由到同一分区
	Key   []byte
	Value []byte
	// Headers 元数据，例如 event_type
	Headers map[string]string
}

// PublishFunc 发送函数
type PublishFunc func(ctx context.Context, msg *Message) error

// ProducerMiddleware 生产者中间件
type ProducerMiddleware func(ctx context.Context, msg *Message, next PublishFunc) error
