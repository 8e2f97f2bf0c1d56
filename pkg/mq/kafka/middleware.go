package kafka

import (
	"context"
	"time"

	"github.com/lk2023060901/mosoul/pkg/logger"
)

// LoggingMiddleware 记录发送结果
func LoggingMiddleware(log logger.Logger) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) error {
		start := time.Now()
		err := next(ctx, msg)
		if err != nil {
			log.ErrorContext(ctx, "message publish failed",
				"key", string(msg.Key),
				"event_type", msg.Headers["event_type"],
				"duration", time.Since(start),
				"error", err,
			)
			return err
		}
		log.DebugContext(ctx, "message published",
			"key", string(msg.Key),
			"event_type", msg.Headers["event_type"],
			"duration", time.Since(start),
		)
		return nil
	}
}

// RecoveryMiddleware 捕获下游 panic
func RecoveryMiddleware(log logger.Logger) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("producer panic recovered", "key", string(msg.Key), "panic", r)
				err = ErrProducerPanic
			}
		}()
		return next(ctx, msg)
	}
}

// HeaderMiddleware 为每条消息补充固定 header，已存在的不覆盖
func HeaderMiddleware(headers map[string]string) ProducerMiddleware {
	return func(ctx context.Context, msg *Message, next PublishFunc) error {
		if msg.Headers == nil {
			msg.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			if _, ok := msg.Headers[k]; !ok {
				msg.Headers[k] = v
			}
		}
		return next(ctx, msg)
	}
}
