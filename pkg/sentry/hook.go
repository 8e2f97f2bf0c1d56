package sentry

import (
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/mosoul/pkg/logger"
)

// LogHook 将 Error 及以上级别的日志作为事件上报，日志本身照常输出
func LogHook(c *Client) logger.Hook {
	return logger.HookFunc(func(entry zapcore.Entry, fields []zapcore.Field) bool {
		if entry.Level < zapcore.ErrorLevel {
			return true
		}

		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}

		event := sentry.NewEvent()
		event.Level = levelOf(entry.Level)
		event.Message = entry.Message
		event.Logger = entry.LoggerName
		event.Timestamp = entry.Time
		event.Extra = enc.Fields
		c.CaptureEvent(event)
		return true
	})
}

func levelOf(l zapcore.Level) sentry.Level {
	switch {
	case l >= zapcore.DPanicLevel:
		return sentry.LevelFatal
	case l >= zapcore.ErrorLevel:
		return sentry.LevelError
	case l == zapcore.WarnLevel:
		return sentry.LevelWarning
	case l == zapcore.InfoLevel:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}
