package logger

import (
	"io"
)

// Option 配置选项
type Option func(*BaseLogger)

// WithHooks 添加钩子
func WithHooks(hooks ...Hook) Option {
	return func(l *BaseLogger) {
		l.hooks = append(l.hooks, hooks...)
	}
}

// WithContextExtractor 设置 context 字段提取器
func WithContextExtractor(fn ContextFieldExtractor) Option {
	return func(l *BaseLogger) {
		if fn != nil {
			l.extractor = fn
		}
	}
}

// WithConsoleWriter 替换控制台输出，测试时用于捕获日志
func WithConsoleWriter(w io.Writer) Option {
	return func(l *BaseLogger) {
		l.console = w
	}
}
