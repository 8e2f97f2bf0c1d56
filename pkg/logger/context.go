package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取日志字段
type ContextFieldExtractor func(ctx context.Context) []zap.Field

// DefaultContextExtractor 不提取任何字段
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	return nil
}

type ctxKey struct{}

// ContextWithFields 把字段挂到 context 上，配合 FieldsFromContext 使用
func ContextWithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	prev, _ := ctx.Value(ctxKey{}).([]zap.Field)
	fields := append(append([]zap.Field{}, prev...), toZapFields(keysAndValues)...)
	return context.WithValue(ctx, ctxKey{}, fields)
}

// FieldsFromContext 读取 ContextWithFields 设置的字段
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields, _ := ctx.Value(ctxKey{}).([]zap.Field)
	return fields
}
