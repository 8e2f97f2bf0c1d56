package model

type updateOp uint8

const (
	opKeep updateOp = iota
	opClear
	opSet
)

// FieldUpdate 可空字段的三态更新：保持、清空、设置
// 零值为 Keep
type FieldUpdate[T any] struct {
	op  updateOp
	val T
}

// Keep 不修改
func Keep[T any]() FieldUpdate[T] {
	return FieldUpdate[T]{}
}

// Clear 清空为 NULL
func Clear[T any]() FieldUpdate[T] {
	return FieldUpdate[T]{op: opClear}
}

// Set 设置为 v
func Set[T any](v T) FieldUpdate[T] {
	return FieldUpdate[T]{op: opSet, val: v}
}

func (u FieldUpdate[T]) IsKeep() bool  { return u.op == opKeep }
func (u FieldUpdate[T]) IsClear() bool { return u.op == opClear }
func (u FieldUpdate[T]) IsSet() bool   { return u.op == opSet }

// Value 仅在 IsSet 时有意义
func (u FieldUpdate[T]) Value() T {
	return u.val
}

// Resolve 计算更新后的值，nil 表示 NULL
func (u FieldUpdate[T]) Resolve(cur *T) *T {
	switch u.op {
	case opClear:
		return nil
	case opSet:
		v := u.val
		return &v
	default:
		return cur
	}
}
