package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// 错误类别，调用方通过 errors.Is 或 KindOf 区分
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("relic conflict")
	ErrCapacity   = errors.New("capacity exceeded")
	ErrNotFound   = errors.New("not found")
)

// 具体的校验失败原因
var (
	ErrLevelTooLow      = errors.Mark(errors.New("creature level below equip threshold"), ErrValidation)
	ErrSlotFull         = errors.Mark(errors.New("no free equip slot"), ErrValidation)
	ErrStorageFull      = errors.Mark(errors.New("relic storage is full"), ErrValidation)
	ErrAlreadyEquipped  = errors.Mark(errors.New("relic already equipped"), ErrValidation)
	ErrNotEquipped      = errors.Mark(errors.New("relic not equipped to creature"), ErrValidation)
	ErrNotOwner         = errors.Mark(errors.New("relic belongs to another player"), ErrValidation)
	ErrDuplicateRelic   = errors.Mark(errors.New("relic listed more than once"), ErrValidation)
	ErrMaxLevel         = errors.Mark(errors.New("relic already at max level"), ErrValidation)
	ErrNoFieldSelected  = errors.Mark(errors.New("no hunting field selected"), ErrValidation)
	ErrPoolExhausted    = errors.Mark(errors.New("hunting pool exhausted, reset required"), ErrValidation)
	ErrInvalidFieldType = errors.Mark(errors.New("invalid hunting field type"), ErrValidation)
)

// Kind 错误类别
type Kind string

const (
	KindNone       Kind = ""
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindCapacity   Kind = "capacity"
	KindNotFound   Kind = "not_found"
	KindInternal   Kind = "internal"
)

// KindOf 对任意错误归类
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.HasType(err, (*ConflictError)(nil)), errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrCapacity):
		return KindCapacity
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}

// NotFound 构造不存在错误
func NotFound(what string, id any) error {
	return errors.Wrapf(ErrNotFound, "%s %v", what, id)
}

// Capacity 构造容量错误
func Capacity(format string, args ...any) error {
	return errors.Wrapf(ErrCapacity, format, args...)
}

// ConflictType 冲突规则
type ConflictType string

const (
	ConflictNone          ConflictType = ""
	ConflictDragonPercent ConflictType = "dragon_percent"
	ConflictSamePercent   ConflictType = "same_percent"
	ConflictSameFlat      ConflictType = "same_flat"
)

// ConflictError 违反冲突规则
type ConflictError struct {
	Type      ConflictType
	Attribute Attribute
	Candidate string
	Existing  string
	Message   string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Type {
	case ConflictDragonPercent:
		return fmt.Sprintf("dragon relic percent bonus on %s: %s conflicts with %s", e.Attribute, e.Candidate, e.Existing)
	case ConflictSamePercent:
		return fmt.Sprintf("duplicate percent bonus on %s: %s conflicts with %s", e.Attribute, e.Candidate, e.Existing)
	default:
		return fmt.Sprintf("duplicate flat bonus on %s: %s conflicts with %s", e.Attribute, e.Candidate, e.Existing)
	}
}

// Is 使 errors.Is(err, ErrConflict) 成立
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
