// Package hunting 猎魂会话状态机和掉落随机
//
// 会话状态: Idle -> FieldSelected -> PoolExhausted，耗尽后必须 Reset。
// 全服保底计数不属于会话，Reset 不会影响它。
package hunting

import (
	"fmt"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// SelectField 选择猎魂场
// 首次选择或切换场地时重新填充候选池并清零会话消耗；重复选择当前场地不做修改
func SelectField(s *model.HuntingState, ft model.FieldType, pool []string, now time.Time) (changed bool, err error) {
	if !ft.Valid() {
		return false, fmt.Errorf("%w: %q", model.ErrInvalidFieldType, ft)
	}
	if s.Phase() != model.HuntIdle && s.FieldType == ft {
		return false, nil
	}
	seed(s, ft, pool, now)
	return true, nil
}

// Reset 重新填充候选池并清零会话消耗
func Reset(s *model.HuntingState, ft model.FieldType, pool []string, now time.Time) error {
	if !ft.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidFieldType, ft)
	}
	seed(s, ft, pool, now)
	return nil
}

func seed(s *model.HuntingState, ft model.FieldType, pool []string, now time.Time) {
	s.FieldType = ft
	s.AvailableNPCs = append(make([]string, 0, len(pool)), pool...)
	s.ConsumedCurrencyA = 0
	s.ConsumedCurrencyB = 0
	s.UpdatedAt = now
}

// Next 取出候选池中的下一个候选，不放回
func Next(s *model.HuntingState, now time.Time) (string, error) {
	switch s.Phase() {
	case model.HuntIdle:
		return "", model.ErrNoFieldSelected
	case model.HuntPoolExhausted:
		return "", fmt.Errorf("%w: field %s", model.ErrPoolExhausted, s.FieldType)
	}
	id := s.AvailableNPCs[0]
	s.AvailableNPCs = s.AvailableNPCs[1:]
	s.UpdatedAt = now
	return id, nil
}

// Charge 累加本次会话的货币消耗
func Charge(s *model.HuntingState, c model.Currency, amount int64) {
	switch c {
	case model.CurrencySoulCharm:
		s.ConsumedCurrencyB += amount
	default:
		s.ConsumedCurrencyA += amount
	}
}
