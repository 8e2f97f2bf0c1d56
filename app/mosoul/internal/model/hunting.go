package model

import "time"

// FieldType 猎魂场类型
type FieldType string

const (
	FieldNone     FieldType = ""
	FieldNormal   FieldType = "normal"
	FieldAdvanced FieldType = "advanced"
)

func (f FieldType) Valid() bool {
	return f == FieldNormal || f == FieldAdvanced
}

// Currency 猎魂消耗的货币
type Currency string

const (
	CurrencyCopper    Currency = "copper"     // A 货币
	CurrencySoulCharm Currency = "soul_charm" // B 货币
)

// HuntPhase 猎魂会话状态
type HuntPhase int

const (
	HuntIdle HuntPhase = iota
	HuntFieldSelected
	HuntPoolExhausted
)

func (p HuntPhase) String() string {
	switch p {
	case HuntFieldSelected:
		return "field_selected"
	case HuntPoolExhausted:
		return "pool_exhausted"
	default:
		return "idle"
	}
}

// HuntingState 玩家猎魂状态
// 对应表：relic_hunting_state
type HuntingState struct {
	OwnerID           int64     `db:"owner_id" json:"owner_id"`
	FieldType         FieldType `db:"field_type" json:"field_type"`
	AvailableNPCs     []string  `db:"available_npcs" json:"available_npcs"`
	ConsumedCurrencyA int64     `db:"consumed_currency_a" json:"consumed_currency_a"`
	ConsumedCurrencyB int64     `db:"consumed_currency_b" json:"consumed_currency_b"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// NewHuntingState 空闲状态
func NewHuntingState(ownerID int64) *HuntingState {
	return &HuntingState{OwnerID: ownerID, AvailableNPCs: []string{}}
}

// Phase 由字段推导当前状态
func (s *HuntingState) Phase() HuntPhase {
	switch {
	case s.FieldType == FieldNone:
		return HuntIdle
	case len(s.AvailableNPCs) == 0:
		return HuntPoolExhausted
	default:
		return HuntFieldSelected
	}
}

// Clone 深拷贝
func (s *HuntingState) Clone() *HuntingState {
	c := *s
	c.AvailableNPCs = append([]string{}, s.AvailableNPCs...)
	return &c
}

// PityCounter 全服保底计数器
// 对应表：relic_global_pity
type PityCounter struct {
	Key                      string    `db:"key" json:"key"`
	Count                    int64     `db:"count" json:"count"`
	Threshold                int64     `db:"threshold" json:"threshold"`
	LifetimeCurrencyConsumed int64     `db:"lifetime_currency_consumed" json:"lifetime_currency_consumed"`
	UpdatedAt                time.Time `db:"updated_at" json:"updated_at"`
}

// Remaining 距下次保底的次数
func (c *PityCounter) Remaining() int64 {
	if c.Threshold <= c.Count {
		return 0
	}
	return c.Threshold - c.Count
}
