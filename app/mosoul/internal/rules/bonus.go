package rules

import "github.com/lk2023060901/mosoul/app/mosoul/internal/model"

// Bonus 单个属性的加成合计
type Bonus struct {
	Flat    int64 `json:"flat"`
	Percent int64 `json:"percent"`
}

// Totals 按属性汇总的加成
type Totals map[model.Attribute]Bonus

// Stats 魔宠属性
type Stats map[model.Attribute]int64

// TotalBonus 汇总已装备魔魂在当前等级下的加成
func TotalBonus(relics []*model.RelicView) Totals {
	out := make(Totals, len(model.AllAttributes))
	for _, r := range relics {
		for _, e := range r.Template.EffectsAtLevel(r.Level) {
			b := out[e.Attribute]
			b.Flat += e.Flat
			b.Percent += e.Percent
			out[e.Attribute] = b
		}
	}
	return out
}

// ApplyBonus 计算最终属性：base + flat + floor(base*percent/100)
func ApplyBonus(base Stats, totals Totals) Stats {
	out := make(Stats, len(base))
	for attr, v := range base {
		out[attr] = v
	}
	for attr, b := range totals {
		v := out[attr]
		out[attr] = v + b.Flat + floorDiv(v*b.Percent, 100)
	}
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
