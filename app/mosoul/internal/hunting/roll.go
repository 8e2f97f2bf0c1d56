package hunting

import (
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
)

// Rand 随机数来源，*rand.Rand (math/rand/v2) 满足此接口
type Rand interface {
	IntN(n int) int
}

// RollGrade 按权重随机品阶，按稀有度从高到低累加以保证结果可复现
// excludeDragon 为 true 时龙魂权重不参与 (龙魂只由保底产出)
func RollGrade(r Rand, weights map[model.Grade]int, excludeDragon bool) (model.Grade, bool) {
	total := 0
	for _, g := range model.AllGrades {
		if excludeDragon && g.IsDragon() {
			continue
		}
		if w := weights[g]; w > 0 {
			total += w
		}
	}
	if total == 0 {
		return model.GradeWaste, false
	}

	n := r.IntN(total)
	for _, g := range model.AllGrades {
		if excludeDragon && g.IsDragon() {
			continue
		}
		w := weights[g]
		if w <= 0 {
			continue
		}
		if n < w {
			return g, true
		}
		n -= w
	}
	return model.GradeWaste, false
}

// PickTemplate 等概率选择一个模板
func PickTemplate(r Rand, templates []*model.RelicTemplate) (*model.RelicTemplate, bool) {
	if len(templates) == 0 {
		return nil, false
	}
	return templates[r.IntN(len(templates))], true
}
