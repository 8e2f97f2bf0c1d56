// Package leveling 魔魂经验与等级计算，纯函数，不涉及存储
package leveling

import "github.com/lk2023060901/mosoul/app/mosoul/internal/model"

// ExpTable 升级经验表
type ExpTable interface {
	// UpgradeExp 从 level 升到 level+1 所需经验，未定义返回 0
	UpgradeExp(g model.Grade, level int) int64
	// ExpProvided 作为材料被吞噬时提供的经验
	ExpProvided(g model.Grade) int64
}

// Result 经验结算结果
type Result struct {
	Level        int
	Exp          int64
	LevelsGained int
}

// ApplyExp 为 (level, exp) 增加 add 点经验
// 满级时经验清零且溢出部分丢弃；所需经验为 0 时停止升级并保留累计经验
func ApplyExp(table ExpTable, g model.Grade, level int, exp, add int64) Result {
	if level >= model.MaxRelicLevel {
		return Result{Level: level, Exp: 0}
	}
	if add < 0 {
		add = 0
	}

	start := level
	exp += add
	for level < model.MaxRelicLevel {
		required := table.UpgradeExp(g, level)
		if required <= 0 || exp < required {
			break
		}
		exp -= required
		level++
	}
	if level >= model.MaxRelicLevel {
		exp = 0
	}
	return Result{Level: level, Exp: exp, LevelsGained: level - start}
}

// ExpProvided 吞噬一个魔魂获得的经验，只取决于品阶
func ExpProvided(table ExpTable, g model.Grade) int64 {
	return table.ExpProvided(g)
}

// FeedExp 吞噬一组材料获得的总经验
func FeedExp(table ExpTable, grades []model.Grade) int64 {
	var total int64
	for _, g := range grades {
		total += table.ExpProvided(g)
	}
	return total
}

// ExpToNext 当前等级升级所需的剩余经验，满级或未定义返回 0
func ExpToNext(table ExpTable, g model.Grade, level int, exp int64) int64 {
	if level >= model.MaxRelicLevel {
		return 0
	}
	required := table.UpgradeExp(g, level)
	if required <= exp {
		return 0
	}
	return required - exp
}
