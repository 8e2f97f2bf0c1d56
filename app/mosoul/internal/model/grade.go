package model

import (
	"fmt"
	"strings"
)

// Grade 魔魂品阶，数值即稀有度 (越大越稀有)
type Grade int8

const (
	GradeWaste Grade = iota
	GradeYellow
	GradeMystic
	GradeEarth
	GradeHeaven
	GradeDragon
)

var gradeNames = [...]string{
	GradeWaste:  "waste",
	GradeYellow: "yellow",
	GradeMystic: "mystic",
	GradeEarth:  "earth",
	GradeHeaven: "heaven",
	GradeDragon: "dragon",
}

// AllGrades 按稀有度从高到低
var AllGrades = []Grade{GradeDragon, GradeHeaven, GradeEarth, GradeMystic, GradeYellow, GradeWaste}

// Rarity 稀有度排名
func (g Grade) Rarity() int {
	return int(g)
}

// IsDragon 龙魂受更严格的冲突规则约束
func (g Grade) IsDragon() bool {
	return g == GradeDragon
}

func (g Grade) Valid() bool {
	return g >= GradeWaste && g <= GradeDragon
}

func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("grade(%d)", int8(g))
	}
	return gradeNames[g]
}

// ParseGrade 解析品阶名称，大小写不敏感
func ParseGrade(s string) (Grade, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for g, name := range gradeNames {
		if name == s {
			return Grade(g), nil
		}
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}

func (g Grade) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid grade %d", int8(g))
	}
	return []byte(g.String()), nil
}

func (g *Grade) UnmarshalText(text []byte) error {
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
