package gameconfig

import (
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/config"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// Catalog 一次加载得到的只读配置快照
// 构造后不再修改，可被多个 goroutine 并发读取
type Catalog struct {
	templates map[int32]*model.RelicTemplate
	byGrade   map[model.Grade][]*model.RelicTemplate
	upgrade   map[model.Grade]*UpgradeRow
	storage   []VIPStorageRow // 按 VIP 升序
	fields    map[model.FieldType]*HuntField
	pity      map[string]int64
	loadedAt  time.Time
	checksum  uint64 // 数据文件内容的 xxhash，Build 构造时为 0
}

// Load 从 dataDir 加载全部数据表并校验
func Load(dataDir string, l logger.Logger) (*Catalog, error) {
	digest := xxhash.New()
	templates, err := readTable[model.RelicTemplate](dataDir, TableRelic, false, digest, l)
	if err != nil {
		return nil, err
	}
	upgrades, err := readTable[UpgradeRow](dataDir, TableUpgrade, false, digest, l)
	if err != nil {
		return nil, err
	}
	storage, err := readTable[VIPStorageRow](dataDir, TableVIPStorage, true, digest, l)
	if err != nil {
		return nil, err
	}
	fields, err := readTable[HuntField](dataDir, TableHuntField, false, digest, l)
	if err != nil {
		return nil, err
	}
	pity, err := readTable[PityRow](dataDir, TablePity, true, digest, l)
	if err != nil {
		return nil, err
	}
	c, err := Build(templates, upgrades, storage, fields, pity)
	if err != nil {
		return nil, err
	}
	c.checksum = digest.Sum64()
	return c, nil
}

// Build 由已解析的数据行构造 Catalog
func Build(
	templates []model.RelicTemplate,
	upgrades []UpgradeRow,
	storage []VIPStorageRow,
	fields []HuntField,
	pity []PityRow,
) (*Catalog, error) {
	c := &Catalog{
		templates: make(map[int32]*model.RelicTemplate, len(templates)),
		byGrade:   make(map[model.Grade][]*model.RelicTemplate),
		upgrade:   make(map[model.Grade]*UpgradeRow, len(upgrades)),
		fields:    make(map[model.FieldType]*HuntField, len(fields)),
		pity:      make(map[string]int64, len(pity)),
		loadedAt:  time.Now(),
	}
	v := config.NewValidator()

	// 1. 魔魂模板
	for i := range templates {
		t := &templates[i]
		if err := validateTemplate(t); err != nil {
			return nil, fmt.Errorf("%s: %w", TableRelic, err)
		}
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate template id %d", TableRelic, t.ID)
		}
		c.templates[t.ID] = t
		c.byGrade[t.Grade] = append(c.byGrade[t.Grade], t)
	}
	for g := range c.byGrade {
		list := c.byGrade[g]
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	// 2. 升级经验
	for i := range upgrades {
		row := &upgrades[i]
		if !row.Grade.Valid() {
			return nil, fmt.Errorf("%s: invalid grade %d", TableUpgrade, row.Grade)
		}
		if err := v.Validate(row); err != nil {
			return nil, fmt.Errorf("%s[%s]: %w", TableUpgrade, row.Grade, err)
		}
		if _, dup := c.upgrade[row.Grade]; dup {
			return nil, fmt.Errorf("%s: duplicate grade %s", TableUpgrade, row.Grade)
		}
		c.upgrade[row.Grade] = row
	}

	// 3. 仓库容量
	seenVIP := make(map[int]bool, len(storage))
	for i := range storage {
		if err := v.Validate(&storage[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", TableVIPStorage, err)
		}
		if seenVIP[storage[i].VIP] {
			return nil, fmt.Errorf("%s: duplicate vip %d", TableVIPStorage, storage[i].VIP)
		}
		seenVIP[storage[i].VIP] = true
	}
	c.storage = append([]VIPStorageRow(nil), storage...)
	sort.Slice(c.storage, func(i, j int) bool { return c.storage[i].VIP < c.storage[j].VIP })

	// 4. 保底阈值
	for i := range pity {
		if err := v.Validate(&pity[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", TablePity, err)
		}
		c.pity[pity[i].Key] = pity[i].Threshold
	}

	// 5. 猎魂场，依赖模板和保底表
	for i := range fields {
		f := &fields[i]
		if err := v.Validate(f); err != nil {
			return nil, fmt.Errorf("%s: %w", TableHuntField, err)
		}
		if err := c.validateField(f); err != nil {
			return nil, fmt.Errorf("%s[%s]: %w", TableHuntField, f.Field, err)
		}
		if _, dup := c.fields[f.Field]; dup {
			return nil, fmt.Errorf("%s: duplicate field %s", TableHuntField, f.Field)
		}
		c.fields[f.Field] = f
	}

	return c, nil
}

func validateTemplate(t *model.RelicTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("template %d: empty name", t.ID)
	}
	if !t.Grade.Valid() {
		return fmt.Errorf("template %d: invalid grade %d", t.ID, t.Grade)
	}
	type pair struct {
		attr model.Attribute
		kind model.BonusKind
	}
	seen := make(map[pair]bool, len(t.Effects)*2)
	for _, e := range t.Effects {
		if !e.Attribute.Valid() {
			return fmt.Errorf("template %d: unknown attribute %q", t.ID, e.Attribute)
		}
		if e.Flat < 0 || e.Percent < 0 {
			return fmt.Errorf("template %d: negative bonus on %s", t.ID, e.Attribute)
		}
		kinds := make([]model.BonusKind, 0, 2)
		if e.Flat > 0 {
			kinds = append(kinds, model.BonusFlat)
		}
		if e.Percent > 0 {
			kinds = append(kinds, model.BonusPercent)
		}
		for _, k := range kinds {
			p := pair{e.Attribute, k}
			if seen[p] {
				return fmt.Errorf("template %d: duplicate %s bonus on %s", t.ID, k, e.Attribute)
			}
			seen[p] = true
		}
	}
	return nil
}

func (c *Catalog) validateField(f *HuntField) error {
	if f.PityKey != "" {
		if _, ok := c.pity[f.PityKey]; !ok {
			return fmt.Errorf("unknown pity key %q", f.PityKey)
		}
		if len(c.byGrade[model.GradeDragon]) == 0 {
			return fmt.Errorf("pity key %q set but no dragon templates", f.PityKey)
		}
	}
	// 保底场的龙魂只由保底产出，权重不参与随机
	pityOnlyDragon := f.PityKey != ""
	seen := make(map[string]bool, len(f.NPCs))
	for _, npc := range f.NPCs {
		if seen[npc.ID] {
			return fmt.Errorf("duplicate npc %q", npc.ID)
		}
		seen[npc.ID] = true

		total := 0
		for g, w := range npc.Weights {
			if !g.Valid() {
				return fmt.Errorf("npc %q: invalid grade %d", npc.ID, g)
			}
			if w == 0 || (g.IsDragon() && pityOnlyDragon) {
				continue
			}
			if g != model.GradeWaste && len(c.byGrade[g]) == 0 {
				return fmt.Errorf("npc %q: weight on %s but no templates", npc.ID, g)
			}
			total += w
		}
		if total == 0 {
			return fmt.Errorf("npc %q: no rollable weight", npc.ID)
		}
	}
	return nil
}

// Template 按 ID 查找模板
func (c *Catalog) Template(id int32) (*model.RelicTemplate, error) {
	t, ok := c.templates[id]
	if !ok {
		return nil, model.NotFound("relic template", id)
	}
	return t, nil
}

// Templates 全部模板，按 ID 升序
func (c *Catalog) Templates() []*model.RelicTemplate {
	out := make([]*model.RelicTemplate, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TemplatesByGrade 指定品阶的模板，按 ID 升序
func (c *Catalog) TemplatesByGrade(g model.Grade) []*model.RelicTemplate {
	return append([]*model.RelicTemplate(nil), c.byGrade[g]...)
}

// UpgradeExp 从 level 升到 level+1 所需经验，未定义返回 0
func (c *Catalog) UpgradeExp(g model.Grade, level int) int64 {
	row, ok := c.upgrade[g]
	if !ok || level < 1 || level > len(row.LevelExp) {
		return 0
	}
	return row.LevelExp[level-1]
}

// ExpProvided 作为材料时提供的经验，与材料自身等级无关
func (c *Catalog) ExpProvided(g model.Grade) int64 {
	if row, ok := c.upgrade[g]; ok {
		return row.ExpProvided
	}
	return 0
}

// StorageCapacity 按 VIP 等级查询仓库容量
// 超过最高档位按最高档计算
func (c *Catalog) StorageCapacity(vip int) int {
	capacity := DefaultStorageCapacity
	for _, row := range c.storage {
		if row.VIP > vip {
			break
		}
		capacity = row.Capacity
	}
	return capacity
}

// Field 查找猎魂场配置
func (c *Catalog) Field(ft model.FieldType) (*HuntField, error) {
	f, ok := c.fields[ft]
	if !ok {
		return nil, model.NotFound("hunting field", ft)
	}
	return f, nil
}

// FieldPool 猎魂场的完整候选池
func (c *Catalog) FieldPool(ft model.FieldType) ([]string, error) {
	f, err := c.Field(ft)
	if err != nil {
		return nil, err
	}
	return f.Pool(), nil
}

// PityThreshold 保底阈值
func (c *Catalog) PityThreshold(key string) (int64, bool) {
	t, ok := c.pity[key]
	return t, ok
}

// PityKeys 全部保底 key，按字典序
func (c *Catalog) PityKeys() []string {
	keys := make([]string, 0, len(c.pity))
	for k := range c.pity {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stats 各表行数，用于日志
func (c *Catalog) Stats() map[string]int {
	return map[string]int{
		TableRelic:      len(c.templates),
		TableUpgrade:    len(c.upgrade),
		TableVIPStorage: len(c.storage),
		TableHuntField:  len(c.fields),
		TablePity:       len(c.pity),
	}
}

// LoadedAt 加载时间
func (c *Catalog) LoadedAt() time.Time {
	return c.loadedAt
}

// Checksum 数据文件指纹
func (c *Catalog) Checksum() uint64 {
	return c.checksum
}
