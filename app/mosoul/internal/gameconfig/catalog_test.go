package gameconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shippedDataDir = "../../configs/data"

func TestLoad_ShippedTables(t *testing.T) {
	c, err := Load(shippedDataDir, logger.NewNoop())
	require.NoError(t, err)

	tpl, err := c.Template(501)
	require.NoError(t, err)
	assert.Equal(t, model.GradeDragon, tpl.Grade)

	_, err = c.Template(9999)
	assert.Equal(t, model.KindNotFound, model.KindOf(err))

	dragons := c.TemplatesByGrade(model.GradeDragon)
	require.Len(t, dragons, 2)
	assert.Less(t, dragons[0].ID, dragons[1].ID)

	assert.Equal(t, int64(100), c.UpgradeExp(model.GradeYellow, 1))
	assert.Equal(t, int64(720), c.UpgradeExp(model.GradeYellow, 9))
	assert.Zero(t, c.UpgradeExp(model.GradeYellow, 10))
	assert.Zero(t, c.UpgradeExp(model.GradeWaste, 1))
	assert.Equal(t, int64(800), c.ExpProvided(model.GradeDragon))

	pool, err := c.FieldPool(model.FieldNormal)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1", "n2", "n3", "n4", "n5"}, pool)

	adv, err := c.Field(model.FieldAdvanced)
	require.NoError(t, err)
	threshold, ok := c.PityThreshold(adv.PityKey)
	require.True(t, ok)
	assert.Equal(t, int64(100), threshold)
}

func TestStorageCapacity(t *testing.T) {
	c, err := Build(nil, nil, []VIPStorageRow{
		{VIP: 5, Capacity: 100},
		{VIP: 0, Capacity: 50},
		{VIP: 2, Capacity: 70},
	}, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		vip  int
		want int
	}{
		{0, 50}, {1, 50}, {2, 70}, {4, 70}, {5, 100}, {12, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.StorageCapacity(tt.vip), "vip %d", tt.vip)
	}

	empty, err := Build(nil, nil, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultStorageCapacity, empty.StorageCapacity(3))
}

func TestBuild_Validation(t *testing.T) {
	valid := model.RelicTemplate{ID: 1, Name: "a", Grade: model.GradeYellow, Effects: []model.Effect{{Attribute: model.AttrHP, Flat: 1}}}

	tests := []struct {
		name      string
		templates []model.RelicTemplate
		fields    []HuntField
		pity      []PityRow
		wantErr   string
	}{
		{
			name:      "duplicate id",
			templates: []model.RelicTemplate{valid, valid},
			wantErr:   "duplicate template id",
		},
		{
			name: "unknown attribute",
			templates: []model.RelicTemplate{
				{ID: 2, Name: "b", Grade: model.GradeYellow, Effects: []model.Effect{{Attribute: "luck", Flat: 1}}},
			},
			wantErr: "unknown attribute",
		},
		{
			name: "duplicate bonus pair",
			templates: []model.RelicTemplate{
				{ID: 3, Name: "c", Grade: model.GradeYellow, Effects: []model.Effect{
					{Attribute: model.AttrHP, Flat: 1},
					{Attribute: model.AttrHP, Flat: 2},
				}},
			},
			wantErr: "duplicate flat bonus",
		},
		{
			name:      "unknown pity key",
			templates: []model.RelicTemplate{valid},
			fields: []HuntField{{
				Field:   model.FieldAdvanced,
				PityKey: "missing",
				NPCs:    []HuntNPC{{ID: "x", Currency: model.CurrencySoulCharm, Weights: map[model.Grade]int{model.GradeYellow: 1}}},
			}},
			wantErr: "unknown pity key",
		},
		{
			name:      "weight without templates",
			templates: []model.RelicTemplate{valid},
			fields: []HuntField{{
				Field: model.FieldNormal,
				NPCs:  []HuntNPC{{ID: "x", Currency: model.CurrencyCopper, Weights: map[model.Grade]int{model.GradeHeaven: 1}}},
			}},
			wantErr: "no templates",
		},
		{
			name:      "dragon weight without templates",
			templates: []model.RelicTemplate{valid},
			fields: []HuntField{{
				Field: model.FieldNormal,
				NPCs:  []HuntNPC{{ID: "x", Currency: model.CurrencyCopper, Weights: map[model.Grade]int{model.GradeDragon: 1, model.GradeYellow: 1}}},
			}},
			wantErr: "weight on dragon but no templates",
		},
		{
			name:      "bad currency",
			templates: []model.RelicTemplate{valid},
			fields: []HuntField{{
				Field: model.FieldNormal,
				NPCs:  []HuntNPC{{ID: "x", Currency: "gold", Weights: map[model.Grade]int{model.GradeYellow: 1}}},
			}},
			wantErr: "Currency",
		},
		{
			name:    "zero threshold",
			pity:    []PityRow{{Key: "k", Threshold: 0}},
			wantErr: "Threshold",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.templates, nil, nil, tt.fields, tt.pity)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func copyTables(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir(shippedDataDir)
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(shippedDataDir, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644))
	}
	return dir
}

func TestLoad_OptionalTables(t *testing.T) {
	dir := copyTables(t)
	require.NoError(t, os.Remove(filepath.Join(dir, TableVIPStorage+".json")))

	c, err := Load(dir, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, DefaultStorageCapacity, c.StorageCapacity(10))

	require.NoError(t, os.Remove(filepath.Join(dir, TableRelic+".json")))
	_, err = Load(dir, logger.NewNoop())
	assert.Error(t, err)
}

func TestHolder_Reload(t *testing.T) {
	dir := copyTables(t)
	h, err := NewHolder(dir, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.Version())
	old := h.Catalog()
	assert.Equal(t, 50, h.StorageCapacity(0))
	assert.NotZero(t, old.Checksum())

	// 内容未变化不替换快照
	require.NoError(t, h.Reload())
	assert.Equal(t, int64(1), h.Version())
	assert.Same(t, old, h.Catalog())

	require.NoError(t, os.WriteFile(filepath.Join(dir, TableVIPStorage+".json"), []byte(`[{"vip":0,"capacity":75}]`), 0o644))
	require.NoError(t, h.Reload())
	assert.Equal(t, int64(2), h.Version())
	assert.Equal(t, 75, h.StorageCapacity(0))
	assert.NotEqual(t, old.Checksum(), h.Catalog().Checksum())
	// 旧快照不受影响
	assert.Equal(t, 50, old.StorageCapacity(0))

	// 加载失败时保留当前快照
	require.NoError(t, os.WriteFile(filepath.Join(dir, TableVIPStorage+".json"), []byte(`{broken`), 0o644))
	assert.Error(t, h.Reload())
	assert.Equal(t, 75, h.StorageCapacity(0))
}

func TestHolder_Watch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping fsnotify test in short mode")
	}
	dir := copyTables(t)
	h, err := NewHolder(dir, logger.NewNoop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Watch(ctx, 20*time.Millisecond) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, TablePity+".json"), []byte(`[{"key":"advanced","threshold":7}]`), 0o644))
	assert.Eventually(t, func() bool {
		th, _ := h.Catalog().PityThreshold("advanced")
		return th == 7
	}, 2*time.Second, 20*time.Millisecond)
}
