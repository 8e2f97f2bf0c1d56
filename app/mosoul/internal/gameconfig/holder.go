package gameconfig

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/model"
	"github.com/lk2023060901/mosoul/pkg/config"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// Holder 持有当前生效的 Catalog
// Reload 构造新的 Catalog 后原子替换，已取得旧快照的读者不受影响
type Holder struct {
	dataDir string
	logger  logger.Logger
	current atomic.Pointer[Catalog]
	version atomic.Int64
}

// NewHolder 加载 dataDir 并创建 Holder
func NewHolder(dataDir string, l logger.Logger) (*Holder, error) {
	h := &Holder{
		dataDir: dataDir,
		logger:  l.Named("gameconfig"),
	}
	if err := h.Reload(); err != nil {
		return nil, err
	}
	return h, nil
}

// NewStaticHolder 持有固定的 Catalog，不关联数据目录
func NewStaticHolder(c *Catalog) *Holder {
	h := &Holder{logger: logger.NewNoop()}
	h.current.Store(c)
	h.version.Store(1)
	return h
}

// Catalog 当前快照，单次操作内应只取一次
func (h *Holder) Catalog() *Catalog {
	return h.current.Load()
}

// Version 每次成功加载加一
func (h *Holder) Version() int64 {
	return h.version.Load()
}

// Reload 重新加载数据表，失败时保留旧快照
// 文件内容未变化时不替换快照
func (h *Holder) Reload() error {
	c, err := Load(h.dataDir, h.logger)
	if err != nil {
		h.logger.Error("failed to load game config", "dir", h.dataDir, "error", err)
		return err
	}
	if cur := h.current.Load(); cur != nil && cur.Checksum() == c.Checksum() {
		h.logger.Debug("game config unchanged", "dir", h.dataDir, "checksum", c.Checksum())
		return nil
	}
	h.current.Store(c)
	v := h.version.Add(1)
	h.logger.Info("game config loaded", "dir", h.dataDir, "version", v, "checksum", c.Checksum(), "tables", c.Stats())
	return nil
}

// Watch 监听数据目录变化并自动重载，阻塞直到 ctx 取消
func (h *Holder) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := config.NewDirWatcher(h.dataDir, ".json", debounce,
		func() { _ = h.Reload() },
		func(err error) { h.logger.Warn("game config watcher error", "error", err) },
	)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// FieldPool 实现 repository.PoolSource
func (h *Holder) FieldPool(ft model.FieldType) ([]string, error) {
	return h.Catalog().FieldPool(ft)
}

// StorageCapacity 当前快照下的仓库容量
func (h *Holder) StorageCapacity(vip int) int {
	return h.Catalog().StorageCapacity(vip)
}
