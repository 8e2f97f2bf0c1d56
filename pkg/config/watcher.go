// pkg/config/watcher.go
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher 监听数据表目录 (热更新)
// 一段时间内的多次写入合并为一次回调，编辑器保存时常会产生多个事件
type DirWatcher struct {
	dir      string
	ext      string
	debounce time.Duration
	onChange func()
	onError  func(error)
}

// NewDirWatcher 创建目录监听器，只关心扩展名为 ext 的文件 (如 ".json")
func NewDirWatcher(dir, ext string, debounce time.Duration, onChange func(), onError func(error)) (*DirWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &DirWatcher{
		dir:      dir,
		ext:      ext,
		debounce: debounce,
		onChange: onChange,
		onError:  onError,
	}, nil
}

// Run 阻塞直到 ctx 取消
func (w *DirWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ext != "" && filepath.Ext(ev.Name) != w.ext {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		case <-timer.C:
			w.onChange()
		}
	}
}
