package gameconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/lk2023060901/mosoul/pkg/logger"
)

// readTable 读取 dataDir 下的 <table>.json，原始内容写入 digest
// 可选表文件不存在时按空表处理
func readTable[T any](dataDir, table string, optional bool, digest *xxhash.Digest, l logger.Logger) ([]T, error) {
	filePath := filepath.Join(dataDir, table+".json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) && optional {
			l.Warn("optional config file not found, initializing as empty",
				"table", table,
				"path", filePath,
			)
			return []T{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}
	_, _ = digest.WriteString(table)
	_, _ = digest.Write(data)

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file %s: %w", filePath, err)
	}
	return rows, nil
}
