package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/lk2023060901/mosoul/pkg/config"
)

// EnvPrefix 环境变量前缀，MOSOUL_LOG_LEVEL 对应 log.level
const EnvPrefix = "MOSOUL"

var (
	configPath string
	logPath    string
)

// LoadConfig 加载进程配置
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
func LoadConfig(target any, opts ...config.Option) error {
	// 1. 默认路径相对于可执行文件
	execDir, err := GetExecDir()
	if err != nil {
		return fmt.Errorf("failed to get executable directory: %w", err)
	}
	defaultConfig := filepath.Join(execDir, "config.yaml")
	defaultLog := filepath.Join(execDir, "logs", "mosoul.log")

	// 2. 命令行参数
	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if pflag.Lookup("log.path") == nil {
		pflag.StringVar(&logPath, "log.path", defaultLog, "output path for logs")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}

	// 3. 配置文件路径：--config > MOSOUL_CONFIG > 默认
	path := configPath
	if !pflag.CommandLine.Changed("config") {
		if env := os.Getenv(EnvPrefix + "_CONFIG"); env != "" {
			path = env
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s", path)
	}
	configPath = path

	// 4. 默认值和命令行覆盖
	opts = append(opts, config.WithDefaults(map[string]any{
		"log.output_path": defaultLog,
	}))
	if pflag.CommandLine.Changed("log.path") {
		opts = append(opts, config.WithOverrides(map[string]any{"log.output_path": logPath}))
	}

	// 5. 加载并解析
	mgr := config.NewManager(opts...)
	mgr.BindEnv(EnvPrefix)
	if err := mgr.LoadFile(configPath); err != nil {
		return err
	}
	if err := mgr.Unmarshal(target); err != nil {
		return err
	}

	// 6. 创建日志目录
	logPath = mgr.GetString("log.output_path")
	if dir := filepath.Dir(logPath); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

// GetExecDir 可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

// GetConfigPath 最终使用的配置文件路径
func GetConfigPath() string {
	return configPath
}

// Args 解析后的位置参数（子命令）
func Args() []string {
	return pflag.Args()
}
