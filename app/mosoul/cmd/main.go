package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lk2023060901/mosoul/app/mosoul/internal/gameconfig"
	"github.com/lk2023060901/mosoul/pkg/app"
	"github.com/lk2023060901/mosoul/pkg/config"
	"github.com/lk2023060901/mosoul/pkg/logger"
	"github.com/lk2023060901/mosoul/pkg/sentry"
)

const usage = `usage: mosoul [--config path] <command>

commands:
  serve               run the relic service (default)
  pity get <key>      show a global pity counter
  pity reset <key>    reset a global pity counter (count and lifetime consumption)
  catalog check       load and validate the game tables
  version             print build information
`

func main() {
	if err := start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func start() error {
	var cfg Config

	// 1. 加载配置
	if err := app.LoadConfig(&cfg); err != nil {
		return err
	}
	if err := config.NewValidator().Validate(&cfg); err != nil {
		return err
	}

	// 2. 错误上报，启用时 Error 日志同步上报 Sentry
	var logOpts []logger.Option
	if cfg.Sentry.Enabled {
		reporter, err := sentry.New(&cfg.Sentry)
		if err != nil {
			return err
		}
		defer func() { _ = reporter.Close() }()
		logOpts = append(logOpts, logger.WithHooks(sentry.LogHook(reporter)))
	}

	// 3. 初始化主日志
	l, err := logger.New(&cfg.Log, logOpts...)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	// 4. 执行子命令
	if err := run(&cfg, l, app.Args()); err != nil {
		l.Error("command failed", "error", err)
		return err
	}
	return nil
}

func run(cfg *Config, l logger.Logger, args []string) error {
	if len(args) == 0 {
		args = []string{"serve"}
	}

	switch args[0] {
	case "serve":
		application, cleanup, err := InitApp(cfg, l)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		defer cleanup()
		return application.Run()

	case "pity":
		if len(args) != 3 {
			return fmt.Errorf("%s", usage)
		}
		return runPity(cfg, l, args[1], args[2])

	case "catalog":
		if len(args) != 2 || args[1] != "check" {
			return fmt.Errorf("%s", usage)
		}
		return runCatalogCheck(cfg, l)

	case "version":
		fmt.Println(app.GetInfo().String())
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func runPity(cfg *Config, l logger.Logger, op, key string) error {
	svc, cleanup, err := InitPityService(cfg, l)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch op {
	case "get":
		c, err := svc.Get(ctx, key)
		if err != nil {
			return err
		}
		fmt.Printf("key=%s count=%d threshold=%d remaining=%d lifetime_currency_consumed=%d\n",
			c.Key, c.Count, c.Threshold, c.Remaining(), c.LifetimeCurrencyConsumed)
		return nil
	case "reset":
		if err := svc.Reset(ctx, key); err != nil {
			return err
		}
		fmt.Printf("pity counter %s reset\n", key)
		return nil
	default:
		return fmt.Errorf("unknown pity operation %q\n%s", op, usage)
	}
}

func runCatalogCheck(cfg *Config, l logger.Logger) error {
	cat, err := gameconfig.Load(cfg.GameConfig.DataDir, l)
	if err != nil {
		return err
	}
	stats := cat.Stats()
	parts := make([]string, 0, len(stats))
	for _, table := range []string{
		gameconfig.TableRelic,
		gameconfig.TableUpgrade,
		gameconfig.TableVIPStorage,
		gameconfig.TableHuntField,
		gameconfig.TablePity,
	} {
		parts = append(parts, fmt.Sprintf("%s=%d", table, stats[table]))
	}
	fmt.Printf("catalog ok: checksum=%016x %s\n", cat.Checksum(), strings.Join(parts, " "))
	return nil
}
