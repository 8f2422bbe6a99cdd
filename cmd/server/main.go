package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/freightlane/internal/app"
	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/metrics"
	"github.com/freightlane/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	mode := flag.String("mode", app.ModeAll, "启动模式: all, api, worker")
	configPath := flag.String("config", "", "配置文件路径，默认按 FREIGHTLANE_CONFIG 或 ./config.yml 查找")
	migrateOnly := flag.Bool("migrate", false, "仅执行数据库迁移后退出")
	flag.Parse()

	if err := run(*mode, *configPath, *migrateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "freightlane: %v\n", err)
		os.Exit(1)
	}
}

func run(mode, configPath string, migrateOnly bool) error {
	if configPath == "" {
		configPath = os.Getenv("FREIGHTLANE_CONFIG")
	}
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	release := cfg.Server.Mode == "release"

	if cfg.JWT.WeakJWTSecret() {
		if release {
			return errors.New("jwt.secret is weak or still the sample value")
		}
		logger.Warnw("jwt_secret_weak", "mode", cfg.Server.Mode)
	}

	if err := ensureSQLiteDir(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		return fmt.Errorf("prepare sqlite dir: %w", err)
	}
	pool := cfg.Database.Pool
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, !release, models.DBPoolConfig{
		MaxOpenConns:           pool.MaxOpenConns,
		MaxIdleConns:           pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		return err
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Infow("db_migrated", "driver", cfg.Database.Driver)
	if migrateOnly {
		return nil
	}

	if cfg.Metrics.Enabled {
		if sqlDB, err := models.DB.DB(); err == nil {
			if err := metrics.RegisterDBStats(sqlDB, "freightlane"); err != nil {
				logger.Warnw("metrics_register_db_stats_failed", "error", err)
			}
		}
	}
	if release {
		gin.SetMode(gin.ReleaseMode)
	}

	return app.Run(app.Options{Config: cfg, Logger: logger.S(), Mode: mode})
}

// ensureSQLiteDir 为文件型 sqlite DSN 创建所在目录
func ensureSQLiteDir(driver, dsn string) error {
	if d := strings.ToLower(strings.TrimSpace(driver)); d != "" && d != "sqlite" {
		return nil
	}
	path := strings.TrimPrefix(strings.TrimSpace(dsn), "file:")
	path, _, _ = strings.Cut(path, "?")
	if path == "" || path == ":memory:" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
