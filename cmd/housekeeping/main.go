package main

import (
	"context"
	"log"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/housekeeping"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// 掃除ジョブを1回だけ流す（外部cronから呼ぶ用）
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.GoEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		zlog.Fatal("db connect", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc := housekeeping.NewCleanupService(
		infraRepo.NewUserActivityGormRepository(gormDB),
		infraRepo.NewProductViewGormRepository(gormDB),
		infraRepo.NewRefreshTokenRepository(gormDB),
		zlog,
	)
	if err := svc.RunAll(ctx); err != nil {
		zlog.Error("housekeeping failed", zap.Error(err))
		os.Exit(1)
	}
}
