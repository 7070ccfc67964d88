package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/housekeeping"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notify"
	"storefront/internal/logger"
	"storefront/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .envは無くてもよい（本番は環境変数）
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		zlog.Fatal("db connect", zap.Error(err))
	}
	if err := db.Migrate(ctx, gormDB, zlog); err != nil {
		zlog.Fatal("db migrate", zap.Error(err))
	}

	//任意の外部サービス（未設定なら無効）
	var ext server.Externals
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, zlog)
		if err != nil {
			zlog.Warn("redis unavailable, cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			ext.Cache = cache.NewProductCache(rdb, cfg.CacheTTL, zlog)
		}
	}
	if cfg.SMTPHost != "" {
		ext.Mailer = notify.NewEmailSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := notify.NewOrderEventProducer(cfg.KafkaBrokers, cfg.KafkaOrdersTopic)
		defer producer.Close()
		ext.Events = producer
	}

	app := server.Build(cfg, gormDB, zlog, ext)

	//定期掃除
	if cfg.HousekeepingEnabled {
		sched, err := housekeeping.NewScheduler(app.Cleanup, zlog)
		if err != nil {
			zlog.Fatal("housekeeping", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	if err := server.Start(ctx, app.Echo, cfg.Addr(), zlog); err != nil {
		zlog.Error("server stopped", zap.Error(err))
	}
}
