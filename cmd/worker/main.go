package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/database"
	"github.com/qs3c/revastra_server/internal/pkg/email"
	"github.com/qs3c/revastra_server/internal/pkg/logger"
	"github.com/qs3c/revastra_server/internal/pkg/queue"
	"github.com/qs3c/revastra_server/internal/worker"
)

func main() {
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()
	log.Info().Msg("redis connected")

	jobs := queue.NewQueue(rdb, cfg.Queue.EmailQueue)
	processor := worker.NewProcessor(email.NewMailer(&cfg.Email, log), cfg.Email.SiteURL, log)

	// 监听退出信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Int("workers", cfg.Queue.MaxWorkers).Str("queue", cfg.Queue.EmailQueue).Msg("worker started")
	processor.Run(ctx, jobs, cfg.Queue.MaxWorkers, 5*time.Second)
	log.Info().Msg("worker shutdown complete")
}
