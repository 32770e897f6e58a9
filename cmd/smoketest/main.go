package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/database"
	"github.com/qs3c/revastra_server/internal/pkg/logger"
	"github.com/qs3c/revastra_server/internal/repository"
)

// 连接冒烟测试：SELECT 1 并统计用户数
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Error().Err(err).Msg("connection failed")
		os.Exit(1)
	}

	var one int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		log.Error().Err(err).Int("result", one).Msg("SELECT 1 failed")
		os.Exit(1)
	}
	log.Info().Msg("SELECT 1 ok")

	profiles, err := repository.NewUserRepository(db).Count(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count profiles")
		os.Exit(1)
	}
	log.Info().Int64("profiles", profiles).Msg("connection smoke test passed")
}
