package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/database"
	"github.com/qs3c/revastra_server/internal/pkg/logger"
	"github.com/qs3c/revastra_server/internal/pkg/payment"
	"github.com/qs3c/revastra_server/internal/repository"
	"github.com/qs3c/revastra_server/internal/service"
)

var dryRun = flag.Bool("dry-run", true, "Dry run mode, only list lapsed passes")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	passRepo := repository.NewPassRepository(db)
	now := time.Now()

	lapsed, err := passRepo.ListLapsed(ctx, now)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list lapsed passes")
	}

	for _, p := range lapsed {
		log.Info().
			Int64("user_id", p.UserID).
			Str("pass_type", p.PassType).
			Time("expired_at", p.ExpiresAt).
			Msg("lapsed pass")
	}

	expired := int64(0)
	if !*dryRun && len(lapsed) > 0 {
		passes := service.NewPassService(db, passRepo, repository.NewListingRepository(db),
			payment.NewVerifier(cfg.Payment.KeySecret), &cfg.Pass)
		expired, err = passes.ExpireLapsed(ctx, now)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to expire lapsed passes")
		}
	}

	active, err := passRepo.CountActive(ctx, now)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to count active passes")
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Pass cleanup summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Lapsed passes:  %d\n", len(lapsed))
	fmt.Printf("Expired now:    %d\n", expired)
	fmt.Printf("Active passes:  %d\n", active)
	if *dryRun {
		fmt.Println("DRY RUN MODE - nothing was changed, run with -dry-run=false to expire")
	}
	fmt.Println(strings.Repeat("=", 60))
}
