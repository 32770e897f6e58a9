package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/database"
	"github.com/qs3c/revastra_server/internal/pkg/email"
	"github.com/qs3c/revastra_server/internal/pkg/logger"
	"github.com/qs3c/revastra_server/internal/reminder"
	"github.com/qs3c/revastra_server/internal/repository"
)

var schedule = flag.String("schedule", "", `cron spec to keep running, e.g. "@every 1h"; empty runs once`)

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
		log.Error().Err(err).Msg("failed to connect database")
		os.Exit(1)
	}

	dispatcher := reminder.NewDispatcher(
		repository.NewMessageRepository(db),
		repository.NewUserRepository(db),
		repository.NewListingRepository(db),
		email.NewMailer(&cfg.Email, log),
		&cfg.Reminder,
		cfg.Email.SiteURL,
		log,
	)

	spec := *schedule
	if spec == "" {
		spec = cfg.Reminder.Schedule
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if spec == "" {
		code := oneShot(ctx, dispatcher, log)
		stop()
		os.Exit(code)
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(&log))))
	if _, err := c.AddFunc(spec, func() { _ = runOnce(ctx, dispatcher, log) }); err != nil {
		log.Error().Err(err).Str("schedule", spec).Msg("invalid schedule")
		os.Exit(1)
	}
	c.Start()
	log.Info().Str("schedule", spec).Msg("reminder scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info().Msg("reminder scheduler stopped")
}

// oneShot 单次运行的退出码：候选查询失败为 1，单条发送失败仍为 0
func oneShot(ctx context.Context, d *reminder.Dispatcher, log zerolog.Logger) int {
	if err := runOnce(ctx, d, log); err != nil {
		return 1
	}
	return 0
}

func runOnce(ctx context.Context, d *reminder.Dispatcher, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	report, err := d.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reminder run failed")
		return err
	}
	if report.Failed() > 0 {
		log.Warn().Int("failed", report.Failed()).Msg("some reminders were not sent")
	}
	return nil
}
