package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/database"
	"github.com/qs3c/revastra_server/internal/healthcheck"
	"github.com/qs3c/revastra_server/internal/pkg/email"
	"github.com/qs3c/revastra_server/internal/pkg/storage"
)

func main() {
	os.Exit(run())
}

// run 返回进程退出码，defer 的资源在退出前都会释放
func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	timeout := time.Duration(cfg.Health.TimeoutSeconds) * time.Second
	ctx := context.Background()

	var probes []healthcheck.Probe

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		probes = append(probes, failed("database", err), failed("schema", err))
	} else {
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		probes = append(probes, healthcheck.Database(db), healthcheck.Schema(db, database.RequiredTables))
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		probes = append(probes, failed("redis", err))
	} else {
		defer rdb.Close()
		probes = append(probes, healthcheck.Redis(rdb))
	}

	buckets, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		probes = append(probes, failed("media_bucket", err), failed("chat_bucket", err))
	} else {
		probes = append(probes,
			healthcheck.Bucket("media_bucket", buckets.Media),
			healthcheck.Bucket("chat_bucket", buckets.Chat))
	}

	probes = append(probes,
		healthcheck.SMTP(email.NewService(&cfg.Email)),
		healthcheck.API(&http.Client{Timeout: timeout}, cfg.Health.APIURL),
	)

	return report(os.Stdout, healthcheck.NewRunner(timeout, probes...).Run(ctx))
}

func report(w io.Writer, results []healthcheck.Result) int {
	healthcheck.Print(w, results)
	if !healthcheck.AllPassed(results) {
		return 1
	}
	return 0
}

// failed 初始化就失败的依赖仍然占一行结果
func failed(name string, err error) healthcheck.Probe {
	return healthcheck.Probe{Name: name, Check: func(context.Context) error { return err }}
}
