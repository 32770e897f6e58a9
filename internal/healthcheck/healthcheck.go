// Package healthcheck 部署后自检：数据库、表结构、redis、两个 bucket、SMTP、API。
package healthcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/pkg/storage"
)

const DefaultTimeout = 10 * time.Second

// Probe 一项检查
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Result 检查结果
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Runner struct {
	probes  []Probe
	timeout time.Duration
}

func NewRunner(timeout time.Duration, probes ...Probe) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{probes: probes, timeout: timeout}
}

// Run 依次执行，每项独立超时；不理会 ctx 的检查也会在超时后被判失败
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.probes))
	for _, p := range r.probes {
		results = append(results, r.runOne(ctx, p))
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, p Probe) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- p.Check(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("timed out after %s", r.timeout)
	}
	return Result{Name: p.Name, Err: err, Duration: time.Since(start)}
}

// AllPassed 全部通过
func AllPassed(results []Result) bool {
	for _, res := range results {
		if !res.OK() {
			return false
		}
	}
	return true
}

// Print 每项一行
func Print(w io.Writer, results []Result) {
	for _, res := range results {
		if res.OK() {
			fmt.Fprintf(w, "[PASS] %-10s %s\n", res.Name, res.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(w, "[FAIL] %-10s %v\n", res.Name, res.Err)
		}
	}
	passed := 0
	for _, res := range results {
		if res.OK() {
			passed++
		}
	}
	fmt.Fprintf(w, "%d/%d checks passed\n", passed, len(results))
}

// Database 数据库连通
func Database(db *gorm.DB) Probe {
	return Probe{Name: "database", Check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

// Schema 必需的表都存在
func Schema(db *gorm.DB, tables []string) Probe {
	return Probe{Name: "schema", Check: func(ctx context.Context) error {
		migrator := db.WithContext(ctx).Migrator()
		var missing []string
		for _, table := range tables {
			if !migrator.HasTable(table) {
				missing = append(missing, table)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
		}
		return nil
	}}
}

// Redis ping
func Redis(rdb *redis.Client) Probe {
	return Probe{Name: "redis", Check: func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}}
}

// Bucket 对象存储可访问
func Bucket(name string, b storage.Bucket) Probe {
	return Probe{Name: name, Check: func(ctx context.Context) error {
		if err := b.Ping(ctx); err != nil {
			return fmt.Errorf("bucket %s: %w", b.Name(), err)
		}
		return nil
	}}
}

// Pinger SMTP 等只需要握手的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// SMTP 邮件服务握手
func SMTP(p Pinger) Probe {
	return Probe{Name: "smtp", Check: p.Ping}
}

// API GET {baseURL}/healthz 返回 200
func API(client *http.Client, baseURL string) Probe {
	return Probe{Name: "api", Check: func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/healthz", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	}}
}
