package cron

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PassExpirer 过期通行证处理
type PassExpirer interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	passes   PassExpirer
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
	stopChan chan struct{}
	done     chan struct{}
}

func NewService(passes PassExpirer, interval time.Duration, log zerolog.Logger) *Service {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Service{
		passes:   passes,
		interval: interval,
		log:      log,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runPassExpiry()
	s.log.Info().Dur("interval", s.interval).Msg("cron service started (pass expiry)")
}

// Stop 停止定时任务并等待当前一轮结束
func (s *Service) Stop() {
	close(s.stopChan)
	<-s.done
	s.log.Info().Msg("cron service stopped")
}

// runPassExpiry 按固定间隔将过期的通行证置为失效
func (s *Service) runPassExpiry() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.expirePasses()
		}
	}
}

func (s *Service) expirePasses() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.passes.ExpireLapsed(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to expire lapsed passes")
		return
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("lapsed passes expired")
	}
}

// RunNow 立即执行一次（用于测试或手动触发）
func (s *Service) RunNow(ctx context.Context) (int64, error) {
	return s.passes.ExpireLapsed(ctx, s.now())
}
