package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/revastra_server/internal/pkg/email"
	"github.com/qs3c/revastra_server/internal/pkg/queue"
)

// JobSource 邮件任务来源
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.EmailJob, error)
}

// Processor 邮件任务处理器
type Processor struct {
	mailer  email.Mailer
	siteURL string
	log     zerolog.Logger
}

// NewProcessor 创建邮件任务处理器
func NewProcessor(mailer email.Mailer, siteURL string, log zerolog.Logger) *Processor {
	return &Processor{
		mailer:  mailer,
		siteURL: siteURL,
		log:     log,
	}
}

// Process 渲染并发送一封邮件
func (p *Processor) Process(ctx context.Context, job *queue.EmailJob) error {
	msg, err := p.render(job)
	if err != nil {
		return err
	}
	if err := p.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s email: %w", job.Kind, err)
	}
	return nil
}

func (p *Processor) render(job *queue.EmailJob) (*email.Message, error) {
	if job.To == "" {
		return nil, fmt.Errorf("%s job has no recipient", job.Kind)
	}

	switch job.Kind {
	case queue.KindVerification:
		if job.Code == "" {
			return nil, fmt.Errorf("verification job has no code")
		}
		return email.VerificationCode(job.To, job.RecipientName, job.Code), nil
	case queue.KindWelcome:
		return email.Welcome(job.To, job.RecipientName, p.siteURL), nil
	case queue.KindNewMessage:
		return email.NewMessage(email.ReminderData{
			To:            job.To,
			RecipientName: job.RecipientName,
			SenderName:    job.SenderName,
			ListingTitle:  job.ListingTitle,
			Preview:       job.Preview,
			Link:          email.ChatLink(p.siteURL, job.ConversationID),
		}), nil
	}
	return nil, fmt.Errorf("unknown job kind %q", job.Kind)
}

// Run 启动 workers 个协程消费队列，ctx 取消后等待全部退出
func (p *Processor) Run(ctx context.Context, src JobSource, workers int, popTimeout time.Duration) {
	if workers <= 0 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, src, workerID, popTimeout)
		}(i)
	}
	wg.Wait()
}

func (p *Processor) loop(ctx context.Context, src JobSource, workerID int, popTimeout time.Duration) {
	logger := p.log.With().Int("worker", workerID).Logger()
	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("worker shutting down")
			return
		default:
		}

		// 从队列获取任务
		job, err := src.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("failed to pop job")
			continue
		}
		if job == nil {
			continue // 超时，继续等待
		}

		if err := p.Process(ctx, job); err != nil {
			logger.Error().Err(err).Str("kind", job.Kind).Msg("email job failed")
			continue
		}
		logger.Info().Str("kind", job.Kind).Msg("email job sent")
	}
}
