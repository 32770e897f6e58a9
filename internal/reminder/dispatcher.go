// Package reminder 未读消息提醒：约 12 小时后第一次、14 小时后第二次，每条消息最多两封。
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/pkg/email"
	"github.com/qs3c/revastra_server/internal/repository"
)

// Store 提醒所需的消息查询与标记
type Store interface {
	ListNeedingFirstReminder(ctx context.Context, before time.Time, afterID int64, limit int) ([]repository.ReminderRow, error)
	ListNeedingSecondReminder(ctx context.Context, before, firstSentBefore time.Time, afterID int64, limit int) ([]repository.ReminderRow, error)
	MarkReminderSent(ctx context.Context, messageID int64, kind repository.ReminderKind, at time.Time) error
}

// Users 批量读取用户资料
type Users interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.User, error)
}

// Listings 读取商品标题
type Listings interface {
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
}

// PhaseReport 单个阶段的统计
type PhaseReport struct {
	Candidates int `json:"candidates"`
	Sent       int `json:"sent"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

func (p *PhaseReport) add(o PhaseReport) {
	p.Candidates += o.Candidates
	p.Sent += o.Sent
	p.Skipped += o.Skipped
	p.Failed += o.Failed
}

// Report 一次运行的统计
type Report struct {
	First  PhaseReport `json:"first"`
	Second PhaseReport `json:"second"`
}

// Failed 失败总数
func (r Report) Failed() int {
	return r.First.Failed + r.Second.Failed
}

type Dispatcher struct {
	store    Store
	users    Users
	listings Listings
	mailer   email.Mailer
	cfg      *config.ReminderConfig
	siteURL  string
	log      zerolog.Logger
	now      func() time.Time
}

func NewDispatcher(
	store Store,
	users Users,
	listings Listings,
	mailer email.Mailer,
	cfg *config.ReminderConfig,
	siteURL string,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:    store,
		users:    users,
		listings: listings,
		mailer:   mailer,
		cfg:      cfg,
		siteURL:  siteURL,
		log:      log,
		now:      time.Now,
	}
}

// Run 依次处理第一次和第二次提醒
//
// 候选按 id 游标逐批读取，失败或跳过的行不会挡住后面的行。
// 单条失败只记日志和计数，不中断批次；只有查询候选失败时返回 error。
// 第二次提醒要求第一次提醒已发出满两阶段的间隔，同一次运行不会连发两封。
func (d *Dispatcher) Run(ctx context.Context) (Report, error) {
	var report Report
	now := d.now()

	firstAfter := d.after(d.cfg.FirstAfterHours, 12)
	secondAfter := d.after(d.cfg.SecondAfterHours, 14)
	gap := secondAfter - firstAfter
	if gap < time.Hour {
		gap = time.Hour
	}

	var err error
	report.First, err = d.phase(ctx, repository.ReminderFirst, func(afterID int64) ([]repository.ReminderRow, error) {
		return d.store.ListNeedingFirstReminder(ctx, now.Add(-firstAfter), afterID, d.batchSize())
	})
	if err != nil {
		return report, fmt.Errorf("list first reminders: %w", err)
	}

	report.Second, err = d.phase(ctx, repository.ReminderSecond, func(afterID int64) ([]repository.ReminderRow, error) {
		return d.store.ListNeedingSecondReminder(ctx, now.Add(-secondAfter), now.Add(-gap), afterID, d.batchSize())
	})
	if err != nil {
		return report, fmt.Errorf("list second reminders: %w", err)
	}

	d.log.Info().
		Int("first_sent", report.First.Sent).
		Int("second_sent", report.Second.Sent).
		Int("skipped", report.First.Skipped+report.Second.Skipped).
		Int("failed", report.Failed()).
		Msg("reminder run finished")

	return report, nil
}

// phase 按游标翻页直到取不满一批
func (d *Dispatcher) phase(ctx context.Context, kind repository.ReminderKind, list func(afterID int64) ([]repository.ReminderRow, error)) (PhaseReport, error) {
	var total PhaseReport
	var cursor int64
	for {
		rows, err := list(cursor)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			return total, nil
		}
		total.add(d.dispatch(ctx, kind, rows))
		cursor = rows[len(rows)-1].MessageID
		if len(rows) < d.batchSize() || ctx.Err() != nil {
			return total, nil
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, kind repository.ReminderKind, rows []repository.ReminderRow) PhaseReport {
	phase := PhaseReport{Candidates: len(rows)}
	if len(rows) == 0 {
		return phase
	}

	ids := make([]int64, 0, len(rows)*2)
	for _, row := range rows {
		ids = append(ids, row.SenderID, row.RecipientID)
	}
	users, err := d.users.GetByIDs(ctx, ids)
	if err != nil {
		d.log.Error().Err(err).Str("kind", string(kind)).Msg("failed to load reminder users")
		phase.Failed = len(rows)
		return phase
	}

	for _, row := range rows {
		if ctx.Err() != nil {
			phase.Failed += phase.Candidates - phase.Sent - phase.Skipped - phase.Failed
			break
		}

		logger := d.log.With().Int64("message_id", row.MessageID).Str("kind", string(kind)).Logger()

		recipient, sender := users[row.RecipientID], users[row.SenderID]
		if recipient == nil || recipient.EmailAddress() == "" {
			logger.Debug().Int64("recipient_id", row.RecipientID).Msg("recipient has no email, skipping")
			phase.Skipped++
			continue
		}

		msg := d.render(ctx, kind, row, recipient, sender)
		if err := d.mailer.Send(ctx, msg); err != nil {
			logger.Warn().Err(err).Msg("failed to send reminder")
			phase.Failed++
			continue
		}

		if err := d.store.MarkReminderSent(ctx, row.MessageID, kind, d.now()); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				logger.Debug().Msg("reminder already marked")
			} else {
				logger.Warn().Err(err).Msg("failed to mark reminder sent")
				phase.Failed++
				continue
			}
		}
		phase.Sent++
	}
	return phase
}

func (d *Dispatcher) render(ctx context.Context, kind repository.ReminderKind, row repository.ReminderRow, recipient, sender *model.User) *email.Message {
	data := email.ReminderData{
		To:            recipient.EmailAddress(),
		RecipientName: recipient.DisplayName,
		SenderName:    "Someone",
		Preview:       email.Preview(row.Content, row.ImageURL != ""),
		Link:          email.ChatLink(d.siteURL, row.ConversationID),
	}
	if sender != nil && sender.DisplayName != "" {
		data.SenderName = sender.DisplayName
	}
	if row.ListingID != nil && d.listings != nil {
		if listing, err := d.listings.GetByID(ctx, *row.ListingID); err == nil {
			data.ListingTitle = listing.Title
		}
	}

	if kind == repository.ReminderSecond {
		return email.SecondReminder(data)
	}
	return email.FirstReminder(data)
}

func (d *Dispatcher) after(hours, fallback int) time.Duration {
	if hours <= 0 {
		hours = fallback
	}
	return time.Duration(hours) * time.Hour
}

func (d *Dispatcher) batchSize() int {
	if d.cfg.BatchSize <= 0 {
		return 200
	}
	return d.cfg.BatchSize
}
