package email

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qs3c/revastra_server/config"
)

// Message 一封 HTML 邮件
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer 发送邮件
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// NewMailer 配置了 SMTP 时返回 SMTP 实现，否则只记录日志
func NewMailer(cfg *config.EmailConfig, log zerolog.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &LoggingMailer{log: log}
	}
	return NewService(cfg)
}

// Service SMTP 发信（Resend 等服务商都提供 SMTP 接入）
type Service struct {
	cfg *config.EmailConfig
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg}
}

// Send 发送 HTML 邮件；配置了 test_recipient 时全部改投到该地址
func (s *Service) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := s.recipient(msg.To)
	if to == "" {
		return fmt.Errorf("empty recipient")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	return smtp.SendMail(s.addr(), auth, envelopeAddress(s.cfg.From), []string{to}, buildMessage(s.cfg.From, to, msg.Subject, msg.HTML))
}

// Ping 建立 SMTP 连接并握手，用于健康检查
func (s *Service) Ping(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return fmt.Errorf("failed to dial smtp: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer client.Close()

	if err := client.Hello("localhost"); err != nil {
		return fmt.Errorf("smtp hello failed: %w", err)
	}
	return client.Quit()
}

func (s *Service) recipient(to string) string {
	if s.cfg.TestRecipient != "" {
		return s.cfg.TestRecipient
	}
	return to
}

func (s *Service) addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
}

// buildMessage 拼装邮件头和正文；头部去掉换行，主题按 RFC 2047 编码
func buildMessage(from, to, subject, body string) []byte {
	headers := [][2]string{
		{"From", headerValue(from)},
		{"To", headerValue(to)},
		{"Subject", mime.QEncoding.Encode("UTF-8", headerValue(subject))},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}

func headerValue(v string) string {
	return strings.Join(strings.FieldsFunc(v, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}

// envelopeAddress 从 "Name <addr>" 中取出地址
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}

// LoggingMailer 未配置 SMTP 时使用，只打日志
type LoggingMailer struct {
	log zerolog.Logger
}

func (m *LoggingMailer) Send(ctx context.Context, msg *Message) error {
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email not sent: smtp not configured")
	return nil
}
