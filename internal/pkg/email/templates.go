package email

import (
	"fmt"
	"html"
	"strings"
)

const layout = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #9d174d;">रीवस्त्र Revastra</h2>
%s
        <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 20px 0;">
        <p style="color: #6b7280; font-size: 12px;">This email was sent automatically, please do not reply.</p>
    </div>
</body>
</html>
`

const button = `        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #9d174d; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">%s</a>
        </div>
`

// ReminderData 未读消息提醒模板参数
type ReminderData struct {
	To            string
	RecipientName string
	SenderName    string
	ListingTitle  string
	Preview       string
	Link          string
}

// VerificationCode 邮箱验证码
func VerificationCode(to, name, code string) *Message {
	body := fmt.Sprintf(`        <p>Hi %s,</p>
        <p>Use this code to verify your email address:</p>
        <div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">
            %s
        </div>
        <p>The code expires in 24 hours.</p>
`, html.EscapeString(name), html.EscapeString(code))

	return &Message{To: to, Subject: "Verify your email - Revastra", HTML: fmt.Sprintf(layout, body)}
}

// Welcome 欢迎邮件
func Welcome(to, name, siteURL string) *Message {
	body := fmt.Sprintf(`        <p>Hi %s, welcome to Revastra!</p>
        <p>Give your pre-loved clothes a second life, or find your next favourite outfit.</p>
        <ul>
            <li>List items you no longer wear</li>
            <li>Chat with buyers and sellers near you</li>
            <li>Pick a pass when you need more chats or listings</li>
        </ul>
`, html.EscapeString(name)) + fmt.Sprintf(button, siteURL, "Start exploring")

	return &Message{To: to, Subject: "Welcome to Revastra", HTML: fmt.Sprintf(layout, body)}
}

// NewMessage 对方离线时的新消息通知
func NewMessage(d ReminderData) *Message {
	body := fmt.Sprintf(`        <p>Hi %s,</p>
        <p><strong>%s</strong> sent you a message%s:</p>
        <blockquote style="border-left: 3px solid #9d174d; margin: 0; padding-left: 12px; color: #555;">%s</blockquote>
`, html.EscapeString(d.RecipientName), html.EscapeString(d.SenderName), aboutListing(d.ListingTitle), html.EscapeString(d.Preview)) +
		fmt.Sprintf(button, d.Link, "Reply now")

	return &Message{
		To:      d.To,
		Subject: fmt.Sprintf("New message from %s on Revastra", d.SenderName),
		HTML:    fmt.Sprintf(layout, body),
	}
}

// FirstReminder 未读约 12 小时后的第一次提醒
func FirstReminder(d ReminderData) *Message {
	body := fmt.Sprintf(`        <p>Hi %s,</p>
        <p><strong>%s</strong> is waiting for your reply%s.</p>
        <blockquote style="border-left: 3px solid #9d174d; margin: 0; padding-left: 12px; color: #555;">%s</blockquote>
        <p>Quick replies help you close deals faster.</p>
`, html.EscapeString(d.RecipientName), html.EscapeString(d.SenderName), aboutListing(d.ListingTitle), html.EscapeString(d.Preview)) +
		fmt.Sprintf(button, d.Link, "Open chat")

	return &Message{
		To:      d.To,
		Subject: fmt.Sprintf("%s is waiting for your reply", d.SenderName),
		HTML:    fmt.Sprintf(layout, body),
	}
}

// SecondReminder 第二次也是最后一次提醒
func SecondReminder(d ReminderData) *Message {
	body := fmt.Sprintf(`        <p>Hi %s,</p>
        <p>You still have an unread message from <strong>%s</strong>%s.</p>
        <blockquote style="border-left: 3px solid #9d174d; margin: 0; padding-left: 12px; color: #555;">%s</blockquote>
        <p>This is the last reminder we will send for this message.</p>
`, html.EscapeString(d.RecipientName), html.EscapeString(d.SenderName), aboutListing(d.ListingTitle), html.EscapeString(d.Preview)) +
		fmt.Sprintf(button, d.Link, "Reply now")

	return &Message{
		To:      d.To,
		Subject: fmt.Sprintf("Reminder: unread message from %s", d.SenderName),
		HTML:    fmt.Sprintf(layout, body),
	}
}

func aboutListing(title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}
	return fmt.Sprintf(` about <em>%s</em>`, html.EscapeString(title))
}

// Preview 截断消息内容用于邮件预览
func Preview(content string, hasImage bool) string {
	content = strings.TrimSpace(content)
	if content == "" && hasImage {
		return "[photo]"
	}
	runes := []rune(content)
	if len(runes) > 140 {
		return string(runes[:140]) + "..."
	}
	return content
}

// ChatLink 会话页面地址
func ChatLink(siteURL string, conversationID int64) string {
	return fmt.Sprintf("%s/messages/%d", strings.TrimRight(siteURL, "/"), conversationID)
}
