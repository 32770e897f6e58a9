package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
)

// ReminderKind 提醒阶段
type ReminderKind string

const (
	ReminderFirst  ReminderKind = "first"
	ReminderSecond ReminderKind = "second"
)

func (k ReminderKind) column() (string, error) {
	switch k {
	case ReminderFirst:
		return "first_reminder_sent_at", nil
	case ReminderSecond:
		return "second_reminder_sent_at", nil
	}
	return "", fmt.Errorf("unknown reminder kind %q", k)
}

// ReminderRow 待提醒的未读消息
type ReminderRow struct {
	MessageID      int64     `gorm:"column:message_id"`
	ConversationID int64     `gorm:"column:conversation_id"`
	SenderID       int64     `gorm:"column:sender_id"`
	RecipientID    int64     `gorm:"column:recipient_id"`
	Content        string    `gorm:"column:content"`
	ImageURL       string    `gorm:"column:image_url"`
	ListingID      *int64    `gorm:"column:listing_id"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// WithTx 绑定到事务
func (r *MessageRepository) WithTx(tx *gorm.DB) *MessageRepository {
	return &MessageRepository{db: tx}
}

func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	var m model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// ListByConversation 按插入顺序分页
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64, page, pageSize int) ([]*model.Message, int64, error) {
	var msgs []*model.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Message{}).Where("conversation_id = ?", conversationID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("id ASC").Offset(offset(page, pageSize)).Limit(pageSize).Find(&msgs).Error
	return msgs, total, err
}

// LatestIn 每个会话的最后一条消息，按会话 id 索引
func (r *MessageRepository) LatestIn(ctx context.Context, conversationIDs []int64) (map[int64]*model.Message, error) {
	out := make(map[int64]*model.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}

	lastIDs := r.db.WithContext(ctx).Model(&model.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id")

	var msgs []*model.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", lastIDs).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.ConversationID] = m
	}
	return out, nil
}

// UnreadIn 各会话中发给 readerID 的未读数，没有未读的会话不出现在结果里
func (r *MessageRepository) UnreadIn(ctx context.Context, conversationIDs []int64, readerID int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ConversationID int64
		Unread         int64
	}
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", conversationIDs, readerID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConversationID] = row.Unread
	}
	return out, nil
}

// CountUnreadForUser 用户所有会话的未读总数
func (r *MessageRepository) CountUnreadForUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("messages AS m").
		Joins("JOIN conversations c ON c.id = m.conversation_id").
		Where("(c.buyer_id = ? OR c.seller_id = ?) AND m.sender_id <> ? AND m.is_read = ?", userID, userID, userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 把会话中对方发来的未读消息置为已读，返回更新条数
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerID int64, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// reminderQuery 未读消息及其收件人；收件人没有邮箱的行直接排除，
// 否则它们会一直占据批次头部
func (r *MessageRepository) reminderQuery(ctx context.Context, afterID int64, limit int) *gorm.DB {
	return r.db.WithContext(ctx).Table("messages AS m").
		Select(`m.id AS message_id, m.conversation_id, m.sender_id,
			p.id AS recipient_id, m.content, m.image_url, c.listing_id, m.created_at`).
		Joins("JOIN conversations c ON c.id = m.conversation_id").
		Joins("JOIN profiles p ON p.id = CASE WHEN c.buyer_id = m.sender_id THEN c.seller_id ELSE c.buyer_id END").
		Where("m.is_read = ? AND m.id > ?", false, afterID).
		Where("p.email IS NOT NULL AND p.email <> ''").
		Order("m.id ASC").
		Limit(limit)
}

// ListNeedingFirstReminder 早于 before 发出、仍未读且未发过第一次提醒，按 id 游标分页
func (r *MessageRepository) ListNeedingFirstReminder(ctx context.Context, before time.Time, afterID int64, limit int) ([]ReminderRow, error) {
	var rows []ReminderRow
	err := r.reminderQuery(ctx, afterID, limit).
		Where("m.first_reminder_sent_at IS NULL AND m.created_at <= ?", before).
		Scan(&rows).Error
	return rows, err
}

// ListNeedingSecondReminder 早于 before 发出、第一次提醒不晚于 firstSentBefore 且仍未读
func (r *MessageRepository) ListNeedingSecondReminder(ctx context.Context, before, firstSentBefore time.Time, afterID int64, limit int) ([]ReminderRow, error) {
	var rows []ReminderRow
	err := r.reminderQuery(ctx, afterID, limit).
		Where("m.first_reminder_sent_at IS NOT NULL AND m.first_reminder_sent_at <= ?", firstSentBefore).
		Where("m.second_reminder_sent_at IS NULL AND m.created_at <= ?", before).
		Scan(&rows).Error
	return rows, err
}

// MarkReminderSent 记录提醒已发送；只在对应列为空时写入，已写过返回 ErrConflict
func (r *MessageRepository) MarkReminderSent(ctx context.Context, messageID int64, kind ReminderKind, at time.Time) error {
	column, err := kind.column()
	if err != nil {
		return err
	}

	query := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND "+column+" IS NULL", messageID)
	if kind == ReminderSecond {
		query = query.Where("first_reminder_sent_at IS NOT NULL")
	}

	res := query.Update(column, at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *MessageRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
