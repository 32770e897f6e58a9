package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs3c/revastra_server/internal/model"
)

const (
	columnChatsUsed    = "chats_used"
	columnListingsUsed = "listings_used"
)

// UsageRepository 用量计数，只提供递增操作
type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// WithTx 绑定到事务
func (r *UsageRepository) WithTx(tx *gorm.DB) *UsageRepository {
	return &UsageRepository{db: tx}
}

// Get 查询用量，没有记录时返回零值
func (r *UsageRepository) Get(ctx context.Context, userID int64) (*model.UserUsage, error) {
	var usage model.UserUsage
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&usage).Error
	if err != nil {
		if translate(err) == ErrNotFound {
			return &model.UserUsage{UserID: userID}, nil
		}
		return nil, err
	}
	return &usage, nil
}

// ReserveChat 在额度内原子地占用一次会话额度，超出返回 ErrLimitReached
func (r *UsageRepository) ReserveChat(ctx context.Context, userID int64, limit int, unlimited bool) error {
	return r.reserve(ctx, userID, columnChatsUsed, limit, unlimited)
}

// ReserveListing 在额度内原子地占用一次发布额度
func (r *UsageRepository) ReserveListing(ctx context.Context, userID int64, limit int, unlimited bool) error {
	return r.reserve(ctx, userID, columnListingsUsed, limit, unlimited)
}

// IncrementChats 无条件 +1
func (r *UsageRepository) IncrementChats(ctx context.Context, userID int64) error {
	return r.reserve(ctx, userID, columnChatsUsed, 0, true)
}

// IncrementListings 无条件 +1
func (r *UsageRepository) IncrementListings(ctx context.Context, userID int64) error {
	return r.reserve(ctx, userID, columnListingsUsed, 0, true)
}

func (r *UsageRepository) ensureRow(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserUsage{UserID: userID}).Error
}

// reserve 条件递增：UPDATE ... SET col = col + 1 WHERE user_id = ? AND col < limit
func (r *UsageRepository) reserve(ctx context.Context, userID int64, column string, limit int, unlimited bool) error {
	if err := r.ensureRow(ctx, userID); err != nil {
		return err
	}

	q := r.db.WithContext(ctx).Model(&model.UserUsage{}).Where("user_id = ?", userID)
	if !unlimited {
		q = q.Where(column+" < ?", limit)
	}

	res := q.Update(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrLimitReached
	}
	return nil
}
