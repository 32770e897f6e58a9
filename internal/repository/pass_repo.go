package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
)

type PassRepository struct {
	db *gorm.DB
}

func NewPassRepository(db *gorm.DB) *PassRepository {
	return &PassRepository{db: db}
}

// WithTx 绑定到事务
func (r *PassRepository) WithTx(tx *gorm.DB) *PassRepository {
	return &PassRepository{db: tx}
}

func (r *PassRepository) Create(ctx context.Context, p *model.UserPass) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

// GetCurrent 返回 now 时刻最新的有效分配，没有时返回 ErrNotFound
func (r *PassRepository) GetCurrent(ctx context.Context, userID int64, now time.Time) (*model.UserPass, error) {
	var p model.UserPass
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND starts_at <= ? AND expires_at > ?", userID, true, now, now).
		Order("starts_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// DeactivateAll 停用用户所有仍处于 active 的分配
func (r *PassRepository) DeactivateAll(ctx context.Context, userID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.UserPass{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ListLapsed 已过期但仍标记 active 的分配
func (r *PassRepository) ListLapsed(ctx context.Context, now time.Time) ([]*model.UserPass, error) {
	var passes []*model.UserPass
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Order("id ASC").
		Find(&passes).Error
	return passes, err
}

// ExpireLapsed 把过期分配标记为 inactive
func (r *PassRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.UserPass{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (r *PassRepository) ListByUser(ctx context.Context, userID int64) ([]*model.UserPass, error) {
	var passes []*model.UserPass
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&passes).Error
	return passes, err
}

func (r *PassRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserPass{}).
		Where("is_active = ? AND expires_at > ?", true, now).
		Count(&count).Error
	return count, err
}

func (r *PassRepository) CreateOrder(ctx context.Context, o *model.PaymentOrder) error {
	return translate(r.db.WithContext(ctx).Create(o).Error)
}

func (r *PassRepository) GetOrder(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	var o model.PaymentOrder
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error; err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// MarkOrderPaid 条件更新 created -> paid，订单已核销时返回 ErrConflict
func (r *PassRepository) MarkOrderPaid(ctx context.Context, orderID, paymentID string) error {
	res := r.db.WithContext(ctx).Model(&model.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, model.OrderCreated).
		Updates(map[string]interface{}{"status": model.OrderPaid, "payment_id": paymentID})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
