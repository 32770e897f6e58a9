package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
)

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// WithTx 绑定到事务
func (r *VerificationRepository) WithTx(tx *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: tx}
}

// CreatePending 新建待审申请；同一用户已有待审申请时返回 ErrConflict
func (r *VerificationRepository) CreatePending(ctx context.Context, req *model.VerificationRequest) error {
	userID := req.UserID
	req.Status = model.VerificationPending
	req.PendingUserID = &userID
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

func (r *VerificationRepository) GetByID(ctx context.Context, id int64) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *VerificationRepository) GetLatestByUser(ctx context.Context, userID int64) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").First(&req).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *VerificationRepository) ListByStatus(ctx context.Context, status string, page, pageSize int) ([]*model.VerificationRequest, int64, error) {
	var reqs []*model.VerificationRequest
	var total int64

	query := r.db.WithContext(ctx).Model(&model.VerificationRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("User").Order("id ASC").
		Offset(offset(page, pageSize)).Limit(pageSize).
		Find(&reqs).Error
	return reqs, total, err
}

// Decide 审核待审申请；已审核过返回 ErrConflict
func (r *VerificationRepository) Decide(ctx context.Context, id int64, status string, reviewerID int64, note string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Where("id = ? AND status = ?", id, model.VerificationPending).
		Updates(map[string]interface{}{
			"status":          status,
			"pending_user_id": nil,
			"reviewed_by":     reviewerID,
			"reviewed_at":     at,
			"note":            note,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *VerificationRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Where("status = ?", model.VerificationPending).
		Count(&count).Error
	return count, err
}
