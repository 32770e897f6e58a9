package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
)

// ListingFilter 公开列表筛选条件
type ListingFilter struct {
	Category string
	City     string
	Size     string
	Query    string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	// PublishedBefore 非空时隐藏晚于该时间发布的商品（抢先看窗口）
	PublishedBefore *time.Time
}

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// WithTx 绑定到事务
func (r *ListingRepository) WithTx(tx *gorm.DB) *ListingRepository {
	return &ListingRepository{db: tx}
}

func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) error {
	return translate(r.db.WithContext(ctx).Create(l).Error)
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	var l model.Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *ListingRepository) GetByIDWithSeller(ctx context.Context, id int64) (*model.Listing, error) {
	var l model.Listing
	err := r.db.WithContext(ctx).Preload("Seller").Where("id = ?", id).First(&l).Error
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (r *ListingRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Updates(fields).Error
}

// TransitionStatus 仅当当前状态为 from 时更新，否则返回 ErrConflict
func (r *ListingRepository) TransitionStatus(ctx context.Context, id int64, from, to model.ListingStatus, fields map[string]interface{}) error {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["status"] = to

	res := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// ListBySeller 卖家自己的商品，不含已删除
func (r *ListingRepository) ListBySeller(ctx context.Context, sellerID int64, status model.ListingStatus, page, pageSize int) ([]*model.Listing, int64, error) {
	var listings []*model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{}).Where("seller_id = ?", sellerID)
	if status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status <> ?", model.ListingDeleted)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC, id DESC").
		Offset(offset(page, pageSize)).Limit(pageSize).
		Find(&listings).Error
	return listings, total, err
}

// ListPublic 对外展示的商品：已上架且已审核，优先卖家靠前
func (r *ListingRepository) ListPublic(ctx context.Context, f ListingFilter, page, pageSize int) ([]*model.Listing, int64, error) {
	var listings []*model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("status = ? AND is_approved = ?", model.ListingActive, true)

	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.City != "" {
		query = query.Where("city = ?", f.City)
	}
	if f.Size != "" {
		query = query.Where("size = ?", f.Size)
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		query = query.Where("(title LIKE ? OR brand LIKE ? OR description LIKE ?)", like, like, like)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if f.PublishedBefore != nil {
		query = query.Where("published_at <= ?", *f.PublishedBefore)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "is_priority DESC, published_at DESC, id DESC"
	switch f.Sort {
	case "price_asc":
		order = "is_priority DESC, price ASC, id DESC"
	case "price_desc":
		order = "is_priority DESC, price DESC, id DESC"
	}

	err := query.Preload("Seller").Order(order).
		Offset(offset(page, pageSize)).Limit(pageSize).
		Find(&listings).Error
	return listings, total, err
}

// ListPendingApproval 待审核（已上架未审核）
func (r *ListingRepository) ListPendingApproval(ctx context.Context, page, pageSize int) ([]*model.Listing, int64, error) {
	var listings []*model.Listing
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("status = ? AND is_approved = ?", model.ListingActive, false)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Seller").Order("published_at ASC, id ASC").
		Offset(offset(page, pageSize)).Limit(pageSize).
		Find(&listings).Error
	return listings, total, err
}

func (r *ListingRepository) CountByStatus(ctx context.Context, status model.ListingStatus, approved *bool) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&model.Listing{}).Where("status = ?", status)
	if approved != nil {
		query = query.Where("is_approved = ?", *approved)
	}
	err := query.Count(&count).Error
	return count, err
}

func (r *ListingRepository) CountActiveBySeller(ctx context.Context, sellerID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("seller_id = ? AND status = ? AND is_approved = ?", sellerID, model.ListingActive, true).
		Count(&count).Error
	return count, err
}

// SetPriorityBySeller 通行证变化后同步卖家所有商品的优先展示标记
func (r *ListingRepository) SetPriorityBySeller(ctx context.Context, sellerID int64, priority bool) error {
	return r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("seller_id = ? AND status <> ?", sellerID, model.ListingDeleted).
		Update("is_priority", priority).Error
}

// Approve 审核通过已上架商品；不是待审状态时返回 ErrConflict
func (r *ListingRepository) Approve(ctx context.Context, id, adminID int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Listing{}).
		Where("id = ? AND status = ? AND is_approved = ?", id, model.ListingActive, false).
		Updates(map[string]interface{}{
			"is_approved":      true,
			"approved_by":      adminID,
			"approved_at":      at,
			"rejection_reason": "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
