package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// WithTx 绑定到事务
func (r *ReviewRepository) WithTx(tx *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: tx}
}

// Create 写入评价及图片；(reviewer, listing) 重复时返回 ErrConflict
func (r *ReviewRepository) Create(ctx context.Context, review *model.SellerReview) error {
	return translate(r.db.WithContext(ctx).Create(review).Error)
}

func (r *ReviewRepository) Exists(ctx context.Context, reviewerID, listingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SellerReview{}).
		Where("reviewer_id = ? AND listing_id = ?", reviewerID, listingID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewRepository) ListBySeller(ctx context.Context, sellerID int64, page, pageSize int) ([]*model.SellerReview, int64, error) {
	var reviews []*model.SellerReview
	var total int64

	query := r.db.WithContext(ctx).Model(&model.SellerReview{}).Where("seller_id = ?", sellerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Reviewer").Preload("Images").
		Order("created_at DESC, id DESC").
		Offset(offset(page, pageSize)).Limit(pageSize).
		Find(&reviews).Error
	return reviews, total, err
}

// Summary 平均分与评价数
func (r *ReviewRepository) Summary(ctx context.Context, sellerID int64) (float64, int64, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&model.SellerReview{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("seller_id = ?", sellerID).
		Scan(&row).Error
	return row.Average, row.Count, err
}

type WishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Add 重复收藏返回 ErrConflict
func (r *WishlistRepository) Add(ctx context.Context, userID, listingID int64) error {
	return translate(r.db.WithContext(ctx).Create(&model.WishlistItem{UserID: userID, ListingID: listingID}).Error)
}

// Remove 返回是否删除了记录
func (r *WishlistRepository) Remove(ctx context.Context, userID, listingID int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&model.WishlistItem{})
	return res.RowsAffected > 0, res.Error
}

func (r *WishlistRepository) Exists(ctx context.Context, userID, listingID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WishlistItem{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	return count > 0, err
}

func (r *WishlistRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*model.WishlistItem, int64, error) {
	var items []*model.WishlistItem
	var total int64

	query := r.db.WithContext(ctx).Model(&model.WishlistItem{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Listing").Order("id DESC").
		Offset(offset(page, pageSize)).Limit(pageSize).
		Find(&items).Error
	return items, total, err
}
