package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrInvalidReview = errors.New("评价内容不合法")
	ErrReviewExists  = errors.New("已经评价过该商品")
	ErrSelfReview    = errors.New("不能评价自己")
)

type ReviewService struct {
	db          *gorm.DB
	reviewRepo  *repository.ReviewRepository
	listingRepo *repository.ListingRepository
	validate    *validator.Validate
}

func NewReviewService(db *gorm.DB, reviewRepo *repository.ReviewRepository, listingRepo *repository.ListingRepository) *ReviewService {
	return &ReviewService{
		db:          db,
		reviewRepo:  reviewRepo,
		listingRepo: listingRepo,
		validate:    validator.New(),
	}
}

// Create 提交评价；校验在任何读写之前完成
func (s *ReviewService) Create(ctx context.Context, reviewerID int64, req *dto.CreateReviewRequest) (*model.SellerReview, error) {
	req.ReviewText = strings.TrimSpace(req.ReviewText)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidReview, describeValidation(err))
	}
	if reviewerID == req.SellerID {
		return nil, ErrSelfReview
	}

	listing, err := s.listingRepo.GetByID(ctx, req.ListingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.SellerID != req.SellerID {
		return nil, ErrListingSellerMismatch
	}

	review := &model.SellerReview{
		SellerID:   req.SellerID,
		ReviewerID: reviewerID,
		ListingID:  req.ListingID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	}
	for _, url := range req.Images {
		review.Images = append(review.Images, model.ReviewImage{ImageURL: url})
	}

	// 评价与图片一起写入
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.reviewRepo.WithTx(tx).Create(ctx, review)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrReviewExists
		}
		return nil, err
	}
	return review, nil
}

// ListBySeller 卖家收到的评价
func (s *ReviewService) ListBySeller(ctx context.Context, sellerID int64, page, pageSize int) ([]*model.SellerReview, int64, error) {
	page, pageSize = normalizePage(page, pageSize, 50)
	return s.reviewRepo.ListBySeller(ctx, sellerID, page, pageSize)
}

// Summary 评分汇总
func (s *ReviewService) Summary(ctx context.Context, sellerID int64) (*dto.RatingSummary, error) {
	avg, count, err := s.reviewRepo.Summary(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return &dto.RatingSummary{SellerID: sellerID, Average: avg, Count: count}, nil
}

// describeValidation 把校验错误拼成 field:tag 列表
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s:%s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
