package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrListingNotFound     = errors.New("商品不存在")
	ErrListingNeedsImage   = errors.New("上架商品至少需要一张图片")
	ErrTooManyImages       = errors.New("图片数量超过限制")
	ErrInvalidTransition   = errors.New("不允许的状态变更")
	ErrListingNotEditable  = errors.New("商品当前状态不可编辑")
	ErrForbidden           = errors.New("无权操作")
	ErrInvalidListingInput = errors.New("商品信息不合法")
)

type ListingService struct {
	db           *gorm.DB
	listingRepo  *repository.ListingRepository
	usageRepo    *repository.UsageRepository
	wishlistRepo *repository.WishlistRepository
	passes       *PassService
	uploads      *UploadService
	validate     *validator.Validate
	cfg          *config.ListingConfig
	now          func() time.Time
}

func NewListingService(
	db *gorm.DB,
	listingRepo *repository.ListingRepository,
	usageRepo *repository.UsageRepository,
	wishlistRepo *repository.WishlistRepository,
	passes *PassService,
	uploads *UploadService,
	cfg *config.ListingConfig,
) *ListingService {
	return &ListingService{
		db:           db,
		listingRepo:  listingRepo,
		usageRepo:    usageRepo,
		wishlistRepo: wishlistRepo,
		passes:       passes,
		uploads:      uploads,
		validate:     validator.New(),
		cfg:          cfg,
		now:          time.Now,
	}
}

// Create 发布商品
//
// 草稿同样占用发布额度；额度扣减与插入在同一事务，失败一起回滚。
func (s *ListingService) Create(ctx context.Context, sellerID int64, req *dto.CreateListingRequest) (*model.Listing, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidListingInput, err)
	}
	if err := s.checkImages(req.Images, req.Publish); err != nil {
		return nil, err
	}

	ent, err := s.passes.Entitlement(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	listing := &model.Listing{
		SellerID:    sellerID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Size:        req.Size,
		Brand:       req.Brand,
		City:        req.City,
		Images:      model.StringArray(req.Images),
		Status:      model.ListingDraft,
		IsPriority:  ent.PrioritySearch,
	}
	if listing.Images == nil {
		listing.Images = model.StringArray{}
	}
	if req.Publish {
		now := s.now()
		listing.Status = model.ListingActive
		listing.PublishedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.usageRepo.WithTx(tx).ReserveListing(ctx, sellerID, ent.ListingLimit, ent.UnlimitedListings); err != nil {
			if errors.Is(err, repository.ErrLimitReached) {
				return ErrListingLimitReached
			}
			return err
		}
		return s.listingRepo.WithTx(tx).Create(ctx, listing)
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// Update 修改商品，仅限卖家本人
func (s *ListingService) Update(ctx context.Context, sellerID, listingID int64, req *dto.UpdateListingRequest) (*model.Listing, error) {
	listing, err := s.getOwned(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status == model.ListingDeleted || listing.Status == model.ListingSold {
		return nil, ErrListingNotEditable
	}

	fields := make(map[string]interface{})
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Condition != nil {
		fields["condition"] = *req.Condition
	}
	if req.Size != nil {
		fields["size"] = *req.Size
	}
	if req.Brand != nil {
		fields["brand"] = *req.Brand
	}
	if req.City != nil {
		fields["city"] = *req.City
	}
	if req.Images != nil {
		if err := s.checkImages(req.Images, listing.Status == model.ListingActive); err != nil {
			return nil, err
		}
		fields["images"] = model.StringArray(req.Images)
	}

	if len(fields) > 0 {
		if err := s.listingRepo.UpdateFields(ctx, listingID, fields); err != nil {
			return nil, err
		}
	}
	return s.listingRepo.GetByID(ctx, listingID)
}

// UploadImage 上传商品图片，返回 URL，由前端随创建/更新请求提交
func (s *ListingService) UploadImage(ctx context.Context, sellerID int64, f *FileUpload) (string, error) {
	return s.uploads.UploadMedia(ctx, "listings", sellerID, f)
}

// ChangeStatus 卖家修改状态：发布、标记售出、撤回、删除
//
// 重新发布需要重新审核；删除是软删除，不退还发布额度。
func (s *ListingService) ChangeStatus(ctx context.Context, sellerID, listingID int64, to model.ListingStatus) (*model.Listing, error) {
	listing, err := s.getOwned(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}

	from := listing.Status
	if !from.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	fields := map[string]interface{}{}
	switch to {
	case model.ListingActive:
		if len(listing.Images) == 0 {
			return nil, ErrListingNeedsImage
		}
		fields["published_at"] = s.now()
		fields["is_approved"] = false
	case model.ListingDraft:
		fields["rejection_reason"] = ""
	}

	if err := s.listingRepo.TransitionStatus(ctx, listingID, from, to, fields); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return s.listingRepo.GetByID(ctx, listingID)
}

// Delete 软删除
func (s *ListingService) Delete(ctx context.Context, sellerID, listingID int64) error {
	_, err := s.ChangeStatus(ctx, sellerID, listingID, model.ListingDeleted)
	return err
}

// ListMine 卖家自己的商品
func (s *ListingService) ListMine(ctx context.Context, sellerID int64, status string, page, pageSize int) ([]*model.Listing, int64, error) {
	st := model.ListingStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, ErrInvalidListingInput
	}
	page, pageSize = normalizePage(page, pageSize, 100)
	return s.listingRepo.ListBySeller(ctx, sellerID, st, page, pageSize)
}

// Browse 公开浏览；没有抢先看权益的用户看不到窗口期内新发布的商品
func (s *ListingService) Browse(ctx context.Context, session *Session, req *dto.ListingListRequest) ([]*model.Listing, int64, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize, 50)

	filter := repository.ListingFilter{
		Category: req.Category,
		City:     req.City,
		Size:     req.Size,
		Query:    strings.TrimSpace(req.Query),
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Sort:     req.Sort,
	}
	if cutoff, ok := s.earlyAccessCutoff(session); ok {
		filter.PublishedBefore = &cutoff
	}

	return s.listingRepo.ListPublic(ctx, filter, page, pageSize)
}

// Get 商品详情；卖家电话只对有联系权限的用户和卖家本人可见
func (s *ListingService) Get(ctx context.Context, session *Session, listingID int64) (*dto.ListingDetail, error) {
	listing, err := s.listingRepo.GetByIDWithSeller(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	viewerID := session.UserID()
	isOwner := viewerID != 0 && viewerID == listing.SellerID

	if !isOwner && !session.IsAdmin {
		if listing.Status != model.ListingActive || !listing.IsApproved {
			return nil, ErrListingNotFound
		}
		if cutoff, ok := s.earlyAccessCutoff(session); ok && listing.PublishedAt != nil && listing.PublishedAt.After(cutoff) {
			return nil, ErrListingNotFound
		}
	}

	detail := buildListingDetail(listing)

	if listing.Seller != nil {
		sellerEnt, err := s.passes.Entitlement(ctx, listing.SellerID)
		if err != nil {
			return nil, err
		}
		detail.Seller = &dto.ListingSeller{
			ID:            listing.Seller.ID,
			DisplayName:   listing.Seller.DisplayName,
			City:          listing.Seller.City,
			AvatarURL:     listing.Seller.AvatarURL,
			VerifiedBadge: listing.Seller.IsVerified || sellerEnt.VerifiedBadge,
		}
		if isOwner || session.Entitlement.ContactAccess {
			detail.Seller.Phone = listing.Seller.Phone
		} else {
			detail.ContactLocked = listing.Seller.Phone != ""
		}
	}

	if viewerID != 0 {
		in, err := s.wishlistRepo.Exists(ctx, viewerID, listingID)
		if err != nil {
			return nil, err
		}
		detail.InWishlist = in
	}

	return detail, nil
}

func (s *ListingService) getOwned(ctx context.Context, sellerID, listingID int64) (*model.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, ErrForbidden
	}
	if listing.Status == model.ListingDeleted {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

func (s *ListingService) checkImages(images []string, publishing bool) error {
	if s.cfg != nil && s.cfg.MaxImages > 0 && len(images) > s.cfg.MaxImages {
		return ErrTooManyImages
	}
	if publishing && len(images) == 0 {
		return ErrListingNeedsImage
	}
	return nil
}

func (s *ListingService) earlyAccessCutoff(session *Session) (time.Time, bool) {
	if s.cfg == nil || s.cfg.EarlyAccessHours <= 0 || session.Entitlement.EarlyAccess {
		return time.Time{}, false
	}
	return s.now().Add(-time.Duration(s.cfg.EarlyAccessHours) * time.Hour), true
}

func buildListingDetail(l *model.Listing) *dto.ListingDetail {
	images := []string(l.Images)
	if images == nil {
		images = []string{}
	}
	return &dto.ListingDetail{
		ID:              l.ID,
		Title:           l.Title,
		Description:     l.Description,
		Price:           l.Price,
		Category:        l.Category,
		Condition:       l.Condition,
		Size:            l.Size,
		Brand:           l.Brand,
		City:            l.City,
		Images:          images,
		Status:          string(l.Status),
		IsApproved:      l.IsApproved,
		IsPriority:      l.IsPriority,
		RejectionReason: l.RejectionReason,
		CreatedAt:       l.CreatedAt.Format(time.RFC3339),
	}
}

func normalizePage(page, pageSize, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > max {
		pageSize = max
	}
	return page, pageSize
}
