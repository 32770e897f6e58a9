package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrNotAdmin             = errors.New("需要管理员权限")
	ErrListingNotPending    = errors.New("商品不在待审核状态")
	ErrVerificationNotFound = errors.New("认证申请不存在")
	ErrVerificationDecided  = errors.New("认证申请已处理")
	ErrRejectReasonRequired = errors.New("请填写驳回原因")
	ErrInvalidStatusFilter  = errors.New("状态筛选参数不合法")
)

type AdminService struct {
	db               *gorm.DB
	userRepo         *repository.UserRepository
	roleRepo         *repository.RoleRepository
	listingRepo      *repository.ListingRepository
	verificationRepo *repository.VerificationRepository
	passRepo         *repository.PassRepository
	msgRepo          *repository.MessageRepository
	now              func() time.Time
}

func NewAdminService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	listingRepo *repository.ListingRepository,
	verificationRepo *repository.VerificationRepository,
	passRepo *repository.PassRepository,
	msgRepo *repository.MessageRepository,
) *AdminService {
	return &AdminService{
		db:               db,
		userRepo:         userRepo,
		roleRepo:         roleRepo,
		listingRepo:      listingRepo,
		verificationRepo: verificationRepo,
		passRepo:         passRepo,
		msgRepo:          msgRepo,
		now:              time.Now,
	}
}

// IsAdmin 是否为管理员
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return s.roleRepo.IsAdmin(ctx, userID)
}

// ListPendingListings 待审核商品
func (s *AdminService) ListPendingListings(ctx context.Context, page, pageSize int) ([]*model.Listing, int64, error) {
	page, pageSize = normalizePage(page, pageSize, 100)
	return s.listingRepo.ListPendingApproval(ctx, page, pageSize)
}

// ApproveListing 审核通过
func (s *AdminService) ApproveListing(ctx context.Context, adminID, listingID int64) error {
	if _, err := s.getListing(ctx, listingID); err != nil {
		return err
	}
	if err := s.listingRepo.Approve(ctx, listingID, adminID, s.now()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrListingNotPending
		}
		return err
	}
	return nil
}

// RejectListing 驳回，卖家可改回草稿后重新发布
func (s *AdminService) RejectListing(ctx context.Context, adminID, listingID int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectReasonRequired
	}

	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Status != model.ListingActive {
		return ErrListingNotPending
	}

	err = s.listingRepo.TransitionStatus(ctx, listingID, model.ListingActive, model.ListingRejected, map[string]interface{}{
		"is_approved":      false,
		"approved_by":      adminID,
		"approved_at":      s.now(),
		"rejection_reason": reason,
	})
	if errors.Is(err, repository.ErrConflict) {
		return ErrListingNotPending
	}
	return err
}

// ListVerifications 认证申请列表
func (s *AdminService) ListVerifications(ctx context.Context, status string, page, pageSize int) ([]*model.VerificationRequest, int64, error) {
	switch status {
	case "", model.VerificationPending, model.VerificationApproved, model.VerificationRejected:
	default:
		return nil, 0, ErrInvalidStatusFilter
	}
	page, pageSize = normalizePage(page, pageSize, 100)
	return s.verificationRepo.ListByStatus(ctx, status, page, pageSize)
}

// DecideVerification 审核认证申请；通过时同一事务内给用户打上认证标记
func (s *AdminService) DecideVerification(ctx context.Context, adminID, requestID int64, req *dto.VerificationDecisionRequest) error {
	vr, err := s.verificationRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrVerificationNotFound
		}
		return err
	}

	status := model.VerificationRejected
	if req.Approve {
		status = model.VerificationApproved
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.verificationRepo.WithTx(tx).Decide(ctx, requestID, status, adminID, req.Note, s.now()); err != nil {
			return err
		}
		if req.Approve {
			return s.userRepo.WithTx(tx).UpdateFields(ctx, vr.UserID, map[string]interface{}{"is_verified": true})
		}
		return nil
	})
	if errors.Is(err, repository.ErrConflict) {
		return ErrVerificationDecided
	}
	return err
}

// Stats 平台统计
func (s *AdminService) Stats(ctx context.Context) (*dto.PlatformStats, error) {
	now := s.now()
	stats := &dto.PlatformStats{}
	var err error

	if stats.Users, err = s.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	approved, pending := true, false
	if stats.ActiveListings, err = s.listingRepo.CountByStatus(ctx, model.ListingActive, &approved); err != nil {
		return nil, err
	}
	if stats.PendingListings, err = s.listingRepo.CountByStatus(ctx, model.ListingActive, &pending); err != nil {
		return nil, err
	}
	if stats.ActivePasses, err = s.passRepo.CountActive(ctx, now); err != nil {
		return nil, err
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.MessagesToday, err = s.msgRepo.CountSince(ctx, midnight); err != nil {
		return nil, err
	}
	if stats.PendingVerifications, err = s.verificationRepo.CountPending(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) getListing(ctx context.Context, listingID int64) (*model.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return listing, nil
}
