package service

import (
	"context"
	"errors"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrAlreadyVerified     = errors.New("已通过卖家认证")
	ErrVerificationPending = errors.New("已有待审核的认证申请")
)

type VerificationService struct {
	verificationRepo *repository.VerificationRepository
	userRepo         *repository.UserRepository
}

func NewVerificationService(verificationRepo *repository.VerificationRepository, userRepo *repository.UserRepository) *VerificationService {
	return &VerificationService{verificationRepo: verificationRepo, userRepo: userRepo}
}

// Apply 提交卖家认证申请；同一用户同时只能有一条待审申请
func (s *VerificationService) Apply(ctx context.Context, userID int64, req *dto.VerificationApplyRequest) (*model.VerificationRequest, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	vr := &model.VerificationRequest{
		UserID:      userID,
		DocumentURL: req.DocumentURL,
		Note:        req.Note,
	}
	if err := s.verificationRepo.CreatePending(ctx, vr); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrVerificationPending
		}
		return nil, err
	}
	return vr, nil
}

// Status 最近一次申请，没有时返回 nil
func (s *VerificationService) Status(ctx context.Context, userID int64) (*model.VerificationRequest, error) {
	vr, err := s.verificationRepo.GetLatestByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return vr, err
}
