package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pass"
	"github.com/qs3c/revastra_server/internal/pkg/payment"
	"github.com/qs3c/revastra_server/internal/repository"
)

var (
	ErrUnknownPass     = errors.New("未知的通行证类型")
	ErrPurchaseDenied  = errors.New("不允许购买该通行证")
	ErrPaymentRequired = errors.New("需要有效的支付凭证")
)

type PassService struct {
	db          *gorm.DB
	passRepo    *repository.PassRepository
	listingRepo *repository.ListingRepository
	verifier    *payment.Verifier
	cfg         *config.PassConfig
	now         func() time.Time
}

func NewPassService(
	db *gorm.DB,
	passRepo *repository.PassRepository,
	listingRepo *repository.ListingRepository,
	verifier *payment.Verifier,
	cfg *config.PassConfig,
) *PassService {
	return &PassService{
		db:          db,
		passRepo:    passRepo,
		listingRepo: listingRepo,
		verifier:    verifier,
		cfg:         cfg,
		now:         time.Now,
	}
}

// CurrentAssignment 返回当前有效分配，没有时为 nil（即 free）
func (s *PassService) CurrentAssignment(ctx context.Context, userID int64) (*model.UserPass, error) {
	p, err := s.passRepo.GetCurrent(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// CurrentType 当前通行证类型，未知值按 free 处理
func (s *PassService) CurrentType(ctx context.Context, userID int64) (pass.Type, error) {
	p, err := s.CurrentAssignment(ctx, userID)
	if err != nil {
		return pass.Free, err
	}
	return typeOf(p), nil
}

// Entitlement 当前权益
func (s *PassService) Entitlement(ctx context.Context, userID int64) (pass.Entitlement, error) {
	t, err := s.CurrentType(ctx, userID)
	if err != nil {
		return pass.Resolve(pass.Free), err
	}
	return pass.Resolve(t), nil
}

// Current 获取当前通行证
func (s *PassService) Current(ctx context.Context, userID int64) (*dto.CurrentPass, error) {
	p, err := s.CurrentAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildCurrentPass(p), nil
}

// CheckPurchase 购买预检
func (s *PassService) CheckPurchase(ctx context.Context, userID int64, target string) (*dto.CanPurchaseResponse, error) {
	tgt, ok := pass.Parse(target)
	if !ok {
		return nil, ErrUnknownPass
	}
	cur, err := s.CurrentType(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.CanPurchaseResponse{
		Current: cur,
		Target:  tgt,
		Result:  pass.CanPurchase(cur, tgt),
	}, nil
}

// CreateOrder 付费通行证下单，锁定类型与金额
func (s *PassService) CreateOrder(ctx context.Context, userID int64, target string) (*dto.OrderResponse, error) {
	tgt, ok := pass.Parse(target)
	if !ok {
		return nil, ErrUnknownPass
	}
	if !tgt.IsPaid() {
		return nil, fmt.Errorf("%w: %s", ErrPurchaseDenied, "free pass needs no order")
	}
	cur, err := s.CurrentType(ctx, userID)
	if err != nil {
		return nil, err
	}
	if decision := pass.CanPurchase(cur, tgt); !decision.CanPurchase {
		return nil, fmt.Errorf("%w: %s", ErrPurchaseDenied, decision.Reason)
	}

	order := &model.PaymentOrder{
		OrderID:  "order_" + uuid.NewString(),
		UserID:   userID,
		PassType: string(tgt),
		Amount:   pass.Info(tgt).Price,
		Status:   model.OrderCreated,
	}
	if err := s.passRepo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	return &dto.OrderResponse{
		OrderID:  order.OrderID,
		PassType: tgt,
		Amount:   order.Amount,
		Currency: "INR",
	}, nil
}

// Purchase 购买并激活通行证
//
// 付费通行证先校验支付签名，再核对订单的用户、类型和金额。
// 订单核销、停用旧分配与写入新分配在同一事务内完成，
// 同时同步卖家商品的优先展示标记。
func (s *PassService) Purchase(ctx context.Context, userID int64, req *dto.PurchasePassRequest) (*dto.CurrentPass, error) {
	target, ok := pass.Parse(req.PassType)
	if !ok {
		return nil, ErrUnknownPass
	}

	current, err := s.CurrentType(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision := pass.CanPurchase(current, target)
	if !decision.CanPurchase {
		return nil, fmt.Errorf("%w: %s", ErrPurchaseDenied, decision.Reason)
	}

	info := pass.Info(target)
	if target.IsPaid() {
		ref := payment.Reference{OrderID: req.OrderID, PaymentID: req.PaymentID, Signature: req.Signature}
		if err := s.verifier.Verify(ref); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPaymentRequired, err)
		}
	}

	now := s.now()
	assignment := &model.UserPass{
		UserID:    userID,
		PassType:  string(target),
		Amount:    info.Price,
		StartsAt:  now,
		ExpiresAt: now.AddDate(0, 0, s.validityDays()),
		IsActive:  true,
		OrderID:   req.OrderID,
	}
	if target.IsPaid() {
		paymentID := req.PaymentID
		assignment.PaymentID = &paymentID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		passRepo := s.passRepo.WithTx(tx)
		if target.IsPaid() {
			if err := s.redeemOrder(ctx, passRepo, userID, target, req); err != nil {
				return err
			}
		}
		if _, err := passRepo.DeactivateAll(ctx, userID); err != nil {
			return err
		}
		if err := passRepo.Create(ctx, assignment); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: payment already used", ErrPaymentRequired)
			}
			return err
		}
		return s.listingRepo.WithTx(tx).SetPriorityBySeller(ctx, userID, info.Entitlement.PrioritySearch)
	})
	if err != nil {
		return nil, err
	}

	return buildCurrentPass(assignment), nil
}

// redeemOrder 核对订单归属、类型、金额并核销
func (s *PassService) redeemOrder(ctx context.Context, passRepo *repository.PassRepository, userID int64, target pass.Type, req *dto.PurchasePassRequest) error {
	order, err := passRepo.GetOrder(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: unknown order", ErrPaymentRequired)
		}
		return err
	}
	if order.UserID != userID || order.PassType != string(target) || order.Amount != pass.Info(target).Price {
		return fmt.Errorf("%w: order does not match pass", ErrPaymentRequired)
	}
	if err := passRepo.MarkOrderPaid(ctx, order.OrderID, req.PaymentID); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: order already redeemed", ErrPaymentRequired)
		}
		return err
	}
	return nil
}

// History 购买记录
func (s *PassService) History(ctx context.Context, userID int64) ([]*model.UserPass, error) {
	return s.passRepo.ListByUser(ctx, userID)
}

// ExpireLapsed 将过期分配置为失效，并重算受影响卖家的优先展示标记
func (s *PassService) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		passRepo := s.passRepo.WithTx(tx)

		lapsed, err := passRepo.ListLapsed(ctx, now)
		if err != nil {
			return err
		}
		if len(lapsed) == 0 {
			return nil
		}

		expired, err = passRepo.ExpireLapsed(ctx, now)
		if err != nil {
			return err
		}

		seen := make(map[int64]struct{}, len(lapsed))
		for _, p := range lapsed {
			if _, ok := seen[p.UserID]; ok {
				continue
			}
			seen[p.UserID] = struct{}{}

			priority := false
			current, err := passRepo.GetCurrent(ctx, p.UserID, now)
			switch {
			case err == nil:
				priority = pass.Resolve(pass.Type(current.PassType)).PrioritySearch
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}
			if err := s.listingRepo.WithTx(tx).SetPriorityBySeller(ctx, p.UserID, priority); err != nil {
				return err
			}
		}
		return nil
	})
	return expired, err
}

// Catalogue 通行证目录
func (s *PassService) Catalogue() []pass.Details {
	return pass.All()
}

func (s *PassService) validityDays() int {
	if s.cfg == nil || s.cfg.ValidityDays <= 0 {
		return 30
	}
	return s.cfg.ValidityDays
}

func typeOf(p *model.UserPass) pass.Type {
	if p == nil {
		return pass.Free
	}
	t, ok := pass.Parse(p.PassType)
	if !ok {
		return pass.Free
	}
	return t
}

func buildCurrentPass(p *model.UserPass) *dto.CurrentPass {
	t := typeOf(p)
	info := pass.Info(t)
	cp := &dto.CurrentPass{
		PassType:    t,
		Name:        info.Name,
		Category:    info.Category,
		Entitlement: info.Entitlement,
	}
	if p != nil {
		cp.ExpiresAt = p.ExpiresAt.Format(time.RFC3339)
	}
	return cp
}
