package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pass"
	"github.com/qs3c/revastra_server/internal/pkg/payment"
	"github.com/qs3c/revastra_server/internal/testutil"
)

// paidRequest 直接写入订单并返回签名正确的购买请求
func (env *testEnv) paidRequest(t *testing.T, userID int64, passType pass.Type) *dto.PurchasePassRequest {
	t.Helper()

	orderID := "order_" + uuid.NewString()
	paymentID := "pay_" + uuid.NewString()
	require.NoError(t, env.passRepo.CreateOrder(context.Background(), &model.PaymentOrder{
		OrderID:  orderID,
		UserID:   userID,
		PassType: string(passType),
		Amount:   pass.Info(passType).Price,
		Status:   model.OrderCreated,
	}))
	return signed(passType, orderID, paymentID)
}

func signed(passType pass.Type, orderID, paymentID string) *dto.PurchasePassRequest {
	return &dto.PurchasePassRequest{
		PassType:  string(passType),
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: payment.Sign(testPaymentSecret, orderID, paymentID),
	}
}

func TestPassService_CurrentDefaultsToFree(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.TestUser(t, env.db)

	current, err := env.passes.Current(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.Free, current.PassType)
	assert.Empty(t, current.ExpiresAt)
	assert.Equal(t, 2, current.Entitlement.ChatLimit)
}

func TestPassService_PurchaseActivatesThirtyDays(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.TestUser(t, env.db)
	fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	env.passes.now = func() time.Time { return fixed }

	req := env.paidRequest(t, user.ID, pass.BuyerBasic)
	current, err := env.passes.Purchase(context.Background(), user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, pass.BuyerBasic, current.PassType)
	assert.Equal(t, fixed.AddDate(0, 0, 30).Format(time.RFC3339), current.ExpiresAt)

	history, err := env.passes.History(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].PaymentID)
	assert.Equal(t, req.PaymentID, *history[0].PaymentID)
	assert.Equal(t, float64(99), history[0].Amount)
}

func TestPassService_PurchaseSupersedesPrevious(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.TestUser(t, env.db)
	testutil.TestPass(t, env.db, user.ID, pass.BuyerStarter)

	_, err := env.passes.Purchase(context.Background(), user.ID, env.paidRequest(t, user.ID, pass.BuyerPro))
	require.NoError(t, err)

	var active int64
	require.NoError(t, env.db.Model(&model.UserPass{}).Where("user_id = ? AND is_active = ?", user.ID, true).Count(&active).Error)
	assert.Equal(t, int64(1), active)

	tp, err := env.passes.CurrentType(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.BuyerPro, tp)
}

func TestPassService_PurchaseDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.TestUser(t, env.db)
	testutil.TestPass(t, env.db, user.ID, pass.SellerBasic)

	_, err := env.passes.Purchase(ctx, user.ID, env.paidRequest(t, user.ID, pass.SellerBasic))
	assert.ErrorIs(t, err, ErrPurchaseDenied)
	assert.Contains(t, err.Error(), pass.ReasonAlreadyOwned)

	_, err = env.passes.Purchase(ctx, user.ID, env.paidRequest(t, user.ID, pass.SellerStarter))
	assert.ErrorIs(t, err, ErrPurchaseDenied)

	_, err = env.passes.Purchase(ctx, user.ID, &dto.PurchasePassRequest{PassType: string(pass.Free)})
	assert.ErrorIs(t, err, ErrPurchaseDenied)

	// 跨类别切换允许
	_, err = env.passes.Purchase(ctx, user.ID, env.paidRequest(t, user.ID, pass.BuyerStarter))
	assert.NoError(t, err)
}

func TestPassService_PurchaseUnknownPass(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.TestUser(t, env.db)

	_, err := env.passes.Purchase(context.Background(), user.ID, &dto.PurchasePassRequest{PassType: "platinum"})
	assert.ErrorIs(t, err, ErrUnknownPass)
}

func TestPassService_PurchaseRequiresValidPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.TestUser(t, env.db)

	_, err := env.passes.Purchase(ctx, user.ID, &dto.PurchasePassRequest{PassType: string(pass.BuyerBasic)})
	assert.ErrorIs(t, err, ErrPaymentRequired)

	req := env.paidRequest(t, user.ID, pass.BuyerBasic)
	req.Signature = "deadbeef"
	_, err = env.passes.Purchase(ctx, user.ID, req)
	assert.ErrorIs(t, err, ErrPaymentRequired)

	tp, err := env.passes.CurrentType(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.Free, tp)
}

func TestPassService_PaymentCannotBeReused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := testutil.TestUser(t, env.db)
	bob := testutil.TestUser(t, env.db)

	order, err := env.passes.CreateOrder(ctx, alice.ID, string(pass.BuyerStarter))
	require.NoError(t, err)
	assert.Equal(t, float64(49), order.Amount)
	assert.Equal(t, "INR", order.Currency)

	req := signed(pass.BuyerStarter, order.OrderID, "pay_once")
	_, err = env.passes.Purchase(ctx, alice.ID, req)
	require.NoError(t, err)

	// 同一笔支付换更贵的套餐
	upgrade := signed(pass.BuyerPro, order.OrderID, "pay_once")
	_, err = env.passes.Purchase(ctx, alice.ID, upgrade)
	assert.ErrorIs(t, err, ErrPaymentRequired)

	// 别人的订单
	_, err = env.passes.Purchase(ctx, bob.ID, signed(pass.SellerPro, order.OrderID, "pay_once"))
	assert.ErrorIs(t, err, ErrPaymentRequired)
	_, err = env.passes.Purchase(ctx, bob.ID, signed(pass.BuyerStarter, order.OrderID, "pay_once"))
	assert.ErrorIs(t, err, ErrPaymentRequired)

	// 新订单复用旧的 payment_id
	fresh, err := env.passes.CreateOrder(ctx, alice.ID, string(pass.BuyerPro))
	require.NoError(t, err)
	_, err = env.passes.Purchase(ctx, alice.ID, signed(pass.BuyerPro, fresh.OrderID, "pay_once"))
	assert.ErrorIs(t, err, ErrPaymentRequired)

	tp, err := env.passes.CurrentType(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.BuyerStarter, tp)
	tp, err = env.passes.CurrentType(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.Free, tp)

	// 失败的核销不会消耗新订单
	_, err = env.passes.Purchase(ctx, alice.ID, signed(pass.BuyerPro, fresh.OrderID, "pay_twice"))
	require.NoError(t, err)

	got, err := env.passRepo.GetOrder(ctx, fresh.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, got.Status)
}

func TestPassService_CreateOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.TestUser(t, env.db)
	testutil.TestPass(t, env.db, user.ID, pass.SellerBasic)

	_, err := env.passes.CreateOrder(ctx, user.ID, "gold")
	assert.ErrorIs(t, err, ErrUnknownPass)

	_, err = env.passes.CreateOrder(ctx, user.ID, string(pass.Free))
	assert.ErrorIs(t, err, ErrPurchaseDenied)

	_, err = env.passes.CreateOrder(ctx, user.ID, string(pass.SellerStarter))
	assert.ErrorIs(t, err, ErrPurchaseDenied)

	order, err := env.passes.CreateOrder(ctx, user.ID, string(pass.SellerPro))
	require.NoError(t, err)
	assert.Equal(t, pass.SellerPro, order.PassType)
	assert.Equal(t, float64(199), order.Amount)

	saved, err := env.passRepo.GetOrder(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, saved.UserID)
	assert.Equal(t, model.OrderCreated, saved.Status)
	assert.Nil(t, saved.PaymentID)
}

func TestPassService_PurchaseSyncsListingPriority(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := testutil.TestUser(t, env.db)
	listing := testutil.TestListing(t, env.db, seller.ID)

	_, err := env.passes.Purchase(ctx, seller.ID, env.paidRequest(t, seller.ID, pass.SellerPro))
	require.NoError(t, err)

	got, err := env.listingRepo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPriority)
}

func TestPassService_CheckPurchase(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.TestUser(t, env.db)
	testutil.TestPass(t, env.db, user.ID, pass.BuyerPro)

	resp, err := env.passes.CheckPurchase(context.Background(), user.ID, string(pass.BuyerBasic))
	require.NoError(t, err)
	assert.Equal(t, pass.BuyerPro, resp.Current)
	assert.False(t, resp.Result.CanPurchase)
	assert.Equal(t, pass.ReasonDowngrade, resp.Result.Reason)

	_, err = env.passes.CheckPurchase(context.Background(), user.ID, "gold")
	assert.ErrorIs(t, err, ErrUnknownPass)
}

func TestPassService_ExpireLapsed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seller := testutil.TestUser(t, env.db)
	buyer := testutil.TestUser(t, env.db)

	testutil.TestPass(t, env.db, seller.ID, pass.SellerPro, testutil.WithExpiresAt(time.Now().Add(-time.Hour)))
	testutil.TestPass(t, env.db, buyer.ID, pass.BuyerBasic)
	listing := testutil.TestListing(t, env.db, seller.ID, testutil.WithPriority())

	n, err := env.passes.ExpireLapsed(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := env.listingRepo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPriority)

	tp, err := env.passes.CurrentType(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, pass.BuyerBasic, tp)

	n, err = env.passes.ExpireLapsed(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
