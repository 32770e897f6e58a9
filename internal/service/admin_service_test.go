package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/pass"
	"github.com/qs3c/revastra_server/internal/testutil"
)

func TestAdminService_ApproveListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testutil.TestAdmin(t, env.db)
	seller := testutil.TestUser(t, env.db)
	pending := testutil.TestListing(t, env.db, seller.ID, testutil.WithApproved(false))

	items, total, err := env.admin.ListPendingListings(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, pending.ID, items[0].ID)

	require.NoError(t, env.admin.ApproveListing(ctx, admin.ID, pending.ID))

	got, err := env.listingRepo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, admin.ID, *got.ApprovedBy)

	assert.ErrorIs(t, env.admin.ApproveListing(ctx, admin.ID, pending.ID), ErrListingNotPending)
	assert.ErrorIs(t, env.admin.ApproveListing(ctx, admin.ID, 99999), ErrListingNotFound)
}

func TestAdminService_RejectListing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testutil.TestAdmin(t, env.db)
	seller := testutil.TestUser(t, env.db)
	pending := testutil.TestListing(t, env.db, seller.ID, testutil.WithApproved(false))

	assert.ErrorIs(t, env.admin.RejectListing(ctx, admin.ID, pending.ID, "   "), ErrRejectReasonRequired)
	require.NoError(t, env.admin.RejectListing(ctx, admin.ID, pending.ID, "Blurry photos"))

	got, err := env.listingRepo.GetByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ListingRejected, got.Status)
	assert.Equal(t, "Blurry photos", got.RejectionReason)

	assert.ErrorIs(t, env.admin.RejectListing(ctx, admin.ID, pending.ID, "again"), ErrListingNotPending)

	// 卖家改回草稿后清空驳回原因，再次发布进入待审
	draft, err := env.listings.ChangeStatus(ctx, seller.ID, pending.ID, model.ListingDraft)
	require.NoError(t, err)
	assert.Empty(t, draft.RejectionReason)

	republished, err := env.listings.ChangeStatus(ctx, seller.ID, pending.ID, model.ListingActive)
	require.NoError(t, err)
	assert.False(t, republished.IsApproved)
}

func TestAdminService_DecideVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testutil.TestAdmin(t, env.db)
	user := testutil.TestUser(t, env.db)

	vr, err := env.verifications.Apply(ctx, user.ID, &dto.VerificationApplyRequest{Note: "GST registered"})
	require.NoError(t, err)

	items, total, err := env.admin.ListVerifications(ctx, model.VerificationPending, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, items, 1)

	require.NoError(t, env.admin.DecideVerification(ctx, admin.ID, vr.ID, &dto.VerificationDecisionRequest{Approve: true}))

	got, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	err = env.admin.DecideVerification(ctx, admin.ID, vr.ID, &dto.VerificationDecisionRequest{Approve: false})
	assert.ErrorIs(t, err, ErrVerificationDecided)

	err = env.admin.DecideVerification(ctx, admin.ID, 99999, &dto.VerificationDecisionRequest{Approve: true})
	assert.ErrorIs(t, err, ErrVerificationNotFound)

	_, _, err = env.admin.ListVerifications(ctx, "maybe", 1, 20)
	assert.ErrorIs(t, err, ErrInvalidStatusFilter)
}

func TestAdminService_RejectVerificationAllowsReapply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testutil.TestAdmin(t, env.db)
	user := testutil.TestUser(t, env.db)

	vr, err := env.verifications.Apply(ctx, user.ID, &dto.VerificationApplyRequest{})
	require.NoError(t, err)
	require.NoError(t, env.admin.DecideVerification(ctx, admin.ID, vr.ID, &dto.VerificationDecisionRequest{Note: "document unreadable"}))

	got, err := env.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsVerified)

	_, err = env.verifications.Apply(ctx, user.ID, &dto.VerificationApplyRequest{})
	assert.NoError(t, err)
}

func TestAdminService_Stats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := testutil.TestAdmin(t, env.db)
	seller := testutil.TestUser(t, env.db)
	buyer := testutil.TestUser(t, env.db)
	testutil.TestListing(t, env.db, seller.ID)
	testutil.TestListing(t, env.db, seller.ID, testutil.WithApproved(false))
	testutil.TestPass(t, env.db, seller.ID, pass.SellerStarter)
	conv := testutil.TestConversation(t, env.db, buyer.ID, seller.ID, nil)
	env.presence[seller.ID] = true
	_, err := env.chats.SendMessage(ctx, buyer.ID, conv.ID, "namaste", nil)
	require.NoError(t, err)
	_, err = env.verifications.Apply(ctx, seller.ID, &dto.VerificationApplyRequest{})
	require.NoError(t, err)

	ok, err := env.admin.IsAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stats, err := env.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Users)
	assert.Equal(t, int64(1), stats.ActiveListings)
	assert.Equal(t, int64(1), stats.PendingListings)
	assert.Equal(t, int64(1), stats.ActivePasses)
	assert.Equal(t, int64(1), stats.MessagesToday)
	assert.Equal(t, int64(1), stats.PendingVerifications)
}
