package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/testutil"
)

func TestReviewRepository_CreateAndSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewReviewRepository(db)
	ctx := context.Background()
	seller := testutil.TestUser(t, db)
	r1 := testutil.TestUser(t, db)
	r2 := testutil.TestUser(t, db)
	listing := testutil.TestListing(t, db, seller.ID)

	require.NoError(t, repo.Create(ctx, &model.SellerReview{
		SellerID: seller.ID, ReviewerID: r1.ID, ListingID: listing.ID,
		Rating: 5, ReviewText: "Exactly as described",
		Images: []model.ReviewImage{{ImageURL: "https://cdn/r1.jpg"}},
	}))
	require.NoError(t, repo.Create(ctx, &model.SellerReview{
		SellerID: seller.ID, ReviewerID: r2.ID, ListingID: listing.ID,
		Rating: 4, ReviewText: "Good fabric, quick reply",
	}))

	avg, count, err := repo.Summary(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.InDelta(t, 4.5, avg, 0.001)

	reviews, total, err := repo.ListBySeller(ctx, seller.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, reviews, 2)
	for _, r := range reviews {
		require.NotNil(t, r.Reviewer)
		if r.ReviewerID == r1.ID {
			require.Len(t, r.Images, 1)
			assert.Equal(t, "https://cdn/r1.jpg", r.Images[0].ImageURL)
		}
	}

	exists, err := repo.Exists(ctx, r1.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReviewRepository_DuplicateReview(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewReviewRepository(db)
	ctx := context.Background()
	seller := testutil.TestUser(t, db)
	reviewer := testutil.TestUser(t, db)
	listing := testutil.TestListing(t, db, seller.ID)

	review := func() *model.SellerReview {
		return &model.SellerReview{SellerID: seller.ID, ReviewerID: reviewer.ID, ListingID: listing.ID, Rating: 3, ReviewText: "It was okay overall"}
	}
	require.NoError(t, repo.Create(ctx, review()))
	assert.ErrorIs(t, repo.Create(ctx, review()), ErrConflict)
}

func TestReviewRepository_SummaryEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewReviewRepository(db)
	avg, count, err := repo.Summary(context.Background(), 12345)
	require.NoError(t, err)
	assert.Zero(t, avg)
	assert.Zero(t, count)
}

func TestWishlistRepository(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewWishlistRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	seller := testutil.TestUser(t, db)
	listing := testutil.TestListing(t, db, seller.ID)

	require.NoError(t, repo.Add(ctx, user.ID, listing.ID))
	assert.ErrorIs(t, repo.Add(ctx, user.ID, listing.ID), ErrConflict)

	exists, err := repo.Exists(ctx, user.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	items, total, err := repo.ListByUser(ctx, user.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, items[0].Listing)
	assert.Equal(t, listing.Title, items[0].Listing.Title)

	removed, err := repo.Remove(ctx, user.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, user.ID, listing.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}
