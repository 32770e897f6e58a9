package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/internal/pass"
	"github.com/qs3c/revastra_server/internal/testutil"
)

func TestPassRepository_GetCurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPassRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)

	_, err := repo.GetCurrent(ctx, user.ID, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	testutil.TestPass(t, db, user.ID, pass.BuyerBasic)

	current, err := repo.GetCurrent(ctx, user.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, string(pass.BuyerBasic), current.PassType)
}

func TestPassRepository_GetCurrent_IgnoresExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPassRepository(db)
	user := testutil.TestUser(t, db)
	testutil.TestPass(t, db, user.ID, pass.SellerPro, testutil.WithExpiresAt(time.Now().Add(-time.Hour)))

	_, err := repo.GetCurrent(context.Background(), user.ID, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPassRepository_DeactivateAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPassRepository(db)
	ctx := context.Background()
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	testutil.TestPass(t, db, user.ID, pass.BuyerStarter)
	testutil.TestPass(t, db, user.ID, pass.SellerStarter)
	testutil.TestPass(t, db, other.ID, pass.BuyerPro)

	n, err := repo.DeactivateAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repo.GetCurrent(ctx, user.ID, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetCurrent(ctx, other.ID, time.Now())
	assert.NoError(t, err)
}

func TestPassRepository_ExpireLapsed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPassRepository(db)
	ctx := context.Background()
	u1 := testutil.TestUser(t, db)
	u2 := testutil.TestUser(t, db)
	testutil.TestPass(t, db, u1.ID, pass.BuyerBasic, testutil.WithExpiresAt(time.Now().Add(-2*time.Hour)))
	testutil.TestPass(t, db, u2.ID, pass.BuyerBasic)

	now := time.Now()
	lapsed, err := repo.ListLapsed(ctx, now)
	require.NoError(t, err)
	require.Len(t, lapsed, 1)
	assert.Equal(t, u1.ID, lapsed[0].UserID)

	n, err := repo.ExpireLapsed(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := repo.CountActive(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)

	history, err := repo.ListByUser(ctx, u1.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.False(t, history[0].IsActive)
}
