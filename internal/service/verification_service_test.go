package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/revastra_server/internal/model"
	"github.com/qs3c/revastra_server/internal/model/dto"
	"github.com/qs3c/revastra_server/internal/testutil"
)

func TestVerificationService_Apply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.TestUser(t, env.db)

	status, err := env.verifications.Status(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, status)

	vr, err := env.verifications.Apply(ctx, user.ID, &dto.VerificationApplyRequest{Note: "Boutique owner in Pune"})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationPending, vr.Status)

	_, err = env.verifications.Apply(ctx, user.ID, &dto.VerificationApplyRequest{})
	assert.ErrorIs(t, err, ErrVerificationPending)

	status, err = env.verifications.Status(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, vr.ID, status.ID)
}

func TestVerificationService_AlreadyVerified(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.TestUser(t, env.db, testutil.WithVerified())

	_, err := env.verifications.Apply(context.Background(), user.ID, &dto.VerificationApplyRequest{})
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestVerificationService_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.verifications.Apply(context.Background(), 99999, &dto.VerificationApplyRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
