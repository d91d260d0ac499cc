package shop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/apperror"
	appctx "stocky/internal/core/context"
	"stocky/internal/core/id"
)

var owner = id.MustParse("0190a6f1-0000-7000-8000-0000000000b1")

func ownerCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: owner.String(),
		ShopID: owner.String(),
	})
}

func TestGet_CreatesProfileWithDefaults(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, BuiltinDefaults())

	p, err := svc.Get(ownerCtx())

	require.NoError(t, err)
	assert.Equal(t, owner, p.ID)
	assert.Equal(t, DefaultLowStockThreshold, p.LowStockThreshold)
	assert.Equal(t, DefaultExpiryThresholdDays, p.ExpiryThresholdDays)

	stored, err := repo.Get(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.ExpiryThresholdDays)
}

func TestThresholds_MissingProfileUsesDefaultsWithoutCreating(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, Defaults{LowStockThreshold: 4, ExpiryThresholdDays: 60})

	got, err := svc.Thresholds(context.Background(), owner)

	require.NoError(t, err)
	assert.Equal(t, Defaults{LowStockThreshold: 4, ExpiryThresholdDays: 60}, got)
	_, err = repo.Get(context.Background(), owner)
	assert.True(t, apperror.IsNotFound(err))
}

func TestThresholds_StoreFailure(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Err = errors.New("timeout")
	svc := NewService(repo, BuiltinDefaults())

	_, err := svc.Thresholds(context.Background(), owner)

	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))
}

func TestUpdate_RejectsNegativeThresholds(t *testing.T) {
	svc := NewService(NewMemoryRepository(), BuiltinDefaults())

	err := svc.Update(ownerCtx(), &Profile{ShopName: "Care Pharmacy", LowStockThreshold: -1})

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestUpdate_Saves(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, BuiltinDefaults())

	err := svc.Update(ownerCtx(), &Profile{
		ShopName:            " Care Pharmacy ",
		GSTIN:               "27abcde1234f1z5",
		LowStockThreshold:   5,
		ExpiryThresholdDays: 45,
	})
	require.NoError(t, err)

	p, err := repo.Get(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "Care Pharmacy", p.ShopName)
	assert.Equal(t, "27ABCDE1234F1Z5", p.GSTIN)
	assert.Equal(t, 45, p.ExpiryThresholdDays)
}
