package medicine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/apperror"
	appctx "stocky/internal/core/context"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/domain"
)

var shopA = id.MustParse("0190a6f1-0000-7000-8000-00000000000a")

func ownerCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: shopA.String(),
		ShopID: shopA.String(),
	})
}

func TestService_Create(t *testing.T) {
	var stored *Medicine
	repo := &MockRepository{CreateFunc: func(_ context.Context, m *Medicine) error {
		stored = m
		return nil
	}}
	svc := NewService(repo, tx.Passthrough{})

	var hooked bool
	svc.Hooks().On(domain.AfterCreate, func(context.Context, *Medicine) error {
		hooked = true
		return nil
	})

	m := strip(2, 0, 10)
	m.UnitKind = "strip"
	require.NoError(t, svc.Create(ownerCtx(), m))

	require.NotNil(t, stored)
	assert.Equal(t, shopA, stored.ShopID)
	assert.False(t, id.IsNil(stored.ID))
	assert.Equal(t, KindStrip, stored.UnitKind)
	assert.Equal(t, 1, stored.Version)
	assert.True(t, hooked)
}

func TestService_Create_RequiresShop(t *testing.T) {
	svc := NewService(&MockRepository{}, tx.Passthrough{})

	err := svc.Create(context.Background(), strip(1, 0, 10))

	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestService_Create_ValidationStopsWrite(t *testing.T) {
	repo := &MockRepository{CreateFunc: func(context.Context, *Medicine) error {
		t.Fatal("repository must not be called")
		return nil
	}}
	svc := NewService(repo, tx.Passthrough{})

	m := strip(1, 0, 10)
	m.Name = " "
	err := svc.Create(ownerCtx(), m)

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_Update_ConcurrentModificationPassesThrough(t *testing.T) {
	existing := strip(1, 0, 10)
	existing.ID = id.New()
	repo := &MockRepository{
		GetByIDFunc: func(context.Context, id.ID, id.ID) (*Medicine, error) { return existing, nil },
		UpdateFunc: func(_ context.Context, m *Medicine) error {
			return apperror.NewConcurrentModification("medicines", m.ID)
		},
	}
	svc := NewService(repo, tx.Passthrough{})

	upd := strip(3, 0, 10)
	upd.ID = existing.ID
	err := svc.Update(ownerCtx(), upd)

	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestService_SearchForSale(t *testing.T) {
	var gotQuery string
	var gotLimit int
	repo := &MockRepository{SearchForSaleFunc: func(_ context.Context, shopID id.ID, q string, limit int) ([]*Medicine, error) {
		assert.Equal(t, shopA, shopID)
		gotQuery, gotLimit = q, limit
		return []*Medicine{strip(1, 0, 10)}, nil
	}}
	svc := NewService(repo, tx.Passthrough{})

	items, err := svc.SearchForSale(ownerCtx(), "  para ")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "para", gotQuery)
	assert.Equal(t, SearchLimit, gotLimit)

	items, err = svc.SearchForSale(ownerCtx(), "   ")
	require.NoError(t, err)
	assert.Empty(t, items)
}
