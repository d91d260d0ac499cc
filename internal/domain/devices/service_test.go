package devices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/apperror"
	appctx "stocky/internal/core/context"
	"stocky/internal/core/id"
)

var (
	ownerA = id.MustParse("0190a6f1-0000-7000-8000-0000000000f1")
	ownerB = id.MustParse("0190a6f1-0000-7000-8000-0000000000f2")
)

func as(owner id.ID) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: owner.String(), ShopID: owner.String()})
}

func TestRegister_UpsertMovesToken(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)

	_, err := svc.Register(as(ownerA), " tok-1 ", "web")
	require.NoError(t, err)
	_, err = svc.Register(as(ownerB), "tok-1", "android")
	require.NoError(t, err)

	a, err := svc.ListByOwner(context.Background(), ownerA)
	require.NoError(t, err)
	b, err := svc.ListByOwner(context.Background(), ownerB)
	require.NoError(t, err)

	assert.Empty(t, a)
	require.Len(t, b, 1)
	assert.Equal(t, "tok-1", b[0].Token)
	assert.Equal(t, "android", b[0].Platform)
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.Register(as(ownerA), "   ", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Register(context.Background(), "tok", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestUnregister_OnlyOwnTokens(t *testing.T) {
	repo := NewMemoryRepository(&Token{Token: "tok-a", OwnerID: ownerA})
	svc := NewService(repo)

	require.NoError(t, svc.Unregister(as(ownerB), "tok-a"))
	got, _ := svc.ListByOwner(context.Background(), ownerA)
	assert.Len(t, got, 1)

	require.NoError(t, svc.Unregister(as(ownerA), "tok-a"))
	got, _ = svc.ListByOwner(context.Background(), ownerA)
	assert.Empty(t, got)
}

func TestPrune(t *testing.T) {
	repo := NewMemoryRepository(&Token{Token: "stale-token-123456", OwnerID: ownerA})
	svc := NewService(repo)

	require.NoError(t, svc.Prune(context.Background(), "stale-token-123456"))

	got, _ := svc.ListByOwner(context.Background(), ownerA)
	assert.Empty(t, got)
	assert.Equal(t, "n-123456", suffix("stale-token-123456"))
}
