package postgres

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "stocky/internal/core/context"
	"stocky/internal/core/id"
)

func TestAuditPrepare_FillsActorFromContext(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	owner := id.New()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: owner.String(), ShopID: owner.String(), Email: "owner@example.com",
	})
	entry := AuditEntry{EntityType: "bill", Changes: []byte(`{"total":"10.00"}`)}

	svc.prepare(ctx, &entry)

	assert.Equal(t, owner.String(), entry.UserID)
	assert.Equal(t, "owner@example.com", entry.UserEmail)
	require.NotNil(t, entry.ShopID)
	assert.Equal(t, owner, *entry.ShopID)
	assert.False(t, id.IsNil(entry.ID))
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.Nil(t, entry.ChangesCompressed)
}

func TestAuditPrepare_CompressesLargeSnapshots(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	payload := append([]byte(`{"items":"`), bytes.Repeat([]byte("a"), DefaultCompressThreshold+1)...)
	payload = append(payload, `"}`...)
	entry := AuditEntry{Changes: payload}

	svc.prepare(context.Background(), &entry)

	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Nil(t, entry.Changes)
	assert.Less(t, len(entry.ChangesCompressed), len(payload))
	assert.Nil(t, entry.ShopID)

	require.NoError(t, svc.inflate(&entry))
	assert.Equal(t, payload, []byte(entry.Changes))
}

func TestDiff(t *testing.T) {
	oldState := map[string]any{"name": "Dolo 650", "stock_packets": 10, "location": "A1"}
	newState := map[string]any{"name": "Dolo 650", "stock_packets": 8, "supplier": "Medline"}

	changes := Diff(oldState, newState)

	assert.Equal(t, map[string]any{
		"stock_packets": map[string]any{"old": 10, "new": 8},
		"supplier":      map[string]any{"old": nil, "new": "Medline"},
		"location":      map[string]any{"old": "A1", "new": nil},
	}, changes)
}
