package returns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/apperror"
	appctx "stocky/internal/core/context"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/core/types"
	"stocky/internal/domain"
	"stocky/internal/domain/medicine"
)

var shopID = id.MustParse("0190a6f1-0000-7000-8000-0000000000e1")

type fakeRepo struct{ records []*Return }

func (r *fakeRepo) Create(_ context.Context, rec *Return) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRepo) List(context.Context, id.ID, domain.ListFilter) (domain.ListResult[*Return], error) {
	return domain.ListResult[*Return]{Items: r.records, TotalCount: int64(len(r.records))}, nil
}

func ownerCtx() context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{UserID: shopID.String(), ShopID: shopID.String()})
}

func setup(m *medicine.Medicine) (*Service, *fakeRepo, *medicine.Medicine) {
	stored := *m
	medRepo := &medicine.MockRepository{
		GetForUpdateFunc: func(context.Context, id.ID, id.ID) (*medicine.Medicine, error) {
			cp := stored
			return &cp, nil
		},
		UpdateStockFunc: func(_ context.Context, m *medicine.Medicine) error {
			stored = *m
			return nil
		},
	}
	repo := &fakeRepo{}
	clock := types.FixedClock(time.Date(2025, 5, 31, 20, 0, 0, 0, time.UTC))
	return NewService(repo, medRepo, tx.Passthrough{}, clock, time.FixedZone("IST", 5*3600+1800)), repo, &stored
}

func batch() *medicine.Medicine {
	return &medicine.Medicine{
		ID:              id.New(),
		Name:            "Azithromycin",
		BatchNumber:     "AZ-77",
		UnitKind:        medicine.KindStrip,
		UnitsPerPackage: 6,
		PackageStock:    3,
		LooseStock:      2,
	}
}

func TestRecord(t *testing.T) {
	m := batch()
	svc, repo, stored := setup(m)

	rec, err := svc.Record(ownerCtx(), RecordInput{MedicineID: m.ID, Packages: 2, Loose: 1, Reason: "damaged"})

	require.NoError(t, err)
	assert.Equal(t, ReasonDamaged, rec.Reason)
	assert.Equal(t, "Azithromycin", rec.MedicineName)
	assert.Equal(t, "AZ-77", rec.BatchNumber)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), rec.ReturnDate, "shop-local date")
	assert.Equal(t, 1, stored.PackageStock)
	assert.Equal(t, 1, stored.LooseStock)
	assert.Len(t, repo.records, 1)
}

func TestRecord_DefaultReasonIsExpired(t *testing.T) {
	m := batch()
	svc, _, _ := setup(m)

	rec, err := svc.Record(ownerCtx(), RecordInput{MedicineID: m.ID, Packages: 1})

	require.NoError(t, err)
	assert.Equal(t, ReasonExpired, rec.Reason)
}

func TestRecord_Rejects(t *testing.T) {
	m := batch()
	tests := []struct {
		name string
		in   RecordInput
		code string
	}{
		{"nothing", RecordInput{MedicineID: m.ID}, apperror.CodeValidation},
		{"negative", RecordInput{MedicineID: m.ID, Packages: -1, Loose: 2}, apperror.CodeValidation},
		{"reason", RecordInput{MedicineID: m.ID, Packages: 1, Reason: "lost"}, apperror.CodeValidation},
		{"too many packages", RecordInput{MedicineID: m.ID, Packages: 4}, apperror.CodeInsufficientStock},
		{"too many loose", RecordInput{MedicineID: m.ID, Loose: 3}, apperror.CodeInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, stored := setup(m)
			_, err := svc.Record(ownerCtx(), tt.in)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, repo.records)
			assert.Equal(t, 3, stored.PackageStock)
		})
	}
}
