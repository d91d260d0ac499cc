package medicine

import (
	"context"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/domain"
)

// MockRepository is a Repository whose behaviour is supplied per test.
// Unset functions return empty results.
type MockRepository struct {
	CreateFunc          func(ctx context.Context, m *Medicine) error
	GetByIDFunc         func(ctx context.Context, shopID, medicineID id.ID) (*Medicine, error)
	GetForUpdateFunc    func(ctx context.Context, shopID, medicineID id.ID) (*Medicine, error)
	UpdateFunc          func(ctx context.Context, m *Medicine) error
	UpdateStockFunc     func(ctx context.Context, m *Medicine) error
	DeleteFunc          func(ctx context.Context, shopID, medicineID id.ID) error
	ListFunc            func(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*Medicine], error)
	SearchForSaleFunc   func(ctx context.Context, shopID id.ID, query string, limit int) ([]*Medicine, error)
	ListAllFunc         func(ctx context.Context) ([]*Medicine, error)
	FindByCategoryFunc  func(ctx context.Context, shopID id.ID, q CategoryQuery) ([]*Medicine, error)
	CountByCategoryFunc func(ctx context.Context, shopID id.ID, q CategoryQuery) (int, error)
}

var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) Create(ctx context.Context, med *Medicine) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, med)
	}
	return nil
}

func (m *MockRepository) GetByID(ctx context.Context, shopID, medicineID id.ID) (*Medicine, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, shopID, medicineID)
	}
	return nil, apperror.NewNotFound("medicine", medicineID.String())
}

func (m *MockRepository) GetForUpdate(ctx context.Context, shopID, medicineID id.ID) (*Medicine, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, shopID, medicineID)
	}
	return m.GetByID(ctx, shopID, medicineID)
}

func (m *MockRepository) Update(ctx context.Context, med *Medicine) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, med)
	}
	return nil
}

func (m *MockRepository) UpdateStock(ctx context.Context, med *Medicine) error {
	if m.UpdateStockFunc != nil {
		return m.UpdateStockFunc(ctx, med)
	}
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, shopID, medicineID id.ID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, shopID, medicineID)
	}
	return nil
}

func (m *MockRepository) List(ctx context.Context, shopID id.ID, filter domain.ListFilter) (domain.ListResult[*Medicine], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, shopID, filter)
	}
	return domain.ListResult[*Medicine]{Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (m *MockRepository) SearchForSale(ctx context.Context, shopID id.ID, query string, limit int) ([]*Medicine, error) {
	if m.SearchForSaleFunc != nil {
		return m.SearchForSaleFunc(ctx, shopID, query, limit)
	}
	return nil, nil
}

func (m *MockRepository) ListAll(ctx context.Context) ([]*Medicine, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return nil, nil
}

func (m *MockRepository) FindByCategory(ctx context.Context, shopID id.ID, q CategoryQuery) ([]*Medicine, error) {
	if m.FindByCategoryFunc != nil {
		return m.FindByCategoryFunc(ctx, shopID, q)
	}
	return nil, nil
}

func (m *MockRepository) CountByCategory(ctx context.Context, shopID id.ID, q CategoryQuery) (int, error) {
	if m.CountByCategoryFunc != nil {
		return m.CountByCategoryFunc(ctx, shopID, q)
	}
	return 0, nil
}
