package medicine

import (
	"context"
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/domain"
	"stocky/pkg/logger"
)

// SearchLimit caps billing search results.
const SearchLimit = 10

// Service provides the medicine catalog operations for the caller's shop.
type Service struct {
	repo      Repository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Medicine]
}

// NewService creates a new medicine service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Medicine](),
	}
}

// Hooks returns the hook registry for custom business logic.
func (s *Service) Hooks() *domain.HookRegistry[*Medicine] {
	return s.hooks
}

// Create adds a batch to the caller's shop.
func (s *Service) Create(ctx context.Context, m *Medicine) error {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return err
	}

	m.ID = id.New()
	m.ShopID = shopID
	m.Version = 1
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now

	m.Normalize()
	if err := m.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, m); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, m)
	})
	if err != nil {
		return apperror.Persistence("create medicine", err)
	}

	s.hooks.RunAfter(ctx, domain.AfterCreate, m)
	logger.Info(ctx, "medicine created", "medicine_id", m.ID, "name", m.Name)
	return nil
}

// GetByID returns one batch of the caller's shop.
func (s *Service) GetByID(ctx context.Context, medicineID id.ID) (*Medicine, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, shopID, medicineID)
	if err != nil {
		return nil, apperror.Persistence("get medicine", err)
	}
	return m, nil
}

// Update replaces the editable fields of a batch. m.Version must carry the
// version the caller read.
func (s *Service) Update(ctx context.Context, m *Medicine) error {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, shopID, m.ID)
	if err != nil {
		return apperror.Persistence("get medicine", err)
	}

	m.ShopID = shopID
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now().UTC()

	m.Normalize()
	if err := m.Validate(ctx); err != nil {
		return domain.NormalizeValidationErr(err)
	}
	if err := s.hooks.Run(ctx, domain.BeforeUpdate, m); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, m)
	})
	if err != nil {
		return apperror.Persistence("update medicine", err)
	}
	m.Version++

	s.hooks.RunAfter(ctx, domain.AfterUpdate, m)
	return nil
}

// Delete removes a batch. Bills keep their own snapshots of it.
func (s *Service) Delete(ctx context.Context, medicineID id.ID) error {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetByID(ctx, shopID, medicineID)
	if err != nil {
		return apperror.Persistence("get medicine", err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, shopID, medicineID)
	})
	if err != nil {
		return apperror.Persistence("delete medicine", err)
	}

	s.hooks.RunAfter(ctx, domain.AfterDelete, existing)
	return nil
}

// List pages through the caller's stock.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Medicine], error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return domain.ListResult[*Medicine]{}, err
	}
	filter = filter.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)

	res, err := s.repo.List(ctx, shopID, filter)
	if err != nil {
		return res, apperror.Persistence("list medicines", err)
	}
	return res, nil
}

// SearchForSale finds sellable batches for the billing screen.
// Blank queries return nothing.
func (s *Service) SearchForSale(ctx context.Context, query string) ([]*Medicine, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Medicine{}, nil
	}

	items, err := s.repo.SearchForSale(ctx, shopID, query, SearchLimit)
	if err != nil {
		return nil, apperror.Persistence("search medicines", err)
	}
	return items, nil
}
