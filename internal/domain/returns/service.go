package returns

import (
	"context"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/core/types"
	"stocky/internal/domain"
	"stocky/internal/domain/medicine"
	"stocky/pkg/logger"
)

// Service records returns and lists past ones.
type Service struct {
	repo      Repository
	medicines medicine.Repository
	txManager tx.Manager
	clock     types.Clock
	loc       *time.Location
	hooks     *domain.HookRegistry[*Return]
}

// NewService creates a new returns service.
func NewService(repo Repository, medicines medicine.Repository, txManager tx.Manager, clock types.Clock, loc *time.Location) *Service {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		medicines: medicines,
		txManager: txManager,
		clock:     clock,
		loc:       loc,
		hooks:     domain.NewHookRegistry[*Return](),
	}
}

// Hooks returns the hook registry for custom business logic.
func (s *Service) Hooks() *domain.HookRegistry[*Return] {
	return s.hooks
}

// Record removes the returned stock from the batch and stores the record.
func (s *Service) Record(ctx context.Context, in RecordInput) (*Return, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	reason, err := ParseReason(in.Reason)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rec := &Return{
		ID:               id.New(),
		ShopID:           shopID,
		MedicineID:       in.MedicineID,
		PackagesReturned: in.Packages,
		LooseReturned:    in.Loose,
		Reason:           reason,
		ReturnDate:       types.Today(now, s.loc),
		CreatedAt:        now.UTC(),
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		med, err := s.medicines.GetForUpdate(ctx, shopID, in.MedicineID)
		if err != nil {
			return err
		}
		if err := med.RemovePackaged(in.Packages, in.Loose); err != nil {
			return err
		}
		if err := s.medicines.UpdateStock(ctx, med); err != nil {
			return err
		}
		rec.MedicineName = med.Name
		rec.BatchNumber = med.BatchNumber
		return s.repo.Create(ctx, rec)
	})
	if err != nil {
		return nil, apperror.Persistence("record return", err)
	}

	s.hooks.RunAfter(ctx, domain.AfterCreate, rec)
	logger.Info(ctx, "return recorded",
		"medicine_id", rec.MedicineID,
		"packages", rec.PackagesReturned,
		"loose", rec.LooseReturned,
		"reason", rec.Reason)
	return rec, nil
}

// List pages through past returns, newest first.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Return], error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return domain.ListResult[*Return]{}, err
	}
	res, err := s.repo.List(ctx, shopID, filter.Normalize())
	if err != nil {
		return res, apperror.Persistence("list returns", err)
	}
	return res, nil
}
