package billing

import (
	"context"
	"strings"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/numerator"
	"stocky/internal/core/tx"
	"stocky/internal/core/types"
	"stocky/internal/domain"
	"stocky/internal/domain/medicine"
	"stocky/internal/domain/shop"
	"stocky/pkg/logger"
)

// ProfileReader supplies the seller details snapshotted onto a bill.
type ProfileReader interface {
	Get(ctx context.Context, shopID id.ID) (*shop.Profile, error)
}

// ServiceConfig holds the dependencies of Service.
type ServiceConfig struct {
	Repo        Repository
	Medicines   medicine.Repository
	Profiles    ProfileReader
	Numerator   numerator.Generator
	TxManager   tx.Manager
	Clock       types.Clock
	Location    *time.Location
	PhoneRegion string
}

// Service implements checkout and bill history.
type Service struct {
	repo        Repository
	medicines   medicine.Repository
	profiles    ProfileReader
	numerator   numerator.Generator
	txManager   tx.Manager
	clock       types.Clock
	loc         *time.Location
	phoneRegion string
	hooks       *domain.HookRegistry[*Bill]
}

// NewService creates a new billing service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		repo:        cfg.Repo,
		medicines:   cfg.Medicines,
		profiles:    cfg.Profiles,
		numerator:   cfg.Numerator,
		txManager:   cfg.TxManager,
		clock:       cfg.Clock,
		loc:         cfg.Location,
		phoneRegion: cfg.PhoneRegion,
		hooks:       domain.NewHookRegistry[*Bill](),
	}
}

// Hooks returns the hook registry for custom business logic.
func (s *Service) Hooks() *domain.HookRegistry[*Bill] {
	return s.hooks
}

// Create checks out a cart: numbers the bill, deducts stock and stores the
// bill with its items, all in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Bill, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParsePaymentMode(in.PaymentMode)
	if err != nil {
		return nil, err
	}
	phone, err := NormalizePhone(in.CustomerPhone, s.phoneRegion)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().In(s.loc)
	bill := &Bill{
		ID:            id.New(),
		ShopID:        shopID,
		CustomerName:  in.CustomerName,
		CustomerPhone: phone,
		DoctorName:    in.DoctorName,
		PaymentMode:   mode,
		Status:        StatusCompleted,
		CreatedAt:     now.UTC(),
	}
	if mode == PaymentCredit {
		bill.Status = StatusDue
	}
	if p, err := s.profiles.Get(ctx, shopID); err == nil {
		bill.SellerDLNumber = p.DrugLicense
	} else if !apperror.IsNotFound(err) {
		logger.Warn(ctx, "seller profile unavailable for bill", "error", err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.Next(ctx, shopID, now)
		if err != nil {
			return err
		}
		bill.InvoiceNumber = number

		purchase := make(map[id.ID]types.Money, len(in.Lines))
		bill.Items = make([]LineItem, 0, len(in.Lines))
		for i, line := range in.Lines {
			med, err := s.medicines.GetForUpdate(ctx, shopID, line.MedicineID)
			if err != nil {
				return err
			}
			if err := med.Deduct(line.Quantity); err != nil {
				return err
			}
			if err := s.medicines.UpdateStock(ctx, med); err != nil {
				return err
			}

			purchase[med.ID] = med.PurchasePrice
			bill.Items = append(bill.Items, LineItem{
				ID:           id.New(),
				BillID:       bill.ID,
				LineNo:       i + 1,
				MedicineID:   med.ID,
				MedicineName: med.Name,
				BatchNumber:  med.BatchNumber,
				ExpiryDate:   med.ExpiryDate,
				Quantity:     line.Quantity,
				SellingPrice: line.SellingPrice,
				MRP:          med.MRP,
			})
		}
		bill.TotalAmount, bill.TotalProfit = Totals(bill.Items, purchase)

		return s.repo.Create(ctx, bill)
	})
	if err != nil {
		return nil, apperror.Persistence("create bill", err)
	}

	s.hooks.RunAfter(ctx, domain.AfterCreate, bill)
	logger.Info(ctx, "bill created",
		"bill_id", bill.ID,
		"invoice_number", bill.InvoiceNumber,
		"items", len(bill.Items),
		"total", bill.TotalAmount.StringFixed(2))
	return bill, nil
}

// NextNumber previews the invoice number the next checkout will get.
func (s *Service) NextNumber(ctx context.Context) (string, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return "", err
	}
	return s.numerator.Peek(ctx, shopID, s.clock.Now().In(s.loc))
}

// Get returns a bill with its items.
func (s *Service) Get(ctx context.Context, billID id.ID) (*Bill, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	bill, err := s.repo.GetByID(ctx, shopID, billID)
	if err != nil {
		return nil, apperror.Persistence("get bill", err)
	}
	return bill, nil
}

// List pages through bills, newest first. Search matches invoice number
// and customer name.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Bill], error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return domain.ListResult[*Bill]{}, err
	}
	filter = filter.Normalize()
	filter.Search = strings.TrimSpace(filter.Search)
	res, err := s.repo.List(ctx, shopID, filter)
	if err != nil {
		return res, apperror.Persistence("list bills", err)
	}
	return res, nil
}

// Range returns bills with items for shop-local days [from, to].
func (s *Service) Range(ctx context.Context, from, to time.Time) ([]*Bill, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperror.NewValidation("range end is before start")
	}
	start := s.localMidnight(from)
	end := s.localMidnight(types.AddDays(to, 1))

	bills, err := s.repo.ListRange(ctx, shopID, start, end)
	if err != nil {
		return nil, apperror.Persistence("list bills in range", err)
	}
	return bills, nil
}

// TodaySales totals today's bills in the shop's time zone.
func (s *Service) TodaySales(ctx context.Context, shopID id.ID) (types.Money, int, error) {
	start := types.StartOfDay(s.clock.Now(), s.loc)
	total, count, err := s.repo.SalesSummary(ctx, shopID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return types.Zero(), 0, apperror.Persistence("sales summary", err)
	}
	return total, count, nil
}

// Delete removes a bill. Stock is not restored.
func (s *Service) Delete(ctx context.Context, billID id.ID) error {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return err
	}
	bill, err := s.repo.GetByID(ctx, shopID, billID)
	if err != nil {
		return apperror.Persistence("get bill", err)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, shopID, billID)
	})
	if err != nil {
		return apperror.Persistence("delete bill", err)
	}

	s.hooks.RunAfter(ctx, domain.AfterDelete, bill)
	return nil
}

// localMidnight maps a calendar date to the instant it starts in the shop zone.
func (s *Service) localMidnight(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}
