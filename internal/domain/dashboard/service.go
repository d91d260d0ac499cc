// Package dashboard assembles the owner's landing-page summary.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain"
	"stocky/internal/domain/alerts"
	"stocky/internal/domain/billing"
	"stocky/internal/domain/shop"
)

// RecentLimit is the number of recent bills shown.
const RecentLimit = 5

// Sales reads bill figures.
type Sales interface {
	TodaySales(ctx context.Context, shopID id.ID) (types.Money, int, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*billing.Bill], error)
}

// AlertCounter counts alert categories without failing.
type AlertCounter interface {
	Counts(ctx context.Context, shopID id.ID) alerts.Counts
}

// ThresholdSource resolves the shop's alert settings.
type ThresholdSource interface {
	Thresholds(ctx context.Context, shopID id.ID) (shop.Defaults, error)
}

// Summary is the dashboard payload.
type Summary struct {
	TodaySales          types.Money     `json:"todaySales"`
	TodayBills          int             `json:"todayBills"`
	LowStock            int             `json:"lowStock"`
	Expired             int             `json:"expired"`
	ExpiringSoon        int             `json:"expiringSoon"`
	ExpiryThresholdDays int             `json:"expiryThresholdDays"`
	RecentBills         []*billing.Bill `json:"recentBills"`
	Warnings            []string        `json:"warnings,omitempty"`
}

// Service builds summaries.
type Service struct {
	sales      Sales
	alerts     AlertCounter
	thresholds ThresholdSource
}

// NewService creates a dashboard service.
func NewService(sales Sales, counter AlertCounter, thresholds ThresholdSource) *Service {
	return &Service{sales: sales, alerts: counter, thresholds: thresholds}
}

// Get loads the caller's summary. Sales figures and recent bills are
// required; alert counts degrade to warnings.
func (s *Service) Get(ctx context.Context) (*Summary, error) {
	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		return nil, err
	}

	var (
		sum    Summary
		counts alerts.Counts
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, n, err := s.sales.TodaySales(gctx, shopID)
		if err != nil {
			return err
		}
		sum.TodaySales, sum.TodayBills = total, n
		return nil
	})
	g.Go(func() error {
		res, err := s.sales.List(gctx, domain.ListFilter{Limit: RecentLimit})
		if err != nil {
			return err
		}
		sum.RecentBills = res.Items
		return nil
	})
	g.Go(func() error {
		counts = s.alerts.Counts(gctx, shopID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum.LowStock = counts.LowStock
	sum.Expired = counts.Expired
	sum.ExpiringSoon = counts.ExpiringSoon
	sum.Warnings = counts.Warnings
	if sum.RecentBills == nil {
		sum.RecentBills = []*billing.Bill{}
	}

	if t, err := s.thresholds.Thresholds(ctx, shopID); err == nil {
		sum.ExpiryThresholdDays = t.ExpiryThresholdDays
	}
	return &sum, nil
}
