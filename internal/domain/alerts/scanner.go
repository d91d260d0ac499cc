package alerts

import (
	"context"
	"fmt"
	"time"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain/medicine"
	"stocky/internal/domain/shop"
	"stocky/pkg/logger"
)

// ThresholdSource resolves a shop's thresholds, falling back to defaults
// when the shop has no profile. shop.Service implements it.
type ThresholdSource interface {
	Thresholds(ctx context.Context, shopID id.ID) (shop.Defaults, error)
	Defaults() shop.Defaults
}

// Report is the notification list plus the categories that could not be read.
type Report struct {
	Items    []Item   `json:"items"`
	Warnings []string `json:"warnings,omitempty"`
}

// Scanner runs category queries against storage. It never fails the
// caller: a failed category is left out and reported as a warning.
type Scanner struct {
	medicines  medicine.Repository
	thresholds ThresholdSource
	clock      types.Clock
	loc        *time.Location
}

// NewScanner creates a scanner that evaluates "today" in loc.
func NewScanner(medicines medicine.Repository, thresholds ThresholdSource, clock types.Clock, loc *time.Location) *Scanner {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scanner{medicines: medicines, thresholds: thresholds, clock: clock, loc: loc}
}

// Today is the shop-local calendar date.
func (s *Scanner) Today() time.Time {
	return types.Today(s.clock.Now(), s.loc)
}

// Scan builds the capped notification list for a shop.
func (s *Scanner) Scan(ctx context.Context, shopID id.ID) Report {
	now := s.clock.Now()
	rules, warnings := s.rules(ctx, shopID, false)
	today := types.Today(now, s.loc)

	report := Report{Items: []Item{}, Warnings: warnings}
	categories := []struct {
		kind  Kind
		cat   medicine.Category
		limit int
	}{
		{KindLowStock, medicine.CategoryLowStock, LowStockLimit},
		{KindExpired, medicine.CategoryExpired, ExpiredLimit},
		{KindExpiringSoon, medicine.CategoryExpiringSoon, ExpiringSoonLimit},
	}

	for _, c := range categories {
		batches, err := s.medicines.FindByCategory(ctx, shopID, s.query(c.cat, rules, today, c.limit))
		if err != nil {
			report.Warnings = append(report.Warnings, s.warn(ctx, shopID, string(c.kind), err))
			continue
		}
		report.Items = appendItems(report.Items, c.kind, batches, rules, now)
	}
	return report
}

// Counts returns uncapped category sizes for the dashboard, where expired
// batches only count while they still hold stock.
func (s *Scanner) Counts(ctx context.Context, shopID id.ID) Counts {
	rules, warnings := s.rules(ctx, shopID, true)
	today := s.Today()

	counts := Counts{Warnings: warnings}
	targets := []struct {
		cat medicine.Category
		dst *int
	}{
		{medicine.CategoryLowStock, &counts.LowStock},
		{medicine.CategoryExpired, &counts.Expired},
		{medicine.CategoryExpiringSoon, &counts.ExpiringSoon},
	}

	for _, t := range targets {
		n, err := s.medicines.CountByCategory(ctx, shopID, s.query(t.cat, rules, today, 0))
		if err != nil {
			counts.Warnings = append(counts.Warnings, s.warn(ctx, shopID, string(t.cat), err))
			continue
		}
		*t.dst = n
	}
	return counts
}

// ReturnCandidates lists stock that is expired or inside the expiry
// window, soonest first, for the returns screen.
func (s *Scanner) ReturnCandidates(ctx context.Context, shopID id.ID) ([]*medicine.Medicine, error) {
	rules, _ := s.rules(ctx, shopID, true)
	batches, err := s.medicines.FindByCategory(ctx, shopID, s.query(medicine.CategoryReturnCandidate, rules, s.Today(), 0))
	if err != nil {
		return nil, apperror.Persistence("list return candidates", err)
	}
	return batches, nil
}

func (s *Scanner) rules(ctx context.Context, shopID id.ID, expiredRequiresStock bool) (Rules, []string) {
	var warnings []string
	t, err := s.thresholds.Thresholds(ctx, shopID)
	if err != nil {
		warnings = append(warnings, s.warn(ctx, shopID, "settings", err))
		t = s.thresholds.Defaults()
	}
	return Rules{
		LowStockThreshold:    t.LowStockThreshold,
		ExpiryThresholdDays:  t.ExpiryThresholdDays,
		ExpiredRequiresStock: expiredRequiresStock,
	}, warnings
}

func (s *Scanner) query(cat medicine.Category, rules Rules, today time.Time, limit int) medicine.CategoryQuery {
	return medicine.CategoryQuery{
		Category:          cat,
		Today:             today,
		LowStockThreshold: rules.LowStockThreshold,
		ExpiryWindowDays:  rules.ExpiryThresholdDays,
		RequireStock:      rules.ExpiredRequiresStock,
		Limit:             limit,
	}
}

func (s *Scanner) warn(ctx context.Context, shopID id.ID, category string, err error) string {
	logger.Warn(ctx, "alert category skipped", "shop_id", shopID, "category", category, "error", err)
	return fmt.Sprintf("%s: unavailable", category)
}
