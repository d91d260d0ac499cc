// Package numerator provides the PostgreSQL implementation of invoice numbering.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	corenumerator "stocky/internal/core/numerator"
	"stocky/internal/core/types"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, so numbering joins the
// caller's transaction when there is one.
type QuerierFunc func(ctx context.Context) Querier

// Service allocates invoice numbers.
type Service struct {
	querier  QuerierFunc
	cfg      corenumerator.Config
	strategy corenumerator.Strategy
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(querier QuerierFunc, strategy corenumerator.Strategy) *Service {
	return &Service{
		querier:  querier,
		cfg:      corenumerator.InvoiceConfig(),
		strategy: strategy,
	}
}

// NewStatic creates a numerator bound to a single querier (tests, CLI tools).
func NewStatic(q Querier, strategy corenumerator.Strategy) *Service {
	return New(func(context.Context) Querier { return q }, strategy)
}

// Next implements corenumerator.Generator.
func (s *Service) Next(ctx context.Context, shopID id.ID, at time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", apperror.NewInternal(fmt.Errorf("numerator service is not initialized"))
	}

	q := s.querier(ctx)

	prev, err := s.lastInvoiceToday(ctx, q, shopID, at)
	if err != nil {
		return "", apperror.NewPersistence("last invoice lookup", err)
	}

	var serial int64
	switch s.strategy {
	case corenumerator.StrategyLastInvoice:
		serial = corenumerator.NextSerial(prev)
	default:
		serial, err = s.increment(ctx, q, shopID, at, corenumerator.NextSerial(prev)-1)
		if err != nil {
			return "", apperror.NewPersistence("invoice counter", err)
		}
	}

	return corenumerator.Format(s.cfg, at, serial), nil
}

// Peek implements corenumerator.Generator. It reads the last invoice of
// the day and never touches the counter.
func (s *Service) Peek(ctx context.Context, shopID id.ID, at time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", apperror.NewInternal(fmt.Errorf("numerator service is not initialized"))
	}
	prev, err := s.lastInvoiceToday(ctx, s.querier(ctx), shopID, at)
	if err != nil {
		return "", apperror.NewPersistence("last invoice lookup", err)
	}
	return corenumerator.Format(s.cfg, at, corenumerator.NextSerial(prev)), nil
}

// lastInvoiceToday returns the newest invoice number created since local
// midnight, or "" when there is none.
func (s *Service) lastInvoiceToday(ctx context.Context, q Querier, shopID id.ID, at time.Time) (string, error) {
	var number string
	err := q.QueryRow(ctx, `
		SELECT invoice_number
		FROM bills
		WHERE shop_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, shopID, types.StartOfDay(at, at.Location())).Scan(&number)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query last invoice: %w", err)
	}
	return number, nil
}

// increment bumps the shop's counter for the day. The first call of a day
// seeds the row from seed, so the counter continues after any invoice
// that was issued before the row existed.
func (s *Service) increment(ctx context.Context, q Querier, shopID id.ID, at time.Time, seed int64) (int64, error) {
	var num int64
	err := q.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2::bigint + 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, corenumerator.DayKey(s.cfg, shopID, at), seed).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("increment counter: %w", err)
	}
	return num, nil
}
