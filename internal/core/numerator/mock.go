package numerator

import (
	"context"
	"time"

	"stocky/internal/core/id"
)

// MockGenerator is a test implementation of Generator.
type MockGenerator struct {
	NextFunc func(ctx context.Context, shopID id.ID, at time.Time) (string, error)
	PeekFunc func(ctx context.Context, shopID id.ID, at time.Time) (string, error)
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, shopID id.ID, at time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, shopID, at)
	}
	return Format(InvoiceConfig(), at, 1), nil
}

// Peek implements Generator.
func (m *MockGenerator) Peek(ctx context.Context, shopID id.ID, at time.Time) (string, error) {
	if m.PeekFunc != nil {
		return m.PeekFunc(ctx, shopID, at)
	}
	return Format(InvoiceConfig(), at, 1), nil
}

var _ Generator = (*MockGenerator)(nil)
