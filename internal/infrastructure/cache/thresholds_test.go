package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/id"
	"stocky/internal/domain/shop"
)

type countingSource struct {
	calls int
	value shop.Defaults
	err   error
}

func (s *countingSource) Thresholds(context.Context, id.ID) (shop.Defaults, error) {
	s.calls++
	return s.value, s.err
}

func (s *countingSource) Defaults() shop.Defaults { return shop.Defaults{LowStockThreshold: 10, ExpiryThresholdDays: 30} }

// racingSource delivers a profile-change notification while a load is in
// flight, then returns the value read before the change.
type racingSource struct {
	countingSource
	cache  *ThresholdCache
	notify bool
}

func (s *racingSource) Thresholds(ctx context.Context, shopID id.ID) (shop.Defaults, error) {
	v, err := s.countingSource.Thresholds(ctx, shopID)
	if s.notify {
		s.notify = false
		s.cache.handleNotification(ChannelShopProfileChanged, shopID.String())
	}
	return v, err
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func newTestCache(src ThresholdSource) (*ThresholdCache, *stepClock) {
	clk := &stepClock{now: time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)}
	return NewThresholdCache(src, nil, time.Minute, clk), clk
}

func TestThresholds_HitWithinTTL(t *testing.T) {
	src := &countingSource{value: shop.Defaults{LowStockThreshold: 5, ExpiryThresholdDays: 45}}
	c, clk := newTestCache(src)
	shopID := id.New()

	first, err := c.Thresholds(context.Background(), shopID)
	require.NoError(t, err)
	clk.now = clk.now.Add(30 * time.Second)
	second, err := c.Thresholds(context.Background(), shopID)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 45, second.ExpiryThresholdDays)
}

func TestThresholds_ReloadsAfterTTL(t *testing.T) {
	src := &countingSource{value: shop.Defaults{LowStockThreshold: 5}}
	c, clk := newTestCache(src)
	shopID := id.New()

	_, _ = c.Thresholds(context.Background(), shopID)
	clk.now = clk.now.Add(2 * time.Minute)
	_, _ = c.Thresholds(context.Background(), shopID)

	assert.Equal(t, 2, src.calls)
}

func TestThresholds_ErrorsNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("db down")}
	c, _ := newTestCache(src)
	shopID := id.New()

	_, err := c.Thresholds(context.Background(), shopID)
	require.Error(t, err)
	assert.Zero(t, c.Len())

	src.err = nil
	_, err = c.Thresholds(context.Background(), shopID)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 1, c.Len())
}

func TestHandleNotification(t *testing.T) {
	src := &countingSource{}
	c, _ := newTestCache(src)
	a, b := id.New(), id.New()
	_, _ = c.Thresholds(context.Background(), a)
	_, _ = c.Thresholds(context.Background(), b)

	c.handleNotification("other_channel", a.String())
	assert.Equal(t, 2, c.Len())

	c.handleNotification(ChannelShopProfileChanged, a.String())
	assert.Equal(t, 1, c.Len())

	c.handleNotification(ChannelShopProfileChanged, "garbage")
	assert.Zero(t, c.Len())
}

func TestStartStop_WithoutPool(t *testing.T) {
	c, _ := newTestCache(&countingSource{})

	c.Start(context.Background())
	c.Stop()

	assert.False(t, c.started)
}

func TestThresholds_LoadRacingInvalidationIsNotStored(t *testing.T) {
	src := &racingSource{countingSource: countingSource{value: shop.Defaults{LowStockThreshold: 5}}, notify: true}
	c, _ := newTestCache(src)
	src.cache = c
	shopID := id.New()

	v, err := c.Thresholds(context.Background(), shopID)
	require.NoError(t, err)
	assert.Equal(t, 5, v.LowStockThreshold)
	assert.Zero(t, c.Len())

	src.value = shop.Defaults{LowStockThreshold: 7}
	v, err = c.Thresholds(context.Background(), shopID)
	require.NoError(t, err)
	assert.Equal(t, 7, v.LowStockThreshold)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 1, c.Len())
}
