// Package cache keeps shop alert thresholds in memory with invalidation
// driven by PostgreSQL LISTEN/NOTIFY.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stocky/internal/core/id"
	"stocky/internal/core/types"
	"stocky/internal/domain/shop"
	"stocky/pkg/logger"
)

// ChannelShopProfileChanged is raised by the shop_profiles trigger with the
// shop id as payload.
const ChannelShopProfileChanged = "shop_profile_changed"

// ThresholdSource resolves thresholds from storage.
type ThresholdSource interface {
	Thresholds(ctx context.Context, shopID id.ID) (shop.Defaults, error)
	Defaults() shop.Defaults
}

type thresholdEntry struct {
	value    shop.Defaults
	loadedAt time.Time
}

// ThresholdCache serves shop thresholds from memory. Entries are dropped on
// NOTIFY and expire after ttl so a missed notification heals itself.
type ThresholdCache struct {
	source ThresholdSource
	pool   *pgxpool.Pool
	ttl    time.Duration
	clock  types.Clock

	mu      sync.RWMutex
	entries map[id.ID]thresholdEntry
	// gen changes on every invalidation; a load that straddles one is
	// returned but not stored.
	gen uint64

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewThresholdCache wraps source. pool may be nil, in which case only ttl
// expiry applies.
func NewThresholdCache(source ThresholdSource, pool *pgxpool.Pool, ttl time.Duration, clock types.Clock) *ThresholdCache {
	if clock == nil {
		clock = types.SystemClock{}
	}
	return &ThresholdCache{
		source:  source,
		pool:    pool,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[id.ID]thresholdEntry),
		ctx:     context.Background(),
	}
}

// Thresholds implements ThresholdSource. Errors are not cached.
func (c *ThresholdCache) Thresholds(ctx context.Context, shopID id.ID) (shop.Defaults, error) {
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.entries[shopID]
	gen := c.gen
	c.mu.RUnlock()
	if ok && now.Sub(e.loadedAt) < c.ttl {
		return e.value, nil
	}

	v, err := c.source.Thresholds(ctx, shopID)
	if err != nil {
		return shop.Defaults{}, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.entries[shopID] = thresholdEntry{value: v, loadedAt: now}
	}
	c.mu.Unlock()
	return v, nil
}

// Defaults returns the source's process-wide defaults.
func (c *ThresholdCache) Defaults() shop.Defaults {
	return c.source.Defaults()
}

// Invalidate drops the entry for shopID.
func (c *ThresholdCache) Invalidate(shopID id.ID) {
	c.mu.Lock()
	delete(c.entries, shopID)
	c.gen++
	c.mu.Unlock()
}

// InvalidateAll empties the cache.
func (c *ThresholdCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[id.ID]thresholdEntry)
	c.gen++
	c.mu.Unlock()
}

// Len returns the number of cached shops.
func (c *ThresholdCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Start begins listening for profile changes. It is a no-op without a pool.
func (c *ThresholdCache) Start(ctx context.Context) {
	if c.pool == nil {
		return
	}

	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if c.started {
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true

	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "threshold cache started", "ttl", c.ttl)
}

// Stop ends the listener and waits for it to exit.
func (c *ThresholdCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	cancel()
	c.wg.Wait()
}

func (c *ThresholdCache) listenLoop() {
	defer c.wg.Done()

	for {
		if c.ctx.Err() != nil {
			return
		}

		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "acquire connection for LISTEN", "error", err)
			c.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(c.ctx, "LISTEN "+ChannelShopProfileChanged); err != nil {
			logger.Error(c.ctx, "LISTEN failed", "error", err)
			conn.Release()
			c.sleep(time.Second)
			continue
		}

		// Changes made while we were not listening are unknown.
		c.InvalidateAll()
		c.waitForNotifications(conn)
		conn.Release()
	}
}

func (c *ThresholdCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		n, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			logger.Warn(c.ctx, "notification wait failed, reconnecting", "error", err)
			return
		}
		c.handleNotification(n.Channel, n.Payload)
	}
}

func (c *ThresholdCache) handleNotification(channel, payload string) {
	if channel != ChannelShopProfileChanged {
		return
	}
	shopID, err := id.Parse(strings.TrimSpace(payload))
	if err != nil {
		c.InvalidateAll()
		return
	}
	c.Invalidate(shopID)
	logger.Debug(c.ctx, "threshold cache invalidated", "shop_id", shopID)
}

func (c *ThresholdCache) sleep(d time.Duration) {
	select {
	case <-c.ctx.Done():
	case <-time.After(d):
	}
}
