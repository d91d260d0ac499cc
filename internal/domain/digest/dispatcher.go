// Package digest sends the daily expiry push notification to every shop
// owner with expired or soon-to-expire stock.
package digest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/core/types"
	"stocky/internal/domain/devices"
	"stocky/internal/domain/medicine"
	"stocky/internal/domain/shop"
	"stocky/pkg/logger"
)

var tracer = otel.Tracer("stocky/digest")

const (
	// Title of every digest notification.
	Title = "Stocky: Expiry Alert"
	// TargetURL is the client route opened from the notification.
	TargetURL = "/returns"
	// DefaultConcurrency bounds parallel sends.
	DefaultConcurrency = 4
)

// ErrUnregistered is returned by a Sender when the provider no longer
// knows the device token.
var ErrUnregistered = errors.New("device token is not registered")

// Message is one push notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a message to one device token. Errors may implement
// StatusCode() int to report the provider's HTTP status.
type Sender interface {
	Send(ctx context.Context, deviceToken string, msg Message) error
}

// Authorizer obtains provider credentials for one run. Failures are
// AUTH_ASSERTION_ERROR.
type Authorizer interface {
	Authorize(ctx context.Context) (Sender, error)
}

// MedicineSource loads every batch of every shop.
type MedicineSource interface {
	ListAll(ctx context.Context) ([]*medicine.Medicine, error)
}

// ProfileSource loads every shop profile.
type ProfileSource interface {
	ListAll(ctx context.Context) ([]*shop.Profile, error)
}

// TokenStore looks up and prunes device tokens.
type TokenStore interface {
	ListByOwner(ctx context.Context, ownerID id.ID) ([]*devices.Token, error)
	Prune(ctx context.Context, token string) error
}

// Result is returned to the scheduler.
type Result struct {
	Success  bool   `json:"success"`
	Notified int    `json:"notified"`
	Error    string `json:"error,omitempty"`
	Shops    int    `json:"shops"`
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
}

// Config holds the dispatcher dependencies and settings.
type Config struct {
	// TxManager reads stock and profiles from one read-only snapshot.
	// Nil reads them without a transaction.
	TxManager   tx.ReadOnlyManager
	Medicines   MedicineSource
	Profiles    ProfileSource
	Tokens      TokenStore
	Auth        Authorizer
	Defaults    shop.Defaults
	Concurrency int
	Clock       types.Clock
	Location    *time.Location
}

// Dispatcher runs one digest pass per Run call. It keeps no state between runs.
type Dispatcher struct {
	cfg Config
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TxManager == nil {
		cfg.TxManager = tx.Passthrough{}
	}
	return &Dispatcher{cfg: cfg}
}

// Bucket counts one owner's matching batches.
type Bucket struct {
	OwnerID      id.ID
	Expired      int
	ExpiringSoon int
}

// Body renders the notification text, omitting zero counts.
func (b Bucket) Body() string {
	var parts []string
	if b.Expired > 0 {
		parts = append(parts, fmt.Sprintf("%d expired.", b.Expired))
	}
	if b.ExpiringSoon > 0 {
		parts = append(parts, fmt.Sprintf("%d expiring soon.", b.ExpiringSoon))
	}
	return strings.Join(parts, " ")
}

// Group buckets stock-bearing expired and expiring batches per owner, using
// each owner's expiry window or the default one. Owners without matches
// are left out; the result is ordered by owner id.
func Group(batches []*medicine.Medicine, profiles []*shop.Profile, defaults shop.Defaults, today time.Time) []Bucket {
	windows := make(map[id.ID]int, len(profiles))
	for _, p := range profiles {
		windows[p.ID] = p.ExpiryThresholdDays
	}

	byOwner := make(map[id.ID]*Bucket)
	for _, m := range batches {
		if !m.HasStock() {
			continue
		}
		window, ok := windows[m.ShopID]
		if !ok {
			window = defaults.ExpiryThresholdDays
		}

		expired := m.IsExpired(today)
		soon := !expired && m.IsExpiringSoon(today, window)
		if !expired && !soon {
			continue
		}

		b, ok := byOwner[m.ShopID]
		if !ok {
			b = &Bucket{OwnerID: m.ShopID}
			byOwner[m.ShopID] = b
		}
		if expired {
			b.Expired++
		} else {
			b.ExpiringSoon++
		}
	}

	out := make([]Bucket, 0, len(byOwner))
	for _, b := range byOwner {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID.String() < out[j].OwnerID.String() })
	return out
}

// Run performs one digest pass. Loading stock or authorizing with the
// provider is fatal; a failed send is logged and counted.
func (d *Dispatcher) Run(ctx context.Context) (Result, error) {
	ctx, span := tracer.Start(ctx, "digest.run")
	defer span.End()

	log := logger.FromContext(ctx).WithComponent("digest")
	started := time.Now()

	batches, profiles, err := d.load(ctx)
	if err != nil {
		return d.fail(ctx, err)
	}

	today := types.Today(d.cfg.Clock.Now(), d.cfg.Location)
	buckets := Group(batches, profiles, d.cfg.Defaults, today)
	span.SetAttributes(
		attribute.Int("digest.batches", len(batches)),
		attribute.Int("digest.shops", len(buckets)),
	)

	res := Result{Success: true, Shops: len(buckets)}
	if len(buckets) == 0 {
		log.Infow("digest finished, nothing to report", "batches", len(batches))
		return res, nil
	}

	sender, err := d.cfg.Auth.Authorize(ctx)
	if err != nil {
		if !apperror.IsAppError(err) {
			err = apperror.NewAuthAssertion("", err)
		}
		return d.fail(ctx, err)
	}

	var (
		mu       sync.Mutex
		notified = make(map[id.ID]bool)
		stale    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)

	for _, b := range buckets {
		tokens, err := d.cfg.Tokens.ListByOwner(ctx, b.OwnerID)
		if err != nil {
			logger.Warn(ctx, "digest skipped owner, token lookup failed", "owner_id", b.OwnerID, "error", err)
			continue
		}
		if len(tokens) == 0 {
			continue
		}

		msg := Message{Title: Title, Body: b.Body(), Data: map[string]string{"url": TargetURL}}
		for _, t := range tokens {
			owner, token := b.OwnerID, t.Token
			g.Go(func() error {
				err := sender.Send(gctx, token, msg)

				mu.Lock()
				if err != nil {
					res.Failed++
					if errors.Is(err, ErrUnregistered) {
						stale = append(stale, token)
					}
				} else {
					res.Sent++
					notified[owner] = true
				}
				mu.Unlock()

				if err != nil {
					d.sendFailed(ctx, owner, err)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	for _, token := range stale {
		if err := d.cfg.Tokens.Prune(ctx, token); err != nil {
			logger.Warn(ctx, "prune of unregistered token failed", "error", err)
		}
	}

	res.Notified = len(notified)
	log.Infow("digest finished",
		"shops", res.Shops,
		"notified", res.Notified,
		"sent", res.Sent,
		"failed", res.Failed,
		"duration", time.Since(started).String())
	return res, nil
}

// load runs both bulk reads in one read-only transaction.
func (d *Dispatcher) load(ctx context.Context) ([]*medicine.Medicine, []*shop.Profile, error) {
	var (
		batches  []*medicine.Medicine
		profiles []*shop.Profile
	)
	err := d.cfg.TxManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if batches, err = d.cfg.Medicines.ListAll(ctx); err != nil {
			return apperror.Persistence("load medicines", err)
		}
		if profiles, err = d.cfg.Profiles.ListAll(ctx); err != nil {
			return apperror.Persistence("load shop profiles", err)
		}
		return nil
	})
	if err != nil && !apperror.IsAppError(err) {
		err = apperror.Persistence("open read snapshot", err)
	}
	return batches, profiles, err
}

// sendFailed logs a DELIVERY_ERROR with the token's owner.
func (d *Dispatcher) sendFailed(ctx context.Context, owner id.ID, err error) {
	status := 0
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}
	derr := apperror.NewDelivery(owner.String(), status, err)
	logger.Warn(ctx, "digest push failed",
		"owner_id", owner.String(),
		"provider_status", status,
		"unregistered", errors.Is(err, ErrUnregistered),
		"error", derr)
}

func (d *Dispatcher) fail(ctx context.Context, err error) (Result, error) {
	logger.Error(ctx, "digest aborted", "error", err)
	msg := err.Error()
	if appErr, ok := apperror.AsAppError(err); ok {
		msg = appErr.Message
	}
	return Result{Success: false, Error: msg}, err
}
