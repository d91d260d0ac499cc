// Package app wires storage, domain services and providers into the
// components the binaries run.
package app

import (
	"context"
	"fmt"
	"net/http"

	"stocky/internal/config"
	"stocky/internal/core/id"
	corenumerator "stocky/internal/core/numerator"
	"stocky/internal/core/types"
	"stocky/internal/domain"
	"stocky/internal/domain/alerts"
	"stocky/internal/domain/auth"
	"stocky/internal/domain/billing"
	"stocky/internal/domain/dashboard"
	"stocky/internal/domain/devices"
	"stocky/internal/domain/digest"
	"stocky/internal/domain/medicine"
	"stocky/internal/domain/returns"
	"stocky/internal/domain/shop"
	"stocky/internal/infrastructure/cache"
	v1 "stocky/internal/infrastructure/http/v1"
	"stocky/internal/infrastructure/lock"
	"stocky/internal/infrastructure/numerator"
	"stocky/internal/infrastructure/push"
	"stocky/internal/infrastructure/storage/postgres"
	"stocky/internal/infrastructure/storage/postgres/auth_repo"
	"stocky/internal/infrastructure/storage/postgres/catalog_repo"
	"stocky/internal/infrastructure/storage/postgres/document_repo"
	"stocky/pkg/logger"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// App holds the wired components. Close releases the pool and Redis.
type App struct {
	Config config.Config
	Log    *logger.Logger

	Pool        *postgres.Pool
	TxManager   *postgres.TxManager
	Idempotency *postgres.IdempotencyStore
	Locker      *lock.Locker
	Thresholds  *cache.ThresholdCache

	Auth      *auth.Service
	Shops     *shop.Service
	Medicines *medicine.Service
	Billing   *billing.Service
	Returns   *returns.Service
	Devices   *devices.Service
	Scanner   *alerts.Scanner
	Dashboard *dashboard.Service
	Digest    *digest.Dispatcher
}

// New connects to PostgreSQL and Redis and builds every service.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.DBMaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.DBMaxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	locker, err := lock.Connect(ctx, cfg.RedisAddress)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		Pool:      pool,
		TxManager: postgres.NewTxManager(pool, cfg.DBStatementTimeout),
		Locker:    locker,
	}
	if err := a.build(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build() error {
	cfg, txm := a.Config, a.TxManager
	clock := types.SystemClock{}
	defaults := shop.Defaults{
		LowStockThreshold:   cfg.DefaultLowStockThreshold,
		ExpiryThresholdDays: cfg.DefaultExpiryThresholdDays,
	}

	userRepo := auth_repo.NewUserRepo(txm)
	tokenRepo := auth_repo.NewPushTokenRepo(txm)
	profileRepo := catalog_repo.NewShopProfileRepo(txm)
	medicineRepo := catalog_repo.NewMedicineRepo(txm)
	billRepo := document_repo.NewBillRepo(txm)
	returnRepo := document_repo.NewReturnRepo(txm)

	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	if cfg.JWTTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.JWTTTL
	}
	a.Auth = auth.NewService(userRepo, profileRepo, txm, auth.NewJWTService(jwtCfg), defaults, auth.DefaultServiceConfig())

	a.Shops = shop.NewService(profileRepo, defaults)
	a.Medicines = medicine.NewService(medicineRepo, txm)
	a.Devices = devices.NewService(tokenRepo)

	numbers := numerator.New(
		func(ctx context.Context) numerator.Querier { return txm.GetQuerier(ctx) },
		corenumerator.ParseStrategy(cfg.InvoiceStrategy),
	)
	a.Billing = billing.NewService(billing.ServiceConfig{
		Repo:        billRepo,
		Medicines:   medicineRepo,
		Profiles:    profileRepo,
		Numerator:   numbers,
		TxManager:   txm,
		Clock:       clock,
		Location:    cfg.Location,
		PhoneRegion: cfg.PhoneRegion,
	})
	a.Returns = returns.NewService(returnRepo, medicineRepo, txm, clock, cfg.Location)

	var thresholds alerts.ThresholdSource = a.Shops
	if cfg.ThresholdCacheTTL > 0 {
		a.Thresholds = cache.NewThresholdCache(a.Shops, a.Pool.Unwrap(), cfg.ThresholdCacheTTL, clock)
		a.Thresholds.Start(context.Background())
		thresholds = a.Thresholds
	}
	a.Scanner = alerts.NewScanner(medicineRepo, thresholds, clock, cfg.Location)
	a.Dashboard = dashboard.NewService(a.Billing, a.Scanner, thresholds)

	if cfg.IdempotencyEnabled {
		a.Idempotency = postgres.NewIdempotencyStore(txm, postgres.DefaultIdempotencyTTL)
	}

	audit, err := postgres.NewAuditService(txm)
	if err != nil {
		return err
	}
	registerAuditHooks(audit, a)

	var authorizer digest.Authorizer = push.Disabled{}
	if cfg.PushEnabled() {
		client, err := push.NewClient(push.Config{
			ServiceAccountJSON: cfg.Push.ServiceAccountJSON,
			Timeout:            cfg.Push.Timeout,
			Endpoint:           cfg.Push.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("push client: %w", err)
		}
		authorizer = client
	}
	a.Digest = digest.NewDispatcher(digest.Config{
		Medicines:   medicineRepo,
		Profiles:    profileRepo,
		Tokens:      tokenRepo,
		TxManager:   txm,
		Auth:        authorizer,
		Defaults:    defaults,
		Concurrency: cfg.Push.Concurrency,
		Clock:       clock,
		Location:    cfg.Location,
	})
	return nil
}

func registerAuditHooks(audit *postgres.AuditService, a *App) {
	medID := func(m *medicine.Medicine) id.ID { return m.ID }
	a.Medicines.Hooks().On(domain.AfterCreate, postgres.AuditHook(audit, "medicine", postgres.AuditActionCreate, medID))
	a.Medicines.Hooks().On(domain.AfterUpdate, postgres.AuditHook(audit, "medicine", postgres.AuditActionUpdate, medID))
	a.Medicines.Hooks().On(domain.AfterDelete, postgres.AuditHook(audit, "medicine", postgres.AuditActionDelete, medID))

	billID := func(b *billing.Bill) id.ID { return b.ID }
	a.Billing.Hooks().On(domain.AfterCreate, postgres.AuditHook(audit, "bill", postgres.AuditActionCreate, billID))
	a.Billing.Hooks().On(domain.AfterDelete, postgres.AuditHook(audit, "bill", postgres.AuditActionDelete, billID))

	retID := func(r *returns.Return) id.ID { return r.ID }
	a.Returns.Hooks().On(domain.AfterCreate, postgres.AuditHook(audit, "return", postgres.AuditActionCreate, retID))
}

// Handler builds the HTTP API.
func (a *App) Handler() http.Handler {
	rc := v1.RouterConfig{
		Logger:          a.Log,
		Pool:            a.Pool,
		Version:         Version,
		JWTValidator:    a.Auth.JWT(),
		AuthService:     a.Auth,
		ShopService:     a.Shops,
		MedicineService: a.Medicines,
		BillingService:  a.Billing,
		ReturnService:   a.Returns,
		DeviceService:   a.Devices,
		Dashboard:       a.Dashboard,
		Scanner:         a.Scanner,
		Digest:          a.Digest,
		DigestLockTTL:   a.Config.DigestLockTTL,
		JobSecret:       a.Config.JobSecret,
		Clock:           types.SystemClock{},
		Location:        a.Config.Location,
		Development:     a.Config.Development(),
	}
	if a.Locker != nil {
		rc.JobLocker = a.Locker
	}
	if a.Idempotency != nil {
		rc.IdempotencyStore = a.Idempotency
	}
	return v1.NewRouter(rc)
}

// Close releases connections.
func (a *App) Close() {
	if a.Thresholds != nil {
		a.Thresholds.Stop()
	}
	if err := a.Locker.Close(); err != nil {
		a.Log.Warnw("close redis", "error", err)
	}
	a.Pool.Close()
}
