// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"stocky/internal/core/types"
	"stocky/internal/domain/alerts"
	"stocky/internal/domain/auth"
	"stocky/internal/domain/billing"
	"stocky/internal/domain/dashboard"
	"stocky/internal/domain/devices"
	"stocky/internal/domain/medicine"
	"stocky/internal/domain/returns"
	"stocky/internal/domain/shop"
	"stocky/internal/infrastructure/http/v1/handlers"
	"stocky/internal/infrastructure/http/v1/middleware"
	"stocky/pkg/logger"
)

// RouterConfig holds the services behind the API.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Pool backs the readiness probe; nil skips the database check.
	Pool handlers.Pinger

	// Version is reported by /health/info.
	Version string

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	AuthService     *auth.Service
	ShopService     *shop.Service
	MedicineService *medicine.Service
	BillingService  *billing.Service
	ReturnService   *returns.Service
	DeviceService   *devices.Service
	Dashboard       *dashboard.Service
	Scanner         *alerts.Scanner

	// Digest runs the expiry digest for /jobs; nil leaves the route out.
	Digest        handlers.DigestRunner
	JobLocker     handlers.JobLocker
	DigestLockTTL time.Duration

	// JobSecret guards /jobs. Empty disables them.
	JobSecret string

	// IdempotencyStore enables X-Idempotency-Key on protected routes.
	IdempotencyStore middleware.IdempotencyStore

	Clock    types.Clock
	Location *time.Location

	// Development switches Gin to debug mode.
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	handlers.NewHealthHandler(cfg.Pool, cfg.Version).RegisterRoutes(router.Group("/health"))

	v1 := router.Group("/api/v1")

	if cfg.Digest != nil {
		jobs := v1.Group("/jobs")
		jobs.Use(middleware.JobSecret(cfg.JobSecret))
		handlers.NewJobHandler(base, cfg.Digest, cfg.JobLocker, cfg.DigestLockTTL).RegisterRoutes(jobs)
	}

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.IdempotencyStore != nil {
		protected.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	if cfg.AuthService != nil {
		handlers.NewAuthHandler(base, cfg.AuthService).
			RegisterRoutes(v1.Group("/auth"), protected.Group("/auth"))
	}
	if cfg.ShopService != nil {
		handlers.NewShopHandler(base, cfg.ShopService).RegisterRoutes(protected.Group("/shop"))
	}
	if cfg.MedicineService != nil {
		handlers.NewMedicineHandler(base, cfg.MedicineService).RegisterRoutes(protected.Group("/medicines"))
	}
	if cfg.BillingService != nil {
		handlers.NewBillHandler(base, cfg.BillingService, cfg.ShopService, cfg.Clock, cfg.Location).
			RegisterRoutes(protected.Group("/bills"))
	}
	if cfg.ReturnService != nil {
		handlers.NewReturnHandler(base, cfg.ReturnService, cfg.Scanner).RegisterRoutes(protected.Group("/returns"))
	}
	if cfg.Scanner != nil {
		handlers.NewAlertHandler(base, cfg.Scanner, cfg.Dashboard).RegisterRoutes(protected)
	}
	if cfg.DeviceService != nil {
		handlers.NewDeviceHandler(base, cfg.DeviceService).RegisterRoutes(protected.Group("/devices"))
	}

	return router
}
