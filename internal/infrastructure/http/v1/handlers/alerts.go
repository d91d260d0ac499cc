package handlers

import (
	"github.com/gin-gonic/gin"

	"stocky/internal/domain"
	"stocky/internal/domain/alerts"
	"stocky/internal/domain/dashboard"
)

// AlertHandler serves the notification list and the dashboard.
type AlertHandler struct {
	*BaseHandler
	scanner   *alerts.Scanner
	dashboard *dashboard.Service
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(base *BaseHandler, scanner *alerts.Scanner, dash *dashboard.Service) *AlertHandler {
	return &AlertHandler{BaseHandler: base, scanner: scanner, dashboard: dash}
}

// List handles GET /alerts. Category failures come back as warnings with 200.
func (h *AlertHandler) List(c *gin.Context) {
	shopID, err := domain.RequireShop(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.scanner.Scan(c.Request.Context(), shopID))
}

// Counts handles GET /alerts/counts
func (h *AlertHandler) Counts(c *gin.Context) {
	shopID, err := domain.RequireShop(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.scanner.Counts(c.Request.Context(), shopID))
}

// Dashboard handles GET /dashboard
func (h *AlertHandler) Dashboard(c *gin.Context) {
	sum, err := h.dashboard.Get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sum)
}

// RegisterRoutes registers alert and dashboard routes.
func (h *AlertHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/alerts", h.List)
	r.GET("/alerts/counts", h.Counts)
	r.GET("/dashboard", h.Dashboard)
}
