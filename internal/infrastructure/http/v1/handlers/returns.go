package handlers

import (
	"github.com/gin-gonic/gin"

	"stocky/internal/domain"
	"stocky/internal/domain/alerts"
	"stocky/internal/domain/returns"
	"stocky/internal/infrastructure/http/v1/dto"
)

// ReturnHandler records stock sent back to suppliers.
type ReturnHandler struct {
	*BaseHandler
	service *returns.Service
	scanner *alerts.Scanner
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, service *returns.Service, scanner *alerts.Scanner) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, service: service, scanner: scanner}
}

// List handles GET /returns
func (h *ReturnHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, dto.FromReturn))
}

// Create handles POST /returns
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.RecordReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	r, err := h.service.Record(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromReturn(r))
}

// Candidates handles GET /returns/candidates: stocked batches that are
// expired or inside the expiry window.
func (h *ReturnHandler) Candidates(c *gin.Context) {
	ctx := c.Request.Context()

	shopID, err := domain.RequireShop(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.scanner.ReturnCandidates(ctx, shopID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.FromMedicines(items)})
}

// RegisterRoutes registers return routes.
func (h *ReturnHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/candidates", h.Candidates)
}
