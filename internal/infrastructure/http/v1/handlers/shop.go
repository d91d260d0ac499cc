package handlers

import (
	"github.com/gin-gonic/gin"

	"stocky/internal/domain/shop"
	"stocky/internal/infrastructure/http/v1/dto"
)

// ShopHandler serves the shop profile and alert settings.
type ShopHandler struct {
	*BaseHandler
	service *shop.Service
}

// NewShopHandler creates a new shop handler.
func NewShopHandler(base *BaseHandler, service *shop.Service) *ShopHandler {
	return &ShopHandler{BaseHandler: base, service: service}
}

// Get handles GET /shop/profile
func (h *ShopHandler) Get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProfile(p))
}

// Update handles PUT /shop/profile
func (h *ShopHandler) Update(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToProfile()
	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProfile(p))
}

// RegisterRoutes registers shop routes.
func (h *ShopHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.Get)
	r.PUT("/profile", h.Update)
}
