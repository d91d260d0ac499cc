package handlers

import (
	"github.com/gin-gonic/gin"

	"stocky/internal/domain/devices"
	"stocky/internal/infrastructure/http/v1/dto"
)

// DeviceHandler registers push tokens for the digest.
type DeviceHandler struct {
	*BaseHandler
	service *devices.Service
}

// NewDeviceHandler creates a new device handler.
func NewDeviceHandler(base *BaseHandler, service *devices.Service) *DeviceHandler {
	return &DeviceHandler{BaseHandler: base, service: service}
}

// Register handles POST /devices
func (h *DeviceHandler) Register(c *gin.Context) {
	var req dto.DeviceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Register(c.Request.Context(), req.Token, req.Platform)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDevice(t))
}

// Unregister handles DELETE /devices. The token comes in the body or as ?token=.
func (h *DeviceHandler) Unregister(c *gin.Context) {
	var req dto.DeviceRequest
	if token := c.Query("token"); token != "" {
		req.Token = token
	} else if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Unregister(c.Request.Context(), req.Token); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers device routes.
func (h *DeviceHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Register)
	r.DELETE("", h.Unregister)
}
