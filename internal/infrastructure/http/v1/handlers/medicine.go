package handlers

import (
	"github.com/gin-gonic/gin"

	"stocky/internal/domain/medicine"
	"stocky/internal/infrastructure/http/v1/dto"
)

// MedicineHandler serves the batch inventory.
type MedicineHandler struct {
	*BaseHandler
	service *medicine.Service
}

// NewMedicineHandler creates a new medicine handler.
func NewMedicineHandler(base *BaseHandler, service *medicine.Service) *MedicineHandler {
	return &MedicineHandler{BaseHandler: base, service: service}
}

// List handles GET /medicines
func (h *MedicineHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, dto.FromMedicine))
}

// Search handles GET /medicines/search?q= for the billing screen.
func (h *MedicineHandler) Search(c *gin.Context) {
	items, err := h.service.SearchForSale(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.FromMedicines(items)})
}

// Get handles GET /medicines/:id
func (h *MedicineHandler) Get(c *gin.Context) {
	medID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), medID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMedicine(m))
}

// Create handles POST /medicines
func (h *MedicineHandler) Create(c *gin.Context) {
	var req dto.MedicineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := req.ToModel()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromMedicine(m))
}

// Update handles PUT /medicines/:id
func (h *MedicineHandler) Update(c *gin.Context) {
	medID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.MedicineRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := req.ToModel()
	if err != nil {
		h.Error(c, err)
		return
	}
	m.ID = medID
	if err := h.service.Update(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMedicine(m))
}

// Delete handles DELETE /medicines/:id
func (h *MedicineHandler) Delete(c *gin.Context) {
	medID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), medID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers medicine routes.
func (h *MedicineHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/search", h.Search)
	r.POST("", h.Create)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}
