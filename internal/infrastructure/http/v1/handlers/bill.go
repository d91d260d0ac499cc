package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"stocky/internal/core/types"
	"stocky/internal/domain/billing"
	"stocky/internal/domain/shop"
	"stocky/internal/infrastructure/export"
	"stocky/internal/infrastructure/http/v1/dto"
	"stocky/internal/infrastructure/printer"
)

const contentTypePDF = "application/pdf"

// BillHandler serves checkout, history and bill documents.
type BillHandler struct {
	*BaseHandler
	service  *billing.Service
	profiles *shop.Service
	clock    types.Clock
	loc      *time.Location
}

// NewBillHandler creates a new bill handler. Dates in the export range and
// on printed invoices are read in loc.
func NewBillHandler(base *BaseHandler, service *billing.Service, profiles *shop.Service, clock types.Clock, loc *time.Location) *BillHandler {
	if clock == nil {
		clock = types.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BillHandler{BaseHandler: base, service: service, profiles: profiles, clock: clock, loc: loc}
}

// List handles GET /bills
func (h *BillHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	res, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, dto.FromBill))
}

// Create handles POST /bills
func (h *BillHandler) Create(c *gin.Context) {
	var req dto.CreateBillRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromBill(b))
}

// NextNumber handles GET /bills/next-number. The preview is not reserved.
func (h *BillHandler) NextNumber(c *gin.Context) {
	n, err := h.service.NextNumber(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NextNumberResponse{InvoiceNumber: n})
}

// Get handles GET /bills/:id
func (h *BillHandler) Get(c *gin.Context) {
	billID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), billID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBill(b))
}

// Delete handles DELETE /bills/:id
func (h *BillHandler) Delete(c *gin.Context) {
	billID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), billID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// PDF handles GET /bills/:id/pdf
func (h *BillHandler) PDF(c *gin.Context) {
	ctx := c.Request.Context()

	billID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Get(ctx, billID)
	if err != nil {
		h.Error(c, err)
		return
	}
	profile, err := h.profiles.Get(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := printer.Invoice(b, profile, h.loc)
	if err != nil {
		h.Error(c, err)
		return
	}
	attachment(c, b.InvoiceNumber+".pdf")
	c.Data(200, contentTypePDF, doc)
}

// Export handles GET /bills/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *BillHandler) Export(c *gin.Context) {
	var q dto.ExportQuery
	if !h.BindQuery(c, &q) {
		return
	}

	today := types.Today(h.clock.Now(), h.loc)
	from, to := today, today
	var err error
	if q.From != "" {
		if from, err = dto.ParseDate("from", q.From); err != nil {
			h.Error(c, err)
			return
		}
	}
	if q.To != "" {
		if to, err = dto.ParseDate("to", q.To); err != nil {
			h.Error(c, err)
			return
		}
	}

	bills, err := h.service.Range(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	book, err := export.Sales(bills, h.loc)
	if err != nil {
		h.Error(c, err)
		return
	}
	attachment(c, fmt.Sprintf("sales-%s-to-%s.xlsx", types.FormatDate(from), types.FormatDate(to)))
	c.Data(200, export.ContentType, book)
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

// RegisterRoutes registers bill routes.
func (h *BillHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.POST("", h.Create)
	r.GET("/next-number", h.NextNumber)
	r.GET("/export", h.Export)
	r.GET("/:id", h.Get)
	r.DELETE("/:id", h.Delete)
	r.GET("/:id/pdf", h.PDF)
}
