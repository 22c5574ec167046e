package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// purchaseRequest uses pointers so absent fields can be told apart from zeros.
type purchaseRequest struct {
	ID            string           `json:"id"`
	Date          string           `json:"date"`
	Count         *int             `json:"count"`
	PricePerUnit  *decimal.Decimal `json:"pricePerUnit"`
	TotalPrice    *decimal.Decimal `json:"totalPrice"`
	ClientName    string           `json:"clientName"`
	PaymentStatus string           `json:"paymentStatus"`
}

func (r purchaseRequest) toModel(id string, withDate bool) (models.PurchaseInput, error) {
	v := make(models.Violations)
	p := models.PurchaseInput{
		ID:            id,
		ClientName:    r.ClientName,
		PaymentStatus: models.PaymentStatus(r.PaymentStatus),
	}

	if withDate {
		v.Required("id", id)
		p.Date = parseDateField(v, r.Date)
	}
	if r.Count == nil {
		v["count"] = "required"
	} else {
		p.Count = *r.Count
	}
	if r.PricePerUnit == nil {
		v["pricePerUnit"] = "required"
	} else {
		p.PricePerUnit = *r.PricePerUnit
	}
	if r.TotalPrice == nil {
		v["totalPrice"] = "required"
	} else {
		p.TotalPrice = *r.TotalPrice
	}
	v.Required("clientName", r.ClientName)

	return p, v.Err()
}

// ListPurchaseInputs handles GET /api/coconut.
func (h *RecordHandler) ListPurchaseInputs(c *gin.Context) {
	items, err := h.store.ListPurchaseInputs(c.Request.Context())
	if err != nil {
		h.fail(c, "list purchase inputs", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreatePurchaseInput handles POST /api/coconut.
func (h *RecordHandler) CreatePurchaseInput(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := req.toModel(req.ID, true)
	if err == nil {
		err = h.store.CreatePurchaseInput(c.Request.Context(), p)
	}
	if err != nil {
		h.fail(c, "create purchase input", err)
		return
	}
	h.success(c, http.StatusCreated)
}

// UpdatePurchaseInput handles PUT /api/coconut/:id.
func (h *RecordHandler) UpdatePurchaseInput(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	p, err := req.toModel(c.Param("id"), false)
	if err == nil {
		err = h.store.UpdatePurchaseInput(c.Request.Context(), p)
	}
	if err != nil {
		h.fail(c, "update purchase input", err)
		return
	}
	h.success(c, http.StatusOK)
}

// DeletePurchaseInput handles DELETE /api/coconut/:id.
func (h *RecordHandler) DeletePurchaseInput(c *gin.Context) {
	if err := h.store.DeletePurchaseInput(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete purchase input", err)
		return
	}
	h.success(c, http.StatusOK)
}
