package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/husk/internal/domain/models"
)

type wageRequest struct {
	ID         string           `json:"id"`
	Date       string           `json:"date"`
	WorkerName string           `json:"workerName"`
	Days       *decimal.Decimal `json:"days"`
	RatePerDay *decimal.Decimal `json:"ratePerDay"`
	TotalWage  *decimal.Decimal `json:"totalWage"`
}

func (r wageRequest) toModel(id string, withDate bool) (models.LabourWage, error) {
	v := make(models.Violations)
	w := models.LabourWage{ID: id, WorkerName: r.WorkerName}

	if withDate {
		v.Required("id", id)
		w.Date = parseDateField(v, r.Date)
	}
	v.Required("workerName", r.WorkerName)
	if r.Days == nil {
		v["days"] = "required"
	} else {
		w.Days = *r.Days
	}
	if r.RatePerDay == nil {
		v["ratePerDay"] = "required"
	} else {
		w.RatePerDay = *r.RatePerDay
	}
	if r.TotalWage == nil {
		v["totalWage"] = "required"
	} else {
		w.TotalWage = *r.TotalWage
	}

	return w, v.Err()
}

// ListLabourWages handles GET /api/labour.
func (h *RecordHandler) ListLabourWages(c *gin.Context) {
	items, err := h.store.ListLabourWages(c.Request.Context())
	if err != nil {
		h.fail(c, "list labour wages", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateLabourWage handles POST /api/labour.
func (h *RecordHandler) CreateLabourWage(c *gin.Context) {
	var req wageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	w, err := req.toModel(req.ID, true)
	if err == nil {
		err = h.store.CreateLabourWage(c.Request.Context(), w)
	}
	if err != nil {
		h.fail(c, "create labour wage", err)
		return
	}
	h.success(c, http.StatusCreated)
}

// UpdateLabourWage handles PUT /api/labour/:id.
func (h *RecordHandler) UpdateLabourWage(c *gin.Context) {
	var req wageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	w, err := req.toModel(c.Param("id"), false)
	if err == nil {
		err = h.store.UpdateLabourWage(c.Request.Context(), w)
	}
	if err != nil {
		h.fail(c, "update labour wage", err)
		return
	}
	h.success(c, http.StatusOK)
}

// DeleteLabourWage handles DELETE /api/labour/:id.
func (h *RecordHandler) DeleteLabourWage(c *gin.Context) {
	if err := h.store.DeleteLabourWage(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete labour wage", err)
		return
	}
	h.success(c, http.StatusOK)
}
