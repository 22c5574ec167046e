package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// ListClients handles GET /api/clients.
func (h *RecordHandler) ListClients(c *gin.Context) {
	items, err := h.store.ListClients(c.Request.Context())
	if err != nil {
		h.fail(c, "list clients", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateClient handles POST /api/clients.
func (h *RecordHandler) CreateClient(c *gin.Context) {
	var req models.Client
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.store.CreateClient(c.Request.Context(), req); err != nil {
		h.fail(c, "create client", err)
		return
	}
	h.success(c, http.StatusCreated)
}

// DeleteClient handles DELETE /api/clients/:id.
func (h *RecordHandler) DeleteClient(c *gin.Context) {
	if err := h.store.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete client", err)
		return
	}
	h.success(c, http.StatusOK)
}
