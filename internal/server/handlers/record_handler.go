package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// RecordStore is the persistence surface exposed over REST.
type RecordStore interface {
	ListPurchaseInputs(ctx context.Context) ([]models.PurchaseInput, error)
	CreatePurchaseInput(ctx context.Context, p models.PurchaseInput) error
	UpdatePurchaseInput(ctx context.Context, p models.PurchaseInput) error
	DeletePurchaseInput(ctx context.Context, id string) error

	ListLabourWages(ctx context.Context) ([]models.LabourWage, error)
	CreateLabourWage(ctx context.Context, w models.LabourWage) error
	UpdateLabourWage(ctx context.Context, w models.LabourWage) error
	DeleteLabourWage(ctx context.Context, id string) error

	ListClients(ctx context.Context) ([]models.Client, error)
	CreateClient(ctx context.Context, c models.Client) error
	DeleteClient(ctx context.Context, id string) error
}

// RecordHandler serves the record store REST API.
type RecordHandler struct {
	store  RecordStore
	logger *zap.Logger
}

// NewRecordHandler constructs the HTTP handler adapter.
func NewRecordHandler(store RecordStore, logger *zap.Logger) *RecordHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordHandler{store: store, logger: logger}
}

// Health reports that the process is serving requests.
func (h *RecordHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *RecordHandler) success(c *gin.Context, status int) {
	c.JSON(status, gin.H{"success": true})
}

func (h *RecordHandler) badRequest(c *gin.Context, err error) {
	h.logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

// fail maps domain errors onto HTTP statuses.
func (h *RecordHandler) fail(c *gin.Context, op string, err error) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing fields", "fields": validationErr.Violations})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		h.logger.Error("record store failure", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "DB error"})
	}
}

func parseDateField(v models.Violations, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		v["date"] = "required"
		return time.Time{}
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		v["date"] = "invalid"
	}
	return t
}
