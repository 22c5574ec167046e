package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/husk/internal/config"
	"github.com/mamadbah2/husk/internal/domain/models"
)

// APIClient talks to the record store REST API. Every failure, including
// non-2xx statuses and undecodable payloads, is a *models.TransportError.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a client for cfg.RecordStoreURL.
func NewClient(cfg config.LedgerConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.RecordStoreURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.HTTPTimeout)

	return &APIClient{httpClient: restyClient}
}

// apiError mirrors the {"error": "..."} body returned on failure.
type apiError struct {
	Error string `json:"error"`
}

func (c *APIClient) do(ctx context.Context, op, method, path string, body, result any) error {
	apiErr := new(apiError)
	req := c.httpClient.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &models.TransportError{Op: op, Err: err}
	}
	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return &models.TransportError{Op: op, StatusCode: code, Err: fmt.Errorf("record store: %s", apiErr.Error)}
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return &models.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

type purchaseBody struct {
	ID            string          `json:"id,omitempty"`
	Date          string          `json:"date,omitempty"`
	Count         int             `json:"count"`
	PricePerUnit  decimal.Decimal `json:"pricePerUnit"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	ClientName    string          `json:"clientName"`
	PaymentStatus string          `json:"paymentStatus"`
}

func newPurchaseBody(p models.PurchaseInput, withIdentity bool) purchaseBody {
	b := purchaseBody{
		Count:         p.Count,
		PricePerUnit:  p.PricePerUnit,
		TotalPrice:    p.TotalPrice,
		ClientName:    p.ClientName,
		PaymentStatus: string(p.PaymentStatus),
	}
	if withIdentity {
		b.ID = p.ID
		b.Date = models.FormatDate(p.Date)
	}
	return b
}

type wageBody struct {
	ID         string          `json:"id,omitempty"`
	Date       string          `json:"date,omitempty"`
	WorkerName string          `json:"workerName"`
	Days       decimal.Decimal `json:"days"`
	RatePerDay decimal.Decimal `json:"ratePerDay"`
	TotalWage  decimal.Decimal `json:"totalWage"`
}

func newWageBody(w models.LabourWage, withIdentity bool) wageBody {
	b := wageBody{
		WorkerName: w.WorkerName,
		Days:       w.Days,
		RatePerDay: w.RatePerDay,
		TotalWage:  w.TotalWage,
	}
	if withIdentity {
		b.ID = w.ID
		b.Date = models.FormatDate(w.Date)
	}
	return b
}

// ListPurchaseInputs fetches GET /api/coconut.
func (c *APIClient) ListPurchaseInputs(ctx context.Context) ([]models.PurchaseInput, error) {
	var out []models.PurchaseInput
	if err := c.do(ctx, "list purchase inputs", http.MethodGet, "/api/coconut", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePurchaseInput posts p to /api/coconut.
func (c *APIClient) CreatePurchaseInput(ctx context.Context, p models.PurchaseInput) error {
	return c.do(ctx, "create purchase input", http.MethodPost, "/api/coconut", newPurchaseBody(p, true), nil)
}

// UpdatePurchaseInput puts the editable fields of p to /api/coconut/:id.
func (c *APIClient) UpdatePurchaseInput(ctx context.Context, p models.PurchaseInput) error {
	return c.do(ctx, "update purchase input", http.MethodPut, "/api/coconut/"+p.ID, newPurchaseBody(p, false), nil)
}

// DeletePurchaseInput deletes /api/coconut/:id.
func (c *APIClient) DeletePurchaseInput(ctx context.Context, id string) error {
	return c.do(ctx, "delete purchase input", http.MethodDelete, "/api/coconut/"+id, nil, nil)
}

// ListLabourWages fetches GET /api/labour.
func (c *APIClient) ListLabourWages(ctx context.Context) ([]models.LabourWage, error) {
	var out []models.LabourWage
	if err := c.do(ctx, "list labour wages", http.MethodGet, "/api/labour", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLabourWage posts w to /api/labour.
func (c *APIClient) CreateLabourWage(ctx context.Context, w models.LabourWage) error {
	return c.do(ctx, "create labour wage", http.MethodPost, "/api/labour", newWageBody(w, true), nil)
}

// UpdateLabourWage puts the editable fields of w to /api/labour/:id.
func (c *APIClient) UpdateLabourWage(ctx context.Context, w models.LabourWage) error {
	return c.do(ctx, "update labour wage", http.MethodPut, "/api/labour/"+w.ID, newWageBody(w, false), nil)
}

// DeleteLabourWage deletes /api/labour/:id.
func (c *APIClient) DeleteLabourWage(ctx context.Context, id string) error {
	return c.do(ctx, "delete labour wage", http.MethodDelete, "/api/labour/"+id, nil, nil)
}

// ListClients fetches GET /api/clients.
func (c *APIClient) ListClients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	if err := c.do(ctx, "list clients", http.MethodGet, "/api/clients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClient posts cl to /api/clients.
func (c *APIClient) CreateClient(ctx context.Context, cl models.Client) error {
	return c.do(ctx, "create client", http.MethodPost, "/api/clients", cl, nil)
}

// DeleteClient deletes /api/clients/:id.
func (c *APIClient) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, "delete client", http.MethodDelete, "/api/clients/"+id, nil, nil)
}

// Ping checks GET /api/health.
func (c *APIClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.do(ctx, "health", http.MethodGet, "/api/health", nil, nil)
}
