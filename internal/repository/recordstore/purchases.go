package recordstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// ListPurchaseInputs returns every purchase, newest date first. Rows whose
// stored date cannot be parsed are skipped.
func (s *Store) ListPurchaseInputs(ctx context.Context) ([]models.PurchaseInput, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var rows []purchaseRow
	if err := db.Order("date DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list purchase inputs: %w", err)
	}

	out := make([]models.PurchaseInput, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			s.logger.Warn("skip purchase row with invalid date", zap.String("id", row.ID), zap.String("date", row.Date), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// CreatePurchaseInput inserts a new purchase.
func (s *Store) CreatePurchaseInput(ctx context.Context, p models.PurchaseInput) error {
	if p.PaymentStatus == "" {
		p.PaymentStatus = models.PaymentPending
	}
	if err := p.Validate(); err != nil {
		return err
	}

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	row := newPurchaseRow(p)
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert purchase input %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePurchaseInput replaces the editable fields of purchase p.ID. The date
// is immutable. Unknown ids yield a *models.NotFoundError.
func (s *Store) UpdatePurchaseInput(ctx context.Context, p models.PurchaseInput) error {
	if p.PaymentStatus == "" {
		p.PaymentStatus = models.PaymentPending
	}
	if err := p.ValidateUpdate(); err != nil {
		return err
	}

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	res := db.Model(&purchaseRow{}).Where("id = ?", p.ID).Updates(map[string]any{
		"count":          p.Count,
		"price_per_unit": p.PricePerUnit,
		"total_price":    p.TotalPrice,
		"client":         p.ClientName,
		"payment_status": string(p.PaymentStatus),
	})
	if res.Error != nil {
		return fmt.Errorf("update purchase input %s: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Kind: "purchase input", ID: p.ID}
	}
	return nil
}

// DeletePurchaseInput removes purchase id. Unknown ids succeed silently.
func (s *Store) DeletePurchaseInput(ctx context.Context, id string) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("id = ?", id).Delete(&purchaseRow{}).Error; err != nil {
		return fmt.Errorf("delete purchase input %s: %w", id, err)
	}
	return nil
}
