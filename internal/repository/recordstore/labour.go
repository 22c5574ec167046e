package recordstore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// ListLabourWages returns every wage record, newest date first.
func (s *Store) ListLabourWages(ctx context.Context) ([]models.LabourWage, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var rows []wageRow
	if err := db.Order("date DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list labour wages: %w", err)
	}

	out := make([]models.LabourWage, 0, len(rows))
	for _, row := range rows {
		w, err := row.toModel()
		if err != nil {
			s.logger.Warn("skip wage row with invalid date", zap.String("id", row.ID), zap.String("date", row.Date), zap.Error(err))
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// CreateLabourWage inserts a new wage record.
func (s *Store) CreateLabourWage(ctx context.Context, w models.LabourWage) error {
	if err := w.Validate(); err != nil {
		return err
	}

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	row := newWageRow(w)
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("insert labour wage %s: %w", w.ID, err)
	}
	return nil
}

// UpdateLabourWage replaces the editable fields of wage w.ID.
func (s *Store) UpdateLabourWage(ctx context.Context, w models.LabourWage) error {
	if err := w.ValidateUpdate(); err != nil {
		return err
	}

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	res := db.Model(&wageRow{}).Where("id = ?", w.ID).Updates(map[string]any{
		"worker_name":  w.WorkerName,
		"days":         w.Days,
		"rate_per_day": w.RatePerDay,
		"total_wage":   w.TotalWage,
	})
	if res.Error != nil {
		return fmt.Errorf("update labour wage %s: %w", w.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Kind: "labour wage", ID: w.ID}
	}
	return nil
}

// DeleteLabourWage removes wage id. Unknown ids succeed silently.
func (s *Store) DeleteLabourWage(ctx context.Context, id string) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if err := db.Where("id = ?", id).Delete(&wageRow{}).Error; err != nil {
		return fmt.Errorf("delete labour wage %s: %w", id, err)
	}
	return nil
}
