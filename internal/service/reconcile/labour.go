package reconcile

import (
	"context"

	"github.com/mamadbah2/husk/internal/domain/models"
)

func wageID(w models.LabourWage) string { return w.ID }

// Wages returns the session's wage records, newest first.
func (l *Ledger) Wages() []models.LabourWage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return clone(l.wages)
}

// CreateWage records wages dated now.
func (l *Ledger) CreateWage(ctx context.Context, f models.WageFields) (models.LabourWage, Result, error) {
	w, err := models.NewLabourWage(l.now(), f)
	if err != nil {
		return models.LabourWage{}, Result{}, err
	}

	l.mu.Lock()
	l.wages = append([]models.LabourWage{w}, l.wages...)
	l.mu.Unlock()
	l.notify(KindWages)

	res := l.persist(ctx, KindWages, OpCreate, w.ID, func(ctx context.Context, r RemoteStore) error {
		return r.CreateLabourWage(ctx, w)
	})
	return w, res, nil
}

// UpdateWage replaces the editable fields of wage id.
func (l *Ledger) UpdateWage(ctx context.Context, id string, f models.WageFields) (models.LabourWage, Result, error) {
	if err := f.Check(); err != nil {
		return models.LabourWage{}, Result{}, err
	}

	l.mu.Lock()
	i := indexOf(l.wages, id, wageID)
	if i < 0 {
		l.mu.Unlock()
		return models.LabourWage{}, Result{}, &models.NotFoundError{Kind: "labour wage", ID: id}
	}
	updated := clone(l.wages)
	updated[i].Apply(f)
	w := updated[i]
	l.wages = updated
	l.mu.Unlock()
	l.notify(KindWages)

	res := l.persist(ctx, KindWages, OpUpdate, id, func(ctx context.Context, r RemoteStore) error {
		return r.UpdateLabourWage(ctx, w)
	})
	return w, res, nil
}

// DeleteWage removes wage id.
func (l *Ledger) DeleteWage(ctx context.Context, id string) Result {
	l.mu.Lock()
	l.wages = without(l.wages, id, wageID)
	l.mu.Unlock()
	l.notify(KindWages)

	return l.persist(ctx, KindWages, OpDelete, id, func(ctx context.Context, r RemoteStore) error {
		return r.DeleteLabourWage(ctx, id)
	})
}
