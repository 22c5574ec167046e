package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/domain/models"
)

func purchaseID(p models.PurchaseInput) string { return p.ID }

// Purchases returns the session's purchases, newest first.
func (l *Ledger) Purchases() []models.PurchaseInput {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return clone(l.purchases)
}

// CreatePurchase records a purchase dated now and deducts its total from
// capital before the record store is contacted.
func (l *Ledger) CreatePurchase(ctx context.Context, f models.PurchaseFields) (models.PurchaseInput, Result, error) {
	p, err := models.NewPurchaseInput(l.now(), f)
	if err != nil {
		return models.PurchaseInput{}, Result{}, err
	}

	l.mu.Lock()
	l.purchases = append([]models.PurchaseInput{p}, l.purchases...)
	l.mu.Unlock()
	l.notify(KindPurchases)

	if l.capital != nil {
		if _, err := l.capital.Deduct(ctx, p.TotalPrice); err != nil {
			l.logger.Error("deduct purchase from capital", zap.String("id", p.ID), zap.Error(err))
		}
	}

	res := l.persist(ctx, KindPurchases, OpCreate, p.ID, func(ctx context.Context, r RemoteStore) error {
		return r.CreatePurchaseInput(ctx, p)
	})
	return p, res, nil
}

// UpdatePurchase replaces the editable fields of purchase id. Capital is not
// adjusted.
func (l *Ledger) UpdatePurchase(ctx context.Context, id string, f models.PurchaseFields) (models.PurchaseInput, Result, error) {
	if err := f.Check(); err != nil {
		return models.PurchaseInput{}, Result{}, err
	}

	l.mu.Lock()
	i := indexOf(l.purchases, id, purchaseID)
	if i < 0 {
		l.mu.Unlock()
		return models.PurchaseInput{}, Result{}, &models.NotFoundError{Kind: "purchase input", ID: id}
	}
	updated := clone(l.purchases)
	updated[i].Apply(f)
	p := updated[i]
	l.purchases = updated
	l.mu.Unlock()
	l.notify(KindPurchases)

	res := l.persist(ctx, KindPurchases, OpUpdate, id, func(ctx context.Context, r RemoteStore) error {
		return r.UpdatePurchaseInput(ctx, p)
	})
	return p, res, nil
}

// DeletePurchase removes purchase id. Unknown ids still go through both phases.
func (l *Ledger) DeletePurchase(ctx context.Context, id string) Result {
	l.mu.Lock()
	l.purchases = without(l.purchases, id, purchaseID)
	l.mu.Unlock()
	l.notify(KindPurchases)

	return l.persist(ctx, KindPurchases, OpDelete, id, func(ctx context.Context, r RemoteStore) error {
		return r.DeletePurchaseInput(ctx, id)
	})
}
