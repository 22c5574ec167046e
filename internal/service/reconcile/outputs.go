package reconcile

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/husk/internal/domain/models"
)

func outputID(o models.OutputProduct) string { return o.ID }

// Outputs returns the recorded sales, newest first. Outputs never leave the
// cache.
func (l *Ledger) Outputs() []models.OutputProduct {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := clone(l.outputs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// AddOutput records quantity of productType sold at unitPrice.
func (l *Ledger) AddOutput(ctx context.Context, productType models.ProductType, quantity, unitPrice decimal.Decimal) (models.OutputProduct, error) {
	o, err := models.NewOutputProduct(l.now(), productType, quantity, unitPrice)
	if err != nil {
		return models.OutputProduct{}, err
	}

	l.mu.Lock()
	l.outputs = append([]models.OutputProduct{o}, l.outputs...)
	l.mu.Unlock()
	l.notify(KindOutputs)

	return o, l.mirror(ctx, KindOutputs)
}

// DeleteOutput removes output id.
func (l *Ledger) DeleteOutput(ctx context.Context, id string) error {
	l.mu.Lock()
	l.outputs = without(l.outputs, id, outputID)
	l.mu.Unlock()
	l.notify(KindOutputs)

	return l.mirror(ctx, KindOutputs)
}
