package reporting

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// RecentOutputLimit caps Report.RecentOutputs.
const RecentOutputLimit = 10

var hundred = decimal.NewFromInt(100)

// ProductSummary totals the sales of one product.
type ProductSummary struct {
	ProductType models.ProductType `json:"productType"`
	Unit        string             `json:"unit"`
	Quantity    decimal.Decimal    `json:"quantity"`
	Revenue     decimal.Decimal    `json:"revenue"`
}

// Report aggregates the filtered record sets. Amounts are kept at full
// precision; round with models.FormatMoney for display.
type Report struct {
	Filter Filter `json:"-"`

	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	InputCosts   decimal.Decimal `json:"inputCosts"`
	LabourCosts  decimal.Decimal `json:"labourCosts"`
	TotalCosts   decimal.Decimal `json:"totalCosts"`
	NetProfit    decimal.Decimal `json:"netProfit"`
	// ProfitMargin is NetProfit as a percentage of TotalRevenue, 0 without revenue.
	ProfitMargin decimal.Decimal `json:"profitMargin"`

	Products       []ProductSummary `json:"products"`
	HuskLoads      decimal.Decimal  `json:"huskLoads"`
	HuskSquareFeet decimal.Decimal  `json:"huskSquareFeet"`

	Purchases         int             `json:"purchases"`
	CoconutsPurchased int             `json:"coconutsPurchased"`
	CoconutsBought    int             `json:"coconutsBought"`
	LabourDays        decimal.Decimal `json:"labourDays"`

	RecentOutputs []models.OutputProduct `json:"recentOutputs"`

	// Capital is the last capital broadcast, nil until one arrives.
	Capital *decimal.Decimal `json:"capital,omitempty"`
}

// Engine builds reports over in-memory record sets. It also keeps the
// session-local coconut reduction and the last capital figure broadcast.
type Engine struct {
	loc *time.Location

	mu          sync.Mutex
	reduced     int
	capital     decimal.Decimal
	capitalSeen bool
}

// NewEngine evaluates year filters in loc (UTC when nil).
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// Location is the timezone year filters are evaluated in.
func (e *Engine) Location() *time.Location { return e.loc }

// FilterPurchases returns the purchases matching f, preserving order.
func (e *Engine) FilterPurchases(items []models.PurchaseInput, f Filter) []models.PurchaseInput {
	out := make([]models.PurchaseInput, 0, len(items))
	for _, p := range items {
		if f.matches(p.Date, e.loc) {
			out = append(out, p)
		}
	}
	return out
}

// FilterWages returns the wages matching f, preserving order.
func (e *Engine) FilterWages(items []models.LabourWage, f Filter) []models.LabourWage {
	out := make([]models.LabourWage, 0, len(items))
	for _, w := range items {
		if f.matches(w.Date, e.loc) {
			out = append(out, w)
		}
	}
	return out
}

// FilterOutputs returns the outputs matching f, including its product type.
func (e *Engine) FilterOutputs(items []models.OutputProduct, f Filter) []models.OutputProduct {
	out := make([]models.OutputProduct, 0, len(items))
	for _, o := range items {
		if f.ProductType != "" && o.ProductType != f.ProductType {
			continue
		}
		if f.matches(o.Date, e.loc) {
			out = append(out, o)
		}
	}
	return out
}

// Build aggregates the records that pass f.
func (e *Engine) Build(f Filter, purchases []models.PurchaseInput, wages []models.LabourWage, outputs []models.OutputProduct) (Report, error) {
	if err := f.Validate(); err != nil {
		return Report{}, err
	}

	purchases = e.FilterPurchases(purchases, f)
	wages = e.FilterWages(wages, f)
	outputs = e.FilterOutputs(outputs, f)

	r := Report{Filter: f, Purchases: len(purchases)}
	for _, p := range purchases {
		r.InputCosts = r.InputCosts.Add(p.TotalPrice)
		r.CoconutsPurchased += p.Count
	}
	for _, w := range wages {
		r.LabourCosts = r.LabourCosts.Add(w.TotalWage)
		r.LabourDays = r.LabourDays.Add(w.Days)
	}

	byType := make(map[models.ProductType]*ProductSummary, len(models.ProductTypes))
	for _, t := range models.ProductTypes {
		r.Products = append(r.Products, ProductSummary{ProductType: t, Unit: t.Unit()})
	}
	for i := range r.Products {
		byType[r.Products[i].ProductType] = &r.Products[i]
	}
	for _, o := range outputs {
		r.TotalRevenue = r.TotalRevenue.Add(o.TotalPrice)
		if s, ok := byType[o.ProductType]; ok {
			s.Quantity = s.Quantity.Add(o.Quantity())
			s.Revenue = s.Revenue.Add(o.TotalPrice)
		}
	}

	r.TotalCosts = r.InputCosts.Add(r.LabourCosts)
	r.NetProfit = r.TotalRevenue.Sub(r.TotalCosts)
	if r.TotalRevenue.IsPositive() {
		r.ProfitMargin = r.NetProfit.Div(r.TotalRevenue).Mul(hundred)
	}

	r.HuskLoads = byType[models.ProductHusk].Quantity
	r.HuskSquareFeet = r.HuskLoads.Mul(decimal.NewFromInt(models.HuskSquareFeetPerLoad))

	e.mu.Lock()
	r.CoconutsBought = max(r.CoconutsPurchased-e.reduced, 0)
	if e.capitalSeen {
		capital := e.capital
		r.Capital = &capital
	}
	e.mu.Unlock()

	sort.SliceStable(outputs, func(i, j int) bool { return outputs[i].Date.After(outputs[j].Date) })
	if len(outputs) > RecentOutputLimit {
		outputs = outputs[:RecentOutputLimit]
	}
	r.RecentOutputs = outputs

	return r, nil
}

// ReduceCount lowers the displayed coconut count by n for this session. The
// cumulative reduction may not exceed the coconuts purchased under f.
func (e *Engine) ReduceCount(purchases []models.PurchaseInput, f Filter, n int) (int, error) {
	if n <= 0 {
		return 0, models.NewValidationError("count", "must_be_positive")
	}

	total := 0
	for _, p := range e.FilterPurchases(purchases, f) {
		total += p.Count
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.reduced+n > total {
		return 0, &models.ValidationError{Violations: models.Violations{
			"count": fmt.Sprintf("exceeds_total_bought_%d", total),
		}}
	}
	e.reduced += n
	return total - e.reduced, nil
}

// Reduced returns the session's cumulative reduction.
func (e *Engine) Reduced() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reduced
}

// ResetReduction clears the session's reduction.
func (e *Engine) ResetReduction() {
	e.mu.Lock()
	e.reduced = 0
	e.mu.Unlock()
}

// SetCapital records a capital broadcast.
func (e *Engine) SetCapital(d decimal.Decimal) {
	e.mu.Lock()
	e.capital, e.capitalSeen = d, true
	e.mu.Unlock()
}

// LastCapital returns the most recent capital broadcast, if any.
func (e *Engine) LastCapital() (decimal.Decimal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capital, e.capitalSeen
}
