package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks how much of a purchase has been settled with the client.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentPartial PaymentStatus = "partial"
)

// Valid reports whether s is one of the known statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentPartial:
		return true
	}
	return false
}

// PurchaseInput captures coconuts bought from a client.
type PurchaseInput struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Count         int             `json:"count"`
	PricePerUnit  decimal.Decimal `json:"pricePerUnit"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	ClientName    string          `json:"clientName"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
}

// PurchaseFields are the user-editable fields of a purchase.
type PurchaseFields struct {
	Count         int
	PricePerUnit  decimal.Decimal
	ClientName    string
	PaymentStatus PaymentStatus
}

// Check applies the entry-form rules: a positive count and price and a client.
func (f PurchaseFields) Check() error {
	v := make(Violations)
	if f.Count <= 0 {
		v["count"] = "must_be_positive"
	}
	if !f.PricePerUnit.IsPositive() {
		v["pricePerUnit"] = "must_be_positive"
	}
	v.Required("clientName", f.ClientName)
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		v["paymentStatus"] = "invalid"
	}
	return v.Err()
}

// NewPurchaseInput builds a purchase dated at now with a computed total.
func NewPurchaseInput(now time.Time, f PurchaseFields) (PurchaseInput, error) {
	if err := f.Check(); err != nil {
		return PurchaseInput{}, err
	}
	p := PurchaseInput{ID: NewID(), Date: NormalizeDate(now)}
	p.Apply(f)
	return p, nil
}

// Apply overwrites the editable fields and recomputes the total.
func (p *PurchaseInput) Apply(f PurchaseFields) {
	p.Count = f.Count
	p.PricePerUnit = f.PricePerUnit
	p.ClientName = strings.TrimSpace(f.ClientName)
	p.PaymentStatus = f.PaymentStatus
	if p.PaymentStatus == "" {
		p.PaymentStatus = PaymentPending
	}
	p.TotalPrice = PurchaseTotal(p.Count, p.PricePerUnit)
}

// PurchaseTotal returns count × pricePerUnit at full precision.
func PurchaseTotal(count int, pricePerUnit decimal.Decimal) decimal.Decimal {
	return pricePerUnit.Mul(decimal.NewFromInt(int64(count)))
}

// Validate enforces the record store contract for a new purchase.
func (p PurchaseInput) Validate() error {
	v := make(Violations)
	v.Required("id", p.ID)
	if p.Date.IsZero() {
		v["date"] = "required"
	}
	p.checkFields(v)
	return v.Err()
}

// ValidateUpdate enforces the record store contract for an update, where the
// identifier comes from the request path and the date is immutable.
func (p PurchaseInput) ValidateUpdate() error {
	v := make(Violations)
	p.checkFields(v)
	return v.Err()
}

func (p PurchaseInput) checkFields(v Violations) {
	if p.Count <= 0 {
		v["count"] = "must_be_positive"
	}
	if p.PricePerUnit.IsNegative() {
		v["pricePerUnit"] = "must_not_be_negative"
	}
	if !p.TotalPrice.Equal(PurchaseTotal(p.Count, p.PricePerUnit)) {
		v["totalPrice"] = "must_equal_count_times_price"
	}
	v.Required("clientName", p.ClientName)
	if !p.PaymentStatus.Valid() {
		v["paymentStatus"] = "invalid"
	}
}

// LabourWage captures wages paid to a worker.
type LabourWage struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"date"`
	WorkerName string          `json:"workerName"`
	Days       decimal.Decimal `json:"days"`
	RatePerDay decimal.Decimal `json:"ratePerDay"`
	TotalWage  decimal.Decimal `json:"totalWage"`
}

// WageFields are the user-editable fields of a wage record.
type WageFields struct {
	WorkerName string
	Days       decimal.Decimal
	RatePerDay decimal.Decimal
}

// Check applies the entry-form rules.
func (f WageFields) Check() error {
	v := make(Violations)
	v.Required("workerName", f.WorkerName)
	if !f.Days.IsPositive() {
		v["days"] = "must_be_positive"
	}
	if !f.RatePerDay.IsPositive() {
		v["ratePerDay"] = "must_be_positive"
	}
	return v.Err()
}

// NewLabourWage builds a wage record dated at now with a computed total.
func NewLabourWage(now time.Time, f WageFields) (LabourWage, error) {
	if err := f.Check(); err != nil {
		return LabourWage{}, err
	}
	w := LabourWage{ID: NewID(), Date: NormalizeDate(now)}
	w.Apply(f)
	return w, nil
}

// Apply overwrites the editable fields and recomputes the total.
func (w *LabourWage) Apply(f WageFields) {
	w.WorkerName = strings.TrimSpace(f.WorkerName)
	w.Days = f.Days
	w.RatePerDay = f.RatePerDay
	w.TotalWage = f.Days.Mul(f.RatePerDay)
}

// Validate enforces the record store contract for a new wage.
func (w LabourWage) Validate() error {
	v := make(Violations)
	v.Required("id", w.ID)
	if w.Date.IsZero() {
		v["date"] = "required"
	}
	w.checkFields(v)
	return v.Err()
}

// ValidateUpdate enforces the record store contract for an update.
func (w LabourWage) ValidateUpdate() error {
	v := make(Violations)
	w.checkFields(v)
	return v.Err()
}

func (w LabourWage) checkFields(v Violations) {
	v.Required("workerName", w.WorkerName)
	if !w.Days.IsPositive() {
		v["days"] = "must_be_positive"
	}
	if w.RatePerDay.IsNegative() {
		v["ratePerDay"] = "must_not_be_negative"
	}
	if !w.TotalWage.Equal(w.Days.Mul(w.RatePerDay)) {
		v["totalWage"] = "must_equal_days_times_rate"
	}
}

// Client is a supplier coconuts are bought from. Purchases reference it by name.
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Validate checks the client has an id and a name.
func (c Client) Validate() error {
	v := make(Violations)
	v.Required("id", c.ID)
	v.Required("name", c.Name)
	return v.Err()
}
