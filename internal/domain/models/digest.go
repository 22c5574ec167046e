package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Digest is the weekly cost summary produced by the scheduler.
type Digest struct {
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	Purchases         int             `json:"purchases"`
	CoconutsPurchased int             `json:"coconuts_purchased"`
	InputCosts        decimal.Decimal `json:"input_costs"`
	LabourCosts       decimal.Decimal `json:"labour_costs"`
	LabourDays        decimal.Decimal `json:"labour_days"`
	TotalCosts        decimal.Decimal `json:"total_costs"`
	CreatedAt         time.Time       `json:"created_at"`
}
